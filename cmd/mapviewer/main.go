package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/gamemaps/viewer/internal/api"
	"github.com/gamemaps/viewer/internal/config"
	"github.com/gamemaps/viewer/internal/datasource"
	"github.com/gamemaps/viewer/internal/influx"
	"github.com/gamemaps/viewer/internal/logging"
	intOtel "github.com/gamemaps/viewer/internal/otel"
	"github.com/gamemaps/viewer/internal/persist"
	"github.com/gamemaps/viewer/internal/storage"
	"github.com/gamemaps/viewer/internal/viewer"
)

// AppName names the log file and the OTel service.
const AppName = "mapviewer"

// app holds everything opened at startup so shutdown can release it in order.
type app struct {
	slogManager *logging.SlogManager
	logger      *slog.Logger
	logFile     *os.File
	otel        *intOtel.Provider
	influx      *influx.Manager
	backend     storage.Backend
	prefs       *persist.Writer
	session     *viewer.Session
	out         io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	configDir := fs.String("config", ".", "directory containing "+config.FileName)
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("data-mode", "", "content source: static or dynamic")
	fs.String("lang", "", "display language")
	fs.String("bundle", "", "serve the static bundle from this directory")
	fs.String("storage", "", "preference storage: sqlite, postgres or memory")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		usage(fs)
		return 2
	}

	configErr := config.Load(*configDir)
	if configErr != nil {
		config.LoadDefaults()
	}
	if err := config.BindFlags(fs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx := context.Background()
	a, err := start(ctx, out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer a.shutdown()

	if configErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		a.logger.Info("Loaded config")
	}

	if err := a.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		a.logger.Error("Command failed", "command", fs.Arg(0), "error", err)
		return 1
	}
	return 0
}

func start(ctx context.Context, out io.Writer) (*app, error) {
	a := &app{out: out, slogManager: logging.NewSlogManager()}
	sessionStart := time.Now()
	build := config.GetBuildInfo()
	logsDir := config.GetString("logsDir")
	level := config.GetString("logLevel")

	logFile, err := logging.OpenLogFile(logsDir, AppName, sessionStart)
	if err != nil {
		return nil, err
	}
	a.logFile = logFile

	sinks := logging.Sinks{
		File: logFile,
		Context: func() []slog.Attr {
			if a.session == nil {
				return nil
			}
			return a.session.LogAttrs()
		},
	}

	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(config.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintf(logFile, "graylog unavailable: %v\n", err)
		} else {
			sinks.Graylog = w
		}
	}

	a.otel, err = intOtel.New(ctx, intOtel.FromConfig(config.GetOTelConfig(), build.Revision, logFile))
	if err != nil {
		fmt.Fprintf(logFile, "otel unavailable: %v\n", err)
	} else if a.otel.Enabled() {
		sinks.Provider = a.otel.LoggerProvider()
	}

	a.slogManager.Setup(level, sinks)
	a.logger = a.slogManager.Logger()
	zl := logging.NewZerolog(logFile, level)

	var recorder viewer.LoadRecorder
	im := influx.NewManager(zl, filepath.Join(logsDir, "influx_backup.log.gz"))
	switch err := im.Connect(); {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		a.logger.Warn("Influx telemetry disabled", "error", err)
	default:
		a.influx = im
		recorder = im
	}

	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg, zl)
	if err != nil {
		a.shutdown()
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		_ = backend.Close()
		a.shutdown()
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	a.backend = backend
	a.logger.Info("Preference storage initialized", "type", storageCfg.Type)

	a.prefs, err = persist.New(backend, logging.NewKVLogger(zl))
	if err != nil {
		a.shutdown()
		return nil, err
	}

	dataCfg := config.GetDataConfig()
	srcCfg := datasource.Config{
		Mode:       datasource.ParseMode(dataCfg.Mode),
		BasePath:   dataCfg.BasePath,
		CDNPrefix:  dataCfg.CDNPrefix,
		APIBaseURL: dataCfg.APIBaseURL,
	}
	clientOpts := []api.Option{api.WithTimeout(dataCfg.Timeout)}
	if dataCfg.BundleDir != "" {
		if srcCfg.CDNPrefix == "" {
			srcCfg.CDNPrefix = "file://"
		}
		clientOpts = append(clientOpts, api.WithBundleDir(dataCfg.BundleDir))
	}
	source := datasource.New(srcCfg)

	a.session = viewer.New(viewer.Dependencies{
		Source:        source,
		Client:        api.New(source, build.Revision, clientOpts...),
		Prefs:         a.prefs,
		Logger:        a.logger,
		Recorder:      recorder,
		Build:         build,
		StoragePrefix: dataCfg.StoragePrefix,
		Language:      dataCfg.Language,
	})

	a.logger.Info("Starting up...", "mode", srcCfg.Mode, "revision", build.Revision)
	a.session.Start(ctx)
	return a, nil
}

// shutdown flushes preferences before the backend closes.
func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.session != nil {
		a.session.Close()
	}
	if a.prefs != nil {
		if err := a.prefs.Flush(ctx); err != nil {
			a.logger.Error("Failed to flush preferences", "error", err)
		}
		a.prefs.Close()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("Failed to close storage backend", "error", err)
		}
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.logger.Error("Failed to close influx manager", "error", err)
		}
	}
	if a.logger != nil {
		a.logger.Info("Shut down")
	}
	_ = a.slogManager.Flush(ctx)
	if a.otel != nil {
		_ = a.otel.Shutdown(ctx)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
