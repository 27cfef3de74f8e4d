package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "mapviewer.cfg.json"

// DataConfig holds content source settings
type DataConfig struct {
	Mode          string `json:"mode" mapstructure:"mode"`
	BasePath      string `json:"basePath" mapstructure:"basePath"`
	CDNPrefix     string `json:"cdnPrefix" mapstructure:"cdnPrefix"`
	APIBaseURL    string `json:"apiBaseUrl" mapstructure:"apiBaseUrl"`
	StoragePrefix string `json:"storagePrefix" mapstructure:"storagePrefix"`
	Language      string `json:"language" mapstructure:"language"`
	BundleDir     string `json:"bundleDir" mapstructure:"bundleDir"`
	Timeout       time.Duration
}

// BuildInfo is shown in the about panel only.
type BuildInfo struct {
	Time     string
	Revision string
}

// SQLiteConfig holds settings for the sqlite preference store
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// StorageConfig selects the preference storage backend
type StorageConfig struct {
	Type   string
	SQLite SQLiteConfig
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// FlagBindings maps command-line flags onto config keys.
var FlagBindings = map[string]string{
	"log-level": "logLevel",
	"data-mode": "data.mode",
	"lang":      "data.language",
	"bundle":    "data.bundleDir",
	"storage":   "storage.type",
}

// BindFlags lets flags in fs that were set on the command line override the file.
func BindFlags(fs *pflag.FlagSet) error {
	for flag, key := range FlagBindings {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// LoadDefaults registers defaults without reading a file. Used when no config exists.
func LoadDefaults() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./mapviewer-logs")

	viper.SetDefault("data.mode", "static")
	viper.SetDefault("data.basePath", "/")
	viper.SetDefault("data.cdnPrefix", "")
	viper.SetDefault("data.apiBaseUrl", "/api/v1/export")
	viper.SetDefault("data.storagePrefix", "gamemap")
	viper.SetDefault("data.language", "zh-CN")
	viper.SetDefault("data.bundleDir", "")
	viper.SetDefault("data.timeout", "30s")

	viper.SetDefault("build.time", "unknown")
	viper.SetDefault("build.revision", "dev")

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.sqlite.path", "./mapviewer.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "mapviewer")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "mapviewer")
	viper.SetDefault("influx.bucket", "viewer_performance")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "mapviewer")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDataConfig returns the content source settings.
func GetDataConfig() DataConfig {
	return DataConfig{
		Mode:          viper.GetString("data.mode"),
		BasePath:      viper.GetString("data.basePath"),
		CDNPrefix:     viper.GetString("data.cdnPrefix"),
		APIBaseURL:    viper.GetString("data.apiBaseUrl"),
		StoragePrefix: viper.GetString("data.storagePrefix"),
		Language:      viper.GetString("data.language"),
		BundleDir:     viper.GetString("data.bundleDir"),
		Timeout:       viper.GetDuration("data.timeout"),
	}
}

// GetBuildInfo returns the build timestamp and revision.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Time:     viper.GetString("build.time"),
		Revision: viper.GetString("build.revision"),
	}
}

// GetStorageConfig returns the preference storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
