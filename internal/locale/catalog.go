// Package locale loads per-namespace YAML string tables into a go-i18n bundle.
package locale

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/gamemaps/viewer/internal/datasource"
)

const (
	Fallback = "zh-CN"

	NamespaceCommon = datasource.CommonNamespace
	NamespaceMaps   = "maps"
	NamespaceTypes  = "types"
)

// Supported lists the languages shipped with the bundle.
var Supported = []string{"en", "zh-CN", "zh-TW"}

// DefaultNamespaces are loaded at startup.
var DefaultNamespaces = []string{NamespaceCommon, NamespaceMaps, NamespaceTypes}

var matcher = language.NewMatcher(tags(Supported))

func tags(langs []string) []language.Tag {
	out := make([]language.Tag, len(langs))
	for i, l := range langs {
		out[i] = language.Make(l)
	}
	return out
}

// MarkersNamespace returns the namespace holding marker names for a map.
func MarkersNamespace(mapName string) string {
	return "markers/" + mapName
}

// Match returns the supported language closest to lang, or Fallback.
func Match(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return Fallback
	}
	_, i, confidence := matcher.Match(tag)
	if confidence == language.No {
		return Fallback
	}
	return Supported[i]
}

// Fetcher loads one YAML document from an absolute URL.
type Fetcher interface {
	FetchURL(ctx context.Context, rawURL string, out any) error
}

// PathResolver builds locale table URLs for the current data mode.
type PathResolver interface {
	LocalePath(lang, ns string) string
}

// Catalog holds the loaded tables for one language plus the fallback.
type Catalog struct {
	client Fetcher
	paths  PathResolver
	log    *slog.Logger

	mu         sync.RWMutex
	lang       string
	bundle     *i18n.Bundle
	localizer  *i18n.Localizer
	namespaces map[string]struct{}
}

// NewCatalog creates an empty catalog for lang.
func NewCatalog(client Fetcher, paths PathResolver, lang string, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	c := &Catalog{
		client:     client,
		paths:      paths,
		log:        log,
		namespaces: map[string]struct{}{},
	}
	c.reset(Match(lang))
	return c
}

func (c *Catalog) reset(lang string) {
	c.lang = lang
	c.bundle = i18n.NewBundle(language.Make(Fallback))
	c.localizer = i18n.NewLocalizer(c.bundle, lang, Fallback)
}

// Language returns the active language.
func (c *Catalog) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

// Namespaces returns the loaded namespaces, sorted.
func (c *Catalog) Namespaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.namespaces))
	for ns := range c.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Load fetches namespaces for the active language and the fallback.
// A table that fails to load is logged and skipped; the first error is returned.
func (c *Catalog) Load(ctx context.Context, namespaces ...string) error {
	c.mu.RLock()
	lang := c.lang
	c.mu.RUnlock()

	langs := []string{lang}
	if lang != Fallback {
		langs = append(langs, Fallback)
	}

	var firstErr error
	for _, ns := range namespaces {
		for _, l := range langs {
			msgs, err := c.fetch(ctx, l, ns)
			if err != nil {
				c.log.Warn("Failed to load locale table", "lang", l, "ns", ns, "error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}

			c.mu.Lock()
			if c.lang != lang {
				// language switched mid-load
				c.mu.Unlock()
				return nil
			}
			err = c.bundle.AddMessages(language.Make(l), msgs...)
			c.namespaces[ns] = struct{}{}
			c.mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("failed to register %s/%s: %w", l, ns, err)
			}
		}
	}
	return firstErr
}

func (c *Catalog) fetch(ctx context.Context, lang, ns string) ([]*i18n.Message, error) {
	var table map[string]any
	if err := c.client.FetchURL(ctx, c.paths.LocalePath(lang, ns), &table); err != nil {
		return nil, err
	}
	return Messages(ns, table), nil
}

// Reload drops every table and loads the same namespaces again, for example
// after the data mode changed.
func (c *Catalog) Reload(ctx context.Context) error {
	c.mu.Lock()
	namespaces := make([]string, 0, len(c.namespaces))
	for ns := range c.namespaces {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	c.reset(c.lang)
	c.namespaces = map[string]struct{}{}
	c.mu.Unlock()

	return c.Load(ctx, namespaces...)
}

// SetLanguage switches language and reloads the loaded namespaces.
func (c *Catalog) SetLanguage(ctx context.Context, lang string) error {
	c.mu.Lock()
	c.lang = Match(lang)
	c.mu.Unlock()
	return c.Reload(ctx)
}

// T resolves key ("ns:path.to.key", namespace defaults to common) or returns fallback.
func (c *Catalog) T(key, fallback string) string {
	if !strings.Contains(key, ":") {
		key = NamespaceCommon + ":" + key
	}

	c.mu.RLock()
	localizer := c.localizer
	c.mu.RUnlock()

	s, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil || s == "" {
		return fallback
	}
	return s
}

// Messages flattens a nested table into messages with ids "ns:a.b.c".
// Empty strings are skipped so lookups fall through to the fallback language.
func Messages(ns string, table map[string]any) []*i18n.Message {
	flat := map[string]string{}
	flatten("", table, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]*i18n.Message, 0, len(keys))
	for _, k := range keys {
		if flat[k] == "" {
			continue
		}
		msgs = append(msgs, &i18n.Message{ID: ns + ":" + k, Other: flat[k]})
	}
	return msgs
}

func flatten(prefix string, v any, out map[string]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flatten(join(prefix, k), child, out)
		}
	case map[any]any:
		for k, child := range val {
			flatten(join(prefix, fmt.Sprint(k)), child, out)
		}
	case []any:
		for i, child := range val {
			flatten(join(prefix, fmt.Sprint(i)), child, out)
		}
	case nil:
	default:
		if prefix != "" {
			out[prefix] = fmt.Sprint(val)
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
