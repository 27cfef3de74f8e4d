// Package datasource resolves content URLs for the static bundle and the remote content API.
// A Source has one owner that changes the mode; everything that builds URLs reads from it.
package datasource

import (
	"fmt"
	"strings"
	"sync"
)

// Mode selects where content documents are fetched from.
type Mode string

const (
	Static  Mode = "static"
	Dynamic Mode = "dynamic"
)

// CommonNamespace is the locale namespace always served from the static bundle.
const CommonNamespace = "common"

// ParseMode normalizes a configured mode string. Anything other than "dynamic" is static.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(Dynamic)) {
		return Dynamic
	}
	return Static
}

// Config holds the inputs needed to compute base URLs.
type Config struct {
	Mode       Mode
	BasePath   string
	CDNPrefix  string
	APIBaseURL string
}

// Listener is notified after the mode changes.
type Listener func(Mode)

// Source is the process-wide data mode holder.
type Source struct {
	mu        sync.RWMutex
	cfg       Config
	listeners map[int]Listener
	nextID    int
}

// New creates a Source with the given configuration.
func New(cfg Config) *Source {
	if cfg.Mode == "" {
		cfg.Mode = Static
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "/api/v1/export"
	}
	return &Source{
		cfg:       cfg,
		listeners: make(map[int]Listener),
	}
}

// Mode returns the current data mode.
func (s *Source) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Mode
}

// SetMode switches the data mode and notifies subscribers when it changed.
func (s *Source) SetMode(m Mode) {
	s.mu.Lock()
	if s.cfg.Mode == m {
		s.mu.Unlock()
		return
	}
	s.cfg.Mode = m
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(m)
	}
}

// Toggle flips between static and dynamic mode and returns the new mode.
func (s *Source) Toggle() Mode {
	next := Dynamic
	if s.Mode() == Dynamic {
		next = Static
	}
	s.SetMode(next)
	return next
}

// Subscribe registers l for mode changes. The returned func removes it.
func (s *Source) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// StaticBaseURL is the CDN prefix joined with the base path, without a trailing slash.
func (s *Source) StaticBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimRight(s.cfg.CDNPrefix+s.cfg.BasePath, "/")
}

// BaseURL returns the base for content documents in the current mode.
func (s *Source) BaseURL() string {
	if s.Mode() == Dynamic {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return strings.TrimRight(s.cfg.APIBaseURL, "/")
	}
	return s.StaticBaseURL()
}

// Resolve joins relPath onto the current mode's base URL.
func (s *Source) Resolve(relPath string) string {
	return join(s.BaseURL(), relPath)
}

// StaticURL joins relPath onto the static bundle base. Assets always come from the bundle.
func (s *Source) StaticURL(relPath string) string {
	return join(s.StaticBaseURL(), relPath)
}

// LocalePath returns the URL of one locale table. The common namespace ships with the
// bundle in both modes.
func (s *Source) LocalePath(lang, ns string) string {
	base := s.BaseURL()
	if ns == CommonNamespace {
		base = s.StaticBaseURL()
	}
	return fmt.Sprintf("%s/locales/%s/%s.yaml", base, lang, ns)
}

func join(base, relPath string) string {
	return base + "/" + strings.TrimLeft(relPath, "/")
}
