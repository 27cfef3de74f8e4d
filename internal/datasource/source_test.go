package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"dynamic", Dynamic},
		{" Dynamic ", Dynamic},
		{"static", Static},
		{"", Static},
		{"remote", Static},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMode(tt.in))
		})
	}
}

func TestSource_StaticBaseURL(t *testing.T) {
	s := New(Config{BasePath: "/viewer/", CDNPrefix: "https://cdn.example.com"})
	assert.Equal(t, "https://cdn.example.com/viewer", s.StaticBaseURL())
	assert.Equal(t, "https://cdn.example.com/viewer", s.BaseURL())
}

func TestSource_RootBasePath(t *testing.T) {
	s := New(Config{BasePath: "/"})
	assert.Equal(t, "", s.StaticBaseURL())
	assert.Equal(t, "/data/maps.yaml", s.Resolve("data/maps.yaml"))
	assert.Equal(t, "/data/maps.yaml", s.Resolve("/data/maps.yaml"))
}

func TestSource_DynamicBaseURL(t *testing.T) {
	s := New(Config{Mode: Dynamic, BasePath: "/", APIBaseURL: "http://localhost:9000/api/v1/export/"})
	assert.Equal(t, "http://localhost:9000/api/v1/export", s.BaseURL())
	assert.Equal(t, "http://localhost:9000/api/v1/export/data/types.yaml", s.Resolve("data/types.yaml"))
	assert.Equal(t, "/images/watermark.png", s.StaticURL("images/watermark.png"))
}

func TestSource_DefaultAPIBaseURL(t *testing.T) {
	s := New(Config{Mode: Dynamic})
	assert.Equal(t, "/api/v1/export", s.BaseURL())
}

func TestSource_LocalePath(t *testing.T) {
	s := New(Config{Mode: Dynamic, BasePath: "/app", APIBaseURL: "https://api.example.com"})

	assert.Equal(t, "/app/locales/en/common.yaml", s.LocalePath("en", "common"))
	assert.Equal(t, "https://api.example.com/locales/en/types.yaml", s.LocalePath("en", "types"))

	s.SetMode(Static)
	assert.Equal(t, "/app/locales/zh-CN/markers/world.yaml", s.LocalePath("zh-CN", "markers/world"))
}

func TestSource_ToggleNotifiesSubscribers(t *testing.T) {
	s := New(Config{})
	var seen []Mode
	cancel := s.Subscribe(func(m Mode) { seen = append(seen, m) })

	assert.Equal(t, Dynamic, s.Toggle())
	assert.Equal(t, Static, s.Toggle())
	assert.Equal(t, []Mode{Dynamic, Static}, seen)

	cancel()
	s.Toggle()
	assert.Len(t, seen, 2, "cancelled subscriber should not be notified")
}

func TestSource_SetModeSameValueIsSilent(t *testing.T) {
	s := New(Config{Mode: Static})
	calls := 0
	s.Subscribe(func(Mode) { calls++ })

	s.SetMode(Static)
	assert.Equal(t, 0, calls)
}
