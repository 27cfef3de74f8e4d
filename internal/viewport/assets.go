// Package viewport composes what the map library draws: background tiles,
// the watermark overlay and marker icons.
package viewport

import (
	"fmt"
	"strings"

	"github.com/gamemaps/viewer/internal/model"
)

const (
	// DefaultIcon is drawn for subtypes without an icon of their own.
	DefaultIcon = "UI/Resource/Texture/Icon/UT_Marker_Exploration_Hideen.png"
	// WatermarkPath is the translucent tile repeated over the background.
	WatermarkPath = "images/watermark.png"
	// WatermarkOpacity is the opacity of the watermark layer.
	WatermarkOpacity = 0.15

	darkMapType = "dark"
)

// StaticResolver resolves asset paths against the static bundle.
type StaticResolver interface {
	StaticURL(relPath string) string
}

// Assets builds asset URLs for one static bundle.
type Assets struct {
	static StaticResolver
}

func NewAssets(static StaticResolver) *Assets {
	return &Assets{static: static}
}

// TilePath returns the bundle path of background tile (x, y).
// Asset row 0 is the bottom row of the map.
func TilePath(m model.GameMapMeta, x, y int) (string, bool) {
	if x < 0 || y < 0 || x >= m.TilesCountX || y >= m.TilesCountY {
		return "", false
	}
	return fmt.Sprintf("UI/Map/WorldMap/%s/Res/%s_%02d_%02d.png", m.Name, m.Name, x, y), true
}

// TileURL resolves background tile (x, y) in asset indices.
func (a *Assets) TileURL(m model.GameMapMeta, x, y int) (string, bool) {
	p, ok := TilePath(m, x, y)
	if !ok {
		return "", false
	}
	return a.static.StaticURL(p), true
}

// LibraryTileURL resolves the tile the map library requests at (col, row).
// Library rows count up from -tilesCountY, so the asset row is tilesCountY+row.
func (a *Assets) LibraryTileURL(m model.GameMapMeta, col, row int) (string, bool) {
	return a.TileURL(m, col, m.TilesCountY+row)
}

// WatermarkURL returns the watermark image URL.
func (a *Assets) WatermarkURL() string {
	return a.static.StaticURL(WatermarkPath)
}

// WatermarkTileURL returns the watermark for library tiles that lie on the map.
func (a *Assets) WatermarkTileURL(m model.GameMapMeta, col, row int) (string, bool) {
	if _, ok := TilePath(m, col, m.TilesCountY+row); !ok {
		return "", false
	}
	return a.WatermarkURL(), true
}

// IconPath picks the icon path for a map: the given icon or the default, with
// the first "Light" switched to "Dark" on dark maps.
func IconPath(icon string, m model.GameMapMeta) string {
	if icon == "" {
		icon = DefaultIcon
	}
	if m.Type == darkMapType && strings.Contains(icon, "Light") {
		icon = strings.Replace(icon, "Light", "Dark", 1)
	}
	return icon
}

// IconURL resolves an icon path against the static bundle.
func (a *Assets) IconURL(icon string, m model.GameMapMeta) string {
	return a.static.StaticURL(IconPath(icon, m))
}

// SubtypeIcon returns the subtype icon, falling back to the category icon.
func SubtypeIcon(sub model.MarkerTypeSubtype, cat model.MarkerTypeCategory) string {
	if sub.Icon != "" {
		return sub.Icon
	}
	return cat.Icon
}
