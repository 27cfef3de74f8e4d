// Package model holds the content records loaded from the data bundle.
package model

// DefaultOrder sorts maps without an explicit order hint after all others.
const DefaultOrder = 9999

// GameMapMeta describes one playable map: its tiled background and its identity.
type GameMapMeta struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	TileWidth   int    `yaml:"tileWidth" json:"tileWidth"`
	TileHeight  int    `yaml:"tileHeight" json:"tileHeight"`
	TilesCountX int    `yaml:"tilesCountX" json:"tilesCountX"`
	TilesCountY int    `yaml:"tilesCountY" json:"tilesCountY"`
	IsVisible   *bool  `yaml:"isVisible,omitempty" json:"isVisible,omitempty"`
	Order       *int   `yaml:"order,omitempty" json:"order,omitempty"`
}

// SortOrder returns the order hint, or DefaultOrder when none was given.
func (m GameMapMeta) SortOrder() int {
	if m.Order == nil {
		return DefaultOrder
	}
	return *m.Order
}

// Visible reports whether the map is listed. Maps without a flag are listed.
func (m GameMapMeta) Visible() bool {
	return m.IsVisible == nil || *m.IsVisible
}

// MarkerTypeSubtype is the leaf of the marker taxonomy, e.g. locations.tpPoint.
type MarkerTypeSubtype struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Category    string  `yaml:"category" json:"category"`
	Icon        string  `yaml:"icon,omitempty" json:"icon,omitempty"`
	IconScale   float64 `yaml:"iconScale,omitempty" json:"iconScale,omitempty"`
	HideTooltip bool    `yaml:"hideTooltip,omitempty" json:"hideTooltip,omitempty"`
	CanComplete bool    `yaml:"canComplete,omitempty" json:"canComplete,omitempty"`
	Color       string  `yaml:"color,omitempty" json:"color,omitempty"`
}

// MarkerTypeCategory groups subtypes, e.g. locations or gatheringPoints.
type MarkerTypeCategory struct {
	ID       string              `yaml:"id" json:"id"`
	Name     string              `yaml:"name" json:"name"`
	Icon     string              `yaml:"icon,omitempty" json:"icon,omitempty"`
	Color    string              `yaml:"color,omitempty" json:"color,omitempty"`
	Subtypes []MarkerTypeSubtype `yaml:"subtypes" json:"subtypes"`
}

// Point is a position in map pixel space, x to the right and y upward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Marker is one point of interest on a map.
type Marker struct {
	ID         string   `json:"id"`
	CategoryID string   `json:"categoryId,omitempty"`
	SubtypeID  string   `json:"subtype"`
	Position   Point    `json:"position"`
	Images     []string `json:"images,omitempty"`
}

// MapsFile is the parsed data/maps.yaml.
type MapsFile struct {
	Version int           `yaml:"version"`
	Maps    []GameMapMeta `yaml:"maps"`
}

// TypesFile is the parsed data/types.yaml.
type TypesFile struct {
	Version    int                  `yaml:"version"`
	Categories []MarkerTypeCategory `yaml:"categories"`
}
