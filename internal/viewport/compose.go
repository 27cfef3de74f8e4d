package viewport

import (
	"fmt"

	"github.com/gamemaps/viewer/internal/geo"
	"github.com/gamemaps/viewer/internal/model"
	"github.com/gamemaps/viewer/internal/taxonomy"
)

const (
	// IconBaseSize is the icon edge in pixels at scale 1.
	IconBaseSize = 40.0
	// CompletedOpacity dims completed markers.
	CompletedOpacity = 0.4

	defaultDescription = "No description available yet."
	unknownLabel       = "Unknown"
)

// Translator looks up display strings. Missing keys yield fallback.
type Translator interface {
	T(key, fallback string) string
}

// VisibleSet reports whether a subtype is shown.
type VisibleSet interface {
	Visible(subtypeID string) bool
}

// CompletedSet reports whether a marker is completed.
type CompletedSet interface {
	Has(markerID string) bool
}

// RenderMarker is everything the map library needs to draw one marker.
type RenderMarker struct {
	ID            string     `json:"id"`
	SubtypeID     string     `json:"subtype"`
	CategoryID    string     `json:"category,omitempty"`
	IconURL       string     `json:"iconUrl"`
	IconScale     float64    `json:"iconScale"`
	IconSize      float64    `json:"iconSize"`
	Opacity       float64    `json:"opacity"`
	Completed     bool       `json:"completed"`
	CanComplete   bool       `json:"canComplete"`
	ShowTooltip   bool       `json:"showTooltip"`
	Label         string     `json:"label"`
	CategoryLabel string     `json:"categoryLabel"`
	SubtypeLabel  string     `json:"subtypeLabel"`
	Description   string     `json:"description"`
	Position      geo.LatLng `json:"position"`
	Images        []string   `json:"images,omitempty"`
	Known         bool       `json:"known"`
}

// Scene is the input to Compose.
type Scene struct {
	Map        model.GameMapMeta
	Markers    []model.Marker
	Visible    VisibleSet
	Taxonomy   *taxonomy.Taxonomy
	Completed  CompletedSet
	Translator Translator
}

// Compose returns render records for the markers whose subtype is visible,
// in marker order. Unknown subtypes never fail: they get the default icon and
// a generic label.
func (a *Assets) Compose(s Scene) []RenderMarker {
	tx := s.Taxonomy
	if tx == nil {
		tx = taxonomy.Empty()
	}
	tr := s.Translator
	if tr == nil {
		tr = fallbackTranslator{}
	}

	markerNS := "markers/" + s.Map.Name
	out := make([]RenderMarker, 0, len(s.Markers))

	for _, m := range s.Markers {
		if s.Visible == nil || !s.Visible.Visible(m.SubtypeID) {
			continue
		}

		sub, known := tx.Subtype(m.SubtypeID)
		cat, _ := tx.CategoryForSubtype(m.SubtypeID)

		scale := sub.IconScale
		if scale <= 0 {
			scale = 1
		}
		completed := s.Completed != nil && s.Completed.Has(m.ID)
		opacity := 1.0
		if completed {
			opacity = CompletedOpacity
		}

		subtypeLabel := tr.T("common:unknownMarker", unknownLabel)
		categoryLabel := subtypeLabel
		if known {
			subName, catName := nameOr(sub.Name, sub.ID), nameOr(cat.Name, cat.ID)
			subtypeLabel = tr.T(fmt.Sprintf("types:subtypes.%s.name", subName), subName)
			categoryLabel = tr.T(fmt.Sprintf("types:categories.%s.name", catName), catName)
		}
		label := tr.T(fmt.Sprintf("%s:%s.name", markerNS, m.ID), "")
		if label == "" {
			label = subtypeLabel
		}

		categoryID := m.CategoryID
		if categoryID == "" {
			categoryID, _ = tx.CategoryOf(m.SubtypeID)
		}

		out = append(out, RenderMarker{
			ID:            m.ID,
			SubtypeID:     m.SubtypeID,
			CategoryID:    categoryID,
			IconURL:       a.IconURL(SubtypeIcon(sub, cat), s.Map),
			IconScale:     scale,
			IconSize:      IconBaseSize * scale,
			Opacity:       opacity,
			Completed:     completed,
			CanComplete:   sub.CanComplete,
			ShowTooltip:   !sub.HideTooltip,
			Label:         label,
			CategoryLabel: categoryLabel,
			SubtypeLabel:  subtypeLabel,
			Description:   tr.T(fmt.Sprintf("%s:%s.description", markerNS, m.ID), defaultDescription),
			Position:      geo.ToLatLng(m.Position),
			Images:        m.Images,
			Known:         known,
		})
	}
	return out
}

func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

type fallbackTranslator struct{}

func (fallbackTranslator) T(_, fallback string) string { return fallback }
