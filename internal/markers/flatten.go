// Package markers turns per-map marker documents into flat marker lists.
//
// Two document schemas exist, selected by the top-level "version" field:
//
//	version 1 (or absent): category -> subtype -> markerId -> {position: [x, y], images: [...]}
//	version 2:             {markers: [{id, subtype, x, y, images}]}
package markers

import (
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/gamemaps/viewer/internal/model"
)

const (
	VersionNested = 1
	VersionFlat   = 2

	versionKey = "version"
)

// ErrUnsupportedVersion is returned for documents with an unknown schema version.
var ErrUnsupportedVersion = errors.New("unsupported marker document version")

// CategoryResolver maps a subtype id to its owning category id.
type CategoryResolver interface {
	CategoryOf(subtypeID string) (string, bool)
}

type nestedRecord struct {
	Position []float64 `yaml:"position"`
	Images   []string  `yaml:"images"`
}

type flatRecord struct {
	ID      string   `yaml:"id"`
	Subtype string   `yaml:"subtype"`
	X       *float64 `yaml:"x"`
	Y       *float64 `yaml:"y"`
	Images  []string `yaml:"images"`
}

type flatDocument struct {
	Markers []flatRecord `yaml:"markers"`
}

// Parse decodes raw YAML and flattens it.
func Parse(data []byte, resolver CategoryResolver) ([]model.Marker, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse marker document: %w", err)
	}
	return Flatten(&doc, resolver)
}

// Flatten converts a decoded marker document into markers, in document order.
// resolver may be nil; flat records then carry no category.
func Flatten(doc *yaml.Node, resolver CategoryResolver) ([]model.Marker, error) {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return []model.Marker{}, nil
		}
		root = root.Content[0]
	}
	if root.Kind == 0 || (root.Kind == yaml.ScalarNode && root.Tag == "!!null") {
		return []model.Marker{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("marker document must be a mapping, got %s", kindName(root.Kind))
	}

	version, err := documentVersion(root)
	if err != nil {
		return nil, err
	}

	switch version {
	case VersionNested:
		return flattenNested(root), nil
	case VersionFlat:
		return flattenFlat(root, resolver)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

func documentVersion(root *yaml.Node) (int, error) {
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != versionKey {
			continue
		}
		v, err := strconv.Atoi(root.Content[i+1].Value)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, root.Content[i+1].Value)
		}
		return v, nil
	}
	return VersionNested, nil
}

func flattenNested(root *yaml.Node) []model.Marker {
	result := []model.Marker{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		categoryID, categoryNode := root.Content[i].Value, root.Content[i+1]
		if categoryID == versionKey || categoryNode.Kind != yaml.MappingNode {
			continue
		}

		for j := 0; j+1 < len(categoryNode.Content); j += 2 {
			subtypeID, subtypeNode := categoryNode.Content[j].Value, categoryNode.Content[j+1]
			if subtypeNode.Kind != yaml.MappingNode {
				continue
			}

			for k := 0; k+1 < len(subtypeNode.Content); k += 2 {
				markerID, markerNode := subtypeNode.Content[k].Value, subtypeNode.Content[k+1]
				if markerNode.Kind != yaml.MappingNode {
					continue
				}
				var rec nestedRecord
				if err := markerNode.Decode(&rec); err != nil || len(rec.Position) != 2 {
					continue
				}
				result = append(result, model.Marker{
					ID:         markerID,
					CategoryID: categoryID,
					SubtypeID:  subtypeID,
					Position:   model.Point{X: rec.Position[0], Y: rec.Position[1]},
					Images:     rec.Images,
				})
			}
		}
	}
	return result
}

func flattenFlat(root *yaml.Node, resolver CategoryResolver) ([]model.Marker, error) {
	var doc flatDocument
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode marker list: %w", err)
	}

	result := make([]model.Marker, 0, len(doc.Markers))
	for _, rec := range doc.Markers {
		if rec.X == nil || rec.Y == nil {
			continue
		}
		m := model.Marker{
			ID:        rec.ID,
			SubtypeID: rec.Subtype,
			Position:  model.Point{X: *rec.X, Y: *rec.Y},
			Images:    rec.Images,
		}
		if resolver != nil {
			m.CategoryID, _ = resolver.CategoryOf(rec.Subtype)
		}
		result = append(result, m)
	}
	return result, nil
}

// Group regroups markers as category -> subtype -> id -> position.
func Group(markers []model.Marker) map[string]map[string]map[string]model.Point {
	out := make(map[string]map[string]map[string]model.Point)
	for _, m := range markers {
		subtypes, ok := out[m.CategoryID]
		if !ok {
			subtypes = make(map[string]map[string]model.Point)
			out[m.CategoryID] = subtypes
		}
		ids, ok := subtypes[m.SubtypeID]
		if !ok {
			ids = make(map[string]model.Point)
			subtypes[m.SubtypeID] = ids
		}
		ids[m.ID] = m.Position
	}
	return out
}

// CountBySubtype returns how many markers each subtype has.
func CountBySubtype(markers []model.Marker) map[string]int {
	counts := make(map[string]int)
	for _, m := range markers {
		counts[m.SubtypeID]++
	}
	return counts
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
