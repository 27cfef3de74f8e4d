// Package urlstate reflects the selected map into a shareable URL.
package urlstate

import (
	"net/url"

	"github.com/gamemaps/viewer/internal/model"
)

// MapParam is the query parameter carrying the selected map id.
const MapParam = "map"

// SelectedMap returns the map named by rawURL's query when it is loaded, else
// the first map, else "".
func SelectedMap(rawURL string, maps []model.GameMapMeta) string {
	if u, err := url.Parse(rawURL); err == nil {
		if id := u.Query().Get(MapParam); id != "" {
			for _, m := range maps {
				if m.ID == id {
					return id
				}
			}
		}
	}
	if len(maps) > 0 {
		return maps[0].ID
	}
	return ""
}

// WithSelectedMap returns rawURL with the map parameter set to id, or removed
// when id is empty. Other parameters are kept.
func WithSelectedMap(rawURL, id string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if id == "" {
		q.Del(MapParam)
	} else {
		q.Set(MapParam, id)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
