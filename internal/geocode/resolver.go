package geocode

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JaimeStill/addrsplit/internal/address"
)

// Match is the outcome of a resolution. Found is false when nothing matched,
// which is a valid terminal state rather than an error.
type Match struct {
	Found    bool                `json:"found"`
	Lat      float64             `json:"latitude,omitempty"`
	Lon      float64             `json:"longitude,omitempty"`
	Accuracy address.GeoAccuracy `json:"geo_accuracy"`
	Label    string              `json:"match_label,omitempty"`
	Postcode string              `json:"postcode,omitempty"`
	CityID   string              `json:"geonameid,omitempty"`
}

// Resolver looks up coordinates in a Dataset.
type Resolver struct {
	data *Dataset
}

// NewResolver wraps d. A nil dataset resolves nothing.
func NewResolver(d *Dataset) *Resolver {
	if d == nil {
		d = NewBuilder().Build()
	}
	return &Resolver{data: d}
}

// Dataset returns the underlying dataset.
func (r *Resolver) Dataset() *Dataset {
	return r.data
}

// Resolve tries the postcode first, then the city name, then the place
// names attached to postcodes. A postcode miss falls through to the city.
func (r *Resolver) Resolve(country, postcode, city string) Match {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return Match{Accuracy: address.AccuracyNone}
	}

	if code := compactPostcode(postcode); code != "" {
		if p, ok := r.data.postcodes[scoped(country, code)]; ok {
			return Match{
				Found:    true,
				Lat:      p.Lat,
				Lon:      p.Lon,
				Accuracy: address.AccuracyPostcode,
				Label:    strings.TrimSpace(p.Code + " " + p.Place),
				Postcode: p.Code,
			}
		}
	}

	key := Key(city)
	if key == "" {
		return Match{Accuracy: address.AccuracyNone}
	}

	if c, ok := best(r.data.cities[scoped(country, key)]); ok {
		label := c.Name
		if c.Admin1 != "" {
			label = fmt.Sprintf("%s, %s", c.Name, c.Admin1)
		}
		return Match{
			Found:    true,
			Lat:      c.Lat,
			Lon:      c.Lon,
			Accuracy: address.AccuracyCity,
			Label:    label,
			CityID:   c.ID,
		}
	}

	if keys := r.data.places[scoped(country, key)]; len(keys) > 0 {
		var lat, lon float64
		label := ""
		for _, k := range keys {
			p := r.data.postcodes[k]
			lat += p.Lat
			lon += p.Lon
			if label == "" || p.Place < label {
				label = p.Place
			}
		}
		n := float64(len(keys))
		return Match{
			Found:    true,
			Lat:      lat / n,
			Lon:      lon / n,
			Accuracy: address.AccuracyCity,
			Label:    label,
		}
	}

	return Match{Accuracy: address.AccuracyNone}
}

// best picks the most populous city; ties go to the smallest GeoNames id.
func best(cities []City) (City, bool) {
	if len(cities) == 0 {
		return City{}, false
	}
	sorted := make([]City, len(cities))
	copy(sorted, cities)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Population != sorted[j].Population {
			return sorted[i].Population > sorted[j].Population
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0], true
}

// InferPostcode returns the country's postcode whose centroid is nearest to
// (lat, lon) by Euclidean distance on degrees. Ties go to the smallest code.
func (r *Resolver) InferPostcode(country string, lat, lon float64) (Postcode, bool) {
	list := r.data.byCountry[strings.ToUpper(strings.TrimSpace(country))]
	if len(list) == 0 {
		return Postcode{}, false
	}

	bestIdx, bestDist := -1, 0.0
	for i, p := range list {
		dLat, dLon := p.Lat-lat, p.Lon-lon
		d := dLat*dLat + dLon*dLon
		if bestIdx < 0 || d < bestDist {
			bestIdx, bestDist = i, d
		}
	}
	return list[bestIdx], true
}

// Apply writes m onto n, setting the point and label or clearing them.
func Apply(n *address.Normalized, m Match) {
	if !m.Found {
		n.ClearPoint()
		return
	}
	n.SetPoint(m.Lat, m.Lon, m.Accuracy, Cell(m.Lat, m.Lon))
	n.MatchLabel = m.Label
}
