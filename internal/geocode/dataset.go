// Package geocode resolves coordinates for (country, postcode, city) triples
// from an offline GeoNames reference dataset. The dataset is built once and
// is read-only afterwards, so concurrent resolutions need no locking.
package geocode

import (
	"sort"
	"strings"
)

// Postcode is the centroid of one postal code.
type Postcode struct {
	Country string  `json:"country_code"`
	Code    string  `json:"postcode"`
	Place   string  `json:"place"`
	Admin1  string  `json:"admin1,omitempty"`
	Lat     float64 `json:"latitude"`
	Lon     float64 `json:"longitude"`
}

// City is one GeoNames populated place.
type City struct {
	ID         string  `json:"geonameid"`
	Country    string  `json:"country_code"`
	Name       string  `json:"name"`
	Admin1     string  `json:"admin1,omitempty"`
	Lat        float64 `json:"latitude"`
	Lon        float64 `json:"longitude"`
	Population int64   `json:"population"`
}

// Stats counts what a load kept and skipped.
type Stats struct {
	PostalRows  int `json:"postal_rows"`
	Postcodes   int `json:"postcodes"`
	Cities      int `json:"cities"`
	CityKeys    int `json:"city_keys"`
	SkippedRows int `json:"skipped_rows"`
}

// Dataset is the immutable reference index.
type Dataset struct {
	postcodes map[string]Postcode
	cities    map[string][]City
	places    map[string][]string
	byCountry map[string][]Postcode
	stats     Stats
}

// Stats returns load counters.
func (d *Dataset) Stats() Stats {
	return d.stats
}

func scoped(country, key string) string {
	return strings.ToUpper(strings.TrimSpace(country)) + "|" + key
}

func compactPostcode(code string) string {
	return strings.ReplaceAll(PostcodeKey(code), " ", "")
}

type postcodeAcc struct {
	code, place, admin1 string
	places              map[string]bool
	latSum, lonSum      float64
	n                   int
}

// Builder accumulates GeoNames rows into a Dataset.
type Builder struct {
	postcodes map[string]*postcodeAcc
	cities    map[string][]City
	cityIDs   map[string]map[string]bool
	stats     Stats
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		postcodes: make(map[string]*postcodeAcc),
		cities:    make(map[string][]City),
		cityIDs:   make(map[string]map[string]bool),
	}
}

// AddPostcode records one postal row. Rows sharing a code collapse into
// their mean centroid labelled with the smallest place name.
func (b *Builder) AddPostcode(country, code, place, admin1 string, lat, lon float64) {
	b.stats.PostalRows++
	key := scoped(country, compactPostcode(code))

	acc, ok := b.postcodes[key]
	if !ok {
		acc = &postcodeAcc{code: PostcodeKey(code), place: place, admin1: admin1, places: make(map[string]bool)}
		b.postcodes[key] = acc
	}
	if k := Key(place); k != "" {
		acc.places[k] = true
	}
	acc.latSum += lat
	acc.lonSum += lon
	acc.n++
	if place < acc.place {
		acc.place = place
		acc.admin1 = admin1
	}
}

// AddCity indexes c under its name and every alternate name.
func (b *Builder) AddCity(c City, names ...string) {
	b.stats.Cities++
	c.Country = strings.ToUpper(c.Country)

	for _, name := range append([]string{c.Name}, names...) {
		k := Key(name)
		if k == "" {
			continue
		}
		key := scoped(c.Country, k)
		ids, ok := b.cityIDs[key]
		if !ok {
			ids = make(map[string]bool)
			b.cityIDs[key] = ids
		}
		if ids[c.ID] {
			continue
		}
		ids[c.ID] = true
		b.cities[key] = append(b.cities[key], c)
	}
}

// Skip counts a malformed row.
func (b *Builder) Skip() {
	b.stats.SkippedRows++
}

// Build freezes the accumulated rows.
func (b *Builder) Build() *Dataset {
	d := &Dataset{
		postcodes: make(map[string]Postcode, len(b.postcodes)),
		cities:    b.cities,
		places:    make(map[string][]string),
		byCountry: make(map[string][]Postcode),
		stats:     b.stats,
	}

	for key, acc := range b.postcodes {
		country, _, _ := strings.Cut(key, "|")
		p := Postcode{
			Country: country,
			Code:    acc.code,
			Place:   acc.place,
			Admin1:  acc.admin1,
			Lat:     acc.latSum / float64(acc.n),
			Lon:     acc.lonSum / float64(acc.n),
		}
		d.postcodes[key] = p
		d.byCountry[country] = append(d.byCountry[country], p)

		for pk := range acc.places {
			placeKey := scoped(country, pk)
			d.places[placeKey] = append(d.places[placeKey], key)
		}
	}

	for _, list := range d.byCountry {
		sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	}
	for _, keys := range d.places {
		sort.Strings(keys)
	}

	d.stats.Postcodes = len(d.postcodes)
	d.stats.CityKeys = len(d.cities)
	return d
}
