package geocode_test

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/geocode"
)

func loadTestdata(t *testing.T, countries ...string) *geocode.Dataset {
	t.Helper()
	d, err := geocode.Load(context.Background(), geocode.DirSource("testdata"), geocode.Options{
		PostalFile: "postal.txt",
		CitiesFile: "cities.txt",
		Countries:  countries,
	}, slog.Default())
	require.NoError(t, err)
	return d
}

func TestKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Genève", "geneve"},
		{"  GENEVE. ", "geneve"},
		{"Zürich", "zurich"},
		{"Straße", "strasse"},
		{"Łódź", "lodz"},
		{"Saint-Louis", "saint louis"},
		{"Ærøskøbing", "aeroskobing"},
		{"St. Gallen", "st gallen"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, geocode.Key(tt.input))
		})
	}
}

func TestLoad(t *testing.T) {
	stats := loadTestdata(t).Stats()

	assert.Equal(t, 9, stats.Postcodes)
	assert.Equal(t, 7, stats.Cities)
	assert.Equal(t, 3, stats.SkippedRows)
}

func TestLoadCountryFilter(t *testing.T) {
	stats := loadTestdata(t, "fr").Stats()

	assert.Equal(t, 2, stats.Postcodes)
	assert.Equal(t, 0, stats.Cities)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := geocode.Load(context.Background(), geocode.DirSource("testdata"), geocode.Options{
		PostalFile: "absent.txt",
	}, slog.Default())
	assert.ErrorIs(t, err, geocode.ErrMissingDump)
}

func TestResolve(t *testing.T) {
	r := geocode.NewResolver(loadTestdata(t))

	tests := []struct {
		name         string
		country      string
		postcode     string
		city         string
		wantFound    bool
		wantAccuracy address.GeoAccuracy
		wantLat      float64
		wantLabel    string
		wantCityID   string
	}{
		{
			name: "postcode centroid is the mean of its rows", country: "CH", postcode: "1204",
			wantFound: true, wantAccuracy: address.AccuracyPostcode, wantLat: 46.2021, wantLabel: "1204 Genève",
		},
		{
			name: "postcode ignores spacing and case", country: "gb", postcode: "sw1a2aa",
			wantFound: true, wantAccuracy: address.AccuracyPostcode, wantLat: 51.5035, wantLabel: "SW1A 2AA London",
		},
		{
			name: "city by name", country: "CH", city: "Genève",
			wantFound: true, wantAccuracy: address.AccuracyCity, wantLat: 46.20222, wantCityID: "2660646",
		},
		{
			name: "city by alternate name", country: "CH", city: "Genf",
			wantFound: true, wantAccuracy: address.AccuracyCity, wantLat: 46.20222, wantCityID: "2660646",
		},
		{
			name: "postcode miss falls back to city", country: "CH", postcode: "9000", city: "Zurich",
			wantFound: true, wantAccuracy: address.AccuracyCity, wantLat: 47.36667, wantCityID: "2657896",
		},
		{
			name: "highest population wins", country: "US", city: "Portland",
			wantFound: true, wantAccuracy: address.AccuracyCity, wantLat: 45.52345, wantCityID: "5746545",
		},
		{
			name: "population tie goes to smallest id", country: "US", city: "springfield",
			wantFound: true, wantAccuracy: address.AccuracyCity, wantLat: 37.21533, wantCityID: "4409896",
		},
		{
			name: "place index fallback", country: "CH", city: "Carouge GE",
			wantFound: true, wantAccuracy: address.AccuracyCity, wantLat: 46.1817, wantLabel: "Carouge GE",
		},
		{
			name: "unknown city", country: "CH", city: "Atlantis",
			wantAccuracy: address.AccuracyNone,
		},
		{
			name: "postcode miss without city", country: "CH", postcode: "9000",
			wantAccuracy: address.AccuracyNone,
		},
		{
			name: "no country", postcode: "1204", city: "Genève",
			wantAccuracy: address.AccuracyNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.Resolve(tt.country, tt.postcode, tt.city)
			assert.Equal(t, tt.wantFound, m.Found)
			assert.Equal(t, tt.wantAccuracy, m.Accuracy)
			if !tt.wantFound {
				return
			}
			assert.InDelta(t, tt.wantLat, m.Lat, 1e-9)
			if tt.wantLabel != "" {
				assert.Equal(t, tt.wantLabel, m.Label)
			}
			if tt.wantCityID != "" {
				assert.Equal(t, tt.wantCityID, m.CityID)
			}
		})
	}
}

func TestResolveAccentAndCaseInsensitive(t *testing.T) {
	r := geocode.NewResolver(loadTestdata(t))

	a := r.Resolve("CH", "", "Genève")
	b := r.Resolve("ch", "", "geneve")
	assert.Equal(t, a, b)
	assert.True(t, a.Found)
}

func TestResolveIdempotent(t *testing.T) {
	r := geocode.NewResolver(loadTestdata(t))

	for _, q := range [][3]string{{"US", "", "Springfield"}, {"CH", "1204", ""}, {"CH", "", "Carouge GE"}} {
		first := r.Resolve(q[0], q[1], q[2])
		for range 5 {
			assert.Equal(t, first, r.Resolve(q[0], q[1], q[2]))
		}
	}
}

func TestInferPostcode(t *testing.T) {
	r := geocode.NewResolver(loadTestdata(t))

	p, ok := r.InferPostcode("CH", 46.20222, 6.14569)
	require.True(t, ok)
	assert.Equal(t, "1204", p.Code)

	_, ok = r.InferPostcode("DE", 52.5, 13.4)
	assert.False(t, ok)
}

func TestInferPostcodeTieBreak(t *testing.T) {
	b := geocode.NewBuilder()
	b.AddPostcode("NL", "2000", "B", "", 0, 1)
	b.AddPostcode("NL", "1000", "A", "", 0, -1)
	r := geocode.NewResolver(b.Build())

	p, ok := r.InferPostcode("NL", 0, 0)
	require.True(t, ok)
	assert.Equal(t, "1000", p.Code)
}

func TestNilDataset(t *testing.T) {
	r := geocode.NewResolver(nil)
	assert.False(t, r.Resolve("CH", "1204", "Genève").Found)
}

func TestCellAndApply(t *testing.T) {
	cell := geocode.Cell(46.2021, 6.1476)
	assert.Len(t, cell, 15)
	assert.True(t, strings.HasPrefix(cell, "8"))
	assert.Equal(t, "", geocode.Cell(math.NaN(), 0))

	var n address.Normalized
	geocode.Apply(&n, geocode.Match{Found: true, Lat: 46.2021, Lon: 6.1476, Accuracy: address.AccuracyPostcode, Label: "1204 Genève"})
	assert.True(t, n.HasPoint())
	assert.Equal(t, cell, n.Cell)
	assert.Equal(t, "1204 Genève", n.MatchLabel)

	geocode.Apply(&n, geocode.Match{Accuracy: address.AccuracyNone})
	assert.False(t, n.HasPoint())
	assert.Equal(t, address.AccuracyNone, n.GeoAccuracy)
}
