package geocode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// GeoNames column positions.
const (
	postalCountry = 0
	postalCode    = 1
	postalPlace   = 2
	postalAdmin1  = 3
	postalLat     = 9
	postalLon     = 10
	postalColumns = 11

	cityID         = 0
	cityName       = 1
	cityASCII      = 2
	cityAlternates = 3
	cityLat        = 4
	cityLon        = 5
	cityCountry    = 8
	cityAdmin1     = 10
	cityPopulation = 14
	cityColumns    = 15
)

const maxLine = 1 << 20

// Options selects the dump files and an optional country allow-list.
// An empty file name skips that table.
type Options struct {
	PostalFile string
	CitiesFile string
	Countries  []string
}

func (o Options) allowed() func(string) bool {
	if len(o.Countries) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(o.Countries))
	for _, c := range o.Countries {
		set[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	return func(cc string) bool { return set[cc] }
}

type postalRow struct {
	country, code, place, admin1 string
	lat, lon                     float64
}

type cityRow struct {
	city  City
	names []string
}

// Load reads the postal and cities dumps concurrently and builds a Dataset.
// Malformed rows are skipped and counted.
func Load(ctx context.Context, src Source, opts Options, logger *slog.Logger) (*Dataset, error) {
	start := time.Now()
	allow := opts.allowed()

	var postal []postalRow
	var cities []cityRow
	var postalSkipped, citySkipped int

	g, gctx := errgroup.WithContext(ctx)

	if opts.PostalFile != "" {
		g.Go(func() error {
			var err error
			postal, postalSkipped, err = readPostal(gctx, src, opts.PostalFile, allow)
			return err
		})
	}
	if opts.CitiesFile != "" {
		g.Go(func() error {
			var err error
			cities, citySkipped, err = readCities(gctx, src, opts.CitiesFile, allow)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := NewBuilder()
	for _, r := range postal {
		b.AddPostcode(r.country, r.code, r.place, r.admin1, r.lat, r.lon)
	}
	for _, r := range cities {
		b.AddCity(r.city, r.names...)
	}
	for range postalSkipped + citySkipped {
		b.Skip()
	}

	d := b.Build()
	stats := d.Stats()
	logger.Info("geonames dataset loaded",
		"postcodes", stats.Postcodes,
		"cities", stats.Cities,
		"skipped", stats.SkippedRows,
		"duration", time.Since(start),
	)
	return d, nil
}

// EachRow calls fn with the tab-separated columns of every line in r.
func EachRow(ctx context.Context, r io.Reader, fn func(cols []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	n := 0
	for scanner.Scan() {
		n++
		if n%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(strings.Split(line, "\t")); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func readPostal(ctx context.Context, src Source, name string, allow func(string) bool) ([]postalRow, int, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	var rows []postalRow
	skipped := 0
	err = EachRow(ctx, rc, func(cols []string) error {
		if len(cols) < postalColumns {
			skipped++
			return nil
		}
		cc := strings.ToUpper(strings.TrimSpace(cols[postalCountry]))
		if !allow(cc) {
			return nil
		}
		code := strings.TrimSpace(cols[postalCode])
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(cols[postalLat]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(cols[postalLon]), 64)
		if cc == "" || code == "" || errLat != nil || errLon != nil {
			skipped++
			return nil
		}
		rows = append(rows, postalRow{
			country: cc,
			code:    code,
			place:   strings.TrimSpace(cols[postalPlace]),
			admin1:  strings.TrimSpace(cols[postalAdmin1]),
			lat:     lat,
			lon:     lon,
		})
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", name, err)
	}
	return rows, skipped, nil
}

func readCities(ctx context.Context, src Source, name string, allow func(string) bool) ([]cityRow, int, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	var rows []cityRow
	skipped := 0
	err = EachRow(ctx, rc, func(cols []string) error {
		if len(cols) < cityColumns {
			skipped++
			return nil
		}
		cc := strings.ToUpper(strings.TrimSpace(cols[cityCountry]))
		if !allow(cc) {
			return nil
		}
		id := strings.TrimSpace(cols[cityID])
		label := strings.TrimSpace(cols[cityName])
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(cols[cityLat]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(cols[cityLon]), 64)
		if cc == "" || id == "" || label == "" || errLat != nil || errLon != nil {
			skipped++
			return nil
		}
		pop, err := strconv.ParseInt(strings.TrimSpace(cols[cityPopulation]), 10, 64)
		if err != nil {
			pop = 0
		}

		names := []string{cols[cityASCII]}
		if alt := strings.TrimSpace(cols[cityAlternates]); alt != "" {
			names = append(names, strings.Split(alt, ",")...)
		}

		rows = append(rows, cityRow{
			city: City{
				ID:         id,
				Country:    cc,
				Name:       label,
				Admin1:     strings.TrimSpace(cols[cityAdmin1]),
				Lat:        lat,
				Lon:        lon,
				Population: pop,
			},
			names: names,
		})
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", name, err)
	}
	return rows, skipped, nil
}
