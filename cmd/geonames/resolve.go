package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/addrsplit/internal/geocode"
)

func resolveCmd() *cobra.Command {
	var (
		dir      string
		postal   string
		cities   string
		country  string
		postcode string
		city     string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:     "resolve",
		Short:   "Resolve a postcode and city against a local dataset",
		Example: "  geonames resolve --dir data/geonames --country CH --postcode 1204 --city Genève",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			if verbose {
				logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
			}

			dataset, err := geocode.Load(cmd.Context(), geocode.DirSource(dir), geocode.Options{
				PostalFile: postal,
				CitiesFile: cities,
				Countries:  []string{country},
			}, logger)
			if err != nil {
				return err
			}

			match := geocode.NewResolver(dataset).Resolve(country, postcode, city)
			out := struct {
				geocode.Match
				Cell string `json:"cell,omitempty"`
			}{Match: match}
			if match.Found {
				out.Cell = geocode.Cell(match.Lat, match.Lon)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "data/geonames", "directory holding the dumps")
	cmd.Flags().StringVar(&postal, "postal-file", "allCountries.txt", "postal codes dump")
	cmd.Flags().StringVar(&cities, "cities-file", "cities15000.txt", "cities dump")
	cmd.Flags().StringVar(&country, "country", "", "ISO 3166-1 alpha-2 code")
	cmd.Flags().StringVar(&postcode, "postcode", "", "postcode to look up")
	cmd.Flags().StringVar(&city, "city", "", "city name to look up")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log dataset statistics")
	cmd.MarkFlagRequired("country")
	return cmd
}
