package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/addrsplit/internal/geocode"
	"github.com/JaimeStill/addrsplit/pkg/formatting"
)

// Country column of each dump kind.
var countryColumn = map[string]int{
	"postal": 0,
	"cities": 8,
}

func filterCmd() *cobra.Command {
	var (
		countries string
		in        string
		out       string
		kind      string
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Keep only the rows of the given countries",
		Example: "  geonames filter --countries CH,FR --in allCountries.txt --out ch_fr.txt\n" +
			"  geonames filter --kind cities --countries CH --in cities15000.txt --out cities_ch.txt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			col, ok := countryColumn[kind]
			if !ok {
				return fmt.Errorf("unknown kind %q (postal or cities)", kind)
			}
			allow := countrySet(countries)
			if len(allow) == 0 {
				return fmt.Errorf("--countries required")
			}

			src, err := openTracked(in, "filtering")
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := os.Create(out)
			if err != nil {
				return err
			}
			defer dst.Close()

			kept, total, err := filterRows(cmd.Context(), src, dst, col, allow)
			src.finish()
			if err != nil {
				return err
			}
			var written int64
			if info, err := dst.Stat(); err == nil {
				written = info.Size()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kept %d of %d rows, %s -> %s\n", kept, total,
				formatting.FormatBytes(src.size, 1), formatting.FormatBytes(written, 1))
			return nil
		},
	}

	cmd.Flags().StringVar(&countries, "countries", "", "comma-separated ISO 3166-1 alpha-2 codes")
	cmd.Flags().StringVar(&in, "in", "", "input dump")
	cmd.Flags().StringVar(&out, "out", "", "output file")
	cmd.Flags().StringVar(&kind, "kind", "postal", "dump layout: postal or cities")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}

func countrySet(list string) map[string]bool {
	set := make(map[string]bool)
	for c := range strings.SplitSeq(list, ",") {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			set[c] = true
		}
	}
	return set
}

// filterRows copies the rows of r whose country column is in allow.
func filterRows(ctx context.Context, r io.Reader, w io.Writer, col int, allow map[string]bool) (kept, total int, err error) {
	bw := bufio.NewWriter(w)
	err = geocode.EachRow(ctx, r, func(cols []string) error {
		total++
		if col >= len(cols) || !allow[strings.ToUpper(cols[col])] {
			return nil
		}
		kept++
		_, err := bw.WriteString(strings.Join(cols, "\t") + "\n")
		return err
	})
	if err != nil {
		return kept, total, err
	}
	return kept, total, bw.Flush()
}
