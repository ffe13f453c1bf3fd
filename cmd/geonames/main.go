// Command geonames prepares the GeoNames dumps the geocode resolver loads:
// it filters full dumps down to a country set, uploads them to blob storage,
// and resolves single lookups against a local copy.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "geonames",
	Short:        "Prepare and inspect GeoNames dumps for addrsplit",
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(filterCmd(), uploadCmd(), resolveCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
