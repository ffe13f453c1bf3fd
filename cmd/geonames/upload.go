package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/addrsplit/pkg/formatting"
	"github.com/JaimeStill/addrsplit/pkg/storage"
)

var storageEnv = &storage.Env{
	ContainerName:    "ADDRSPLIT_STORAGE_CONTAINER_NAME",
	ConnectionString: "ADDRSPLIT_STORAGE_CONNECTION_STRING",
	AccountURL:       "ADDRSPLIT_STORAGE_ACCOUNT_URL",
}

func uploadCmd() *cobra.Command {
	var (
		file string
		key  string
		cfg  storage.Config
	)

	cmd := &cobra.Command{
		Use:     "upload",
		Short:   "Push a dump to blob storage",
		Example: "  geonames upload --file cities15000.txt --key geonames/cities15000.txt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Finalize(storageEnv); err != nil {
				return fmt.Errorf("storage: %w", err)
			}
			if key == "" {
				key = path.Join("geonames", filepath.Base(file))
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			store, err := storage.New(&cfg, logger)
			if err != nil {
				return err
			}

			src, err := openTracked(file, "uploading")
			if err != nil {
				return err
			}
			defer src.Close()

			err = upload(cmd, store, key, src)
			src.finish()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%s) to %s/%s\n",
				file, formatting.FormatBytes(src.size, 1), cfg.ContainerName, key)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "local dump to upload")
	cmd.Flags().StringVar(&key, "key", "", "blob key (default geonames/<file name>)")
	cmd.Flags().StringVar(&cfg.ContainerName, "container", "", "blob container (default $ADDRSPLIT_STORAGE_CONTAINER_NAME or geonames)")
	cmd.Flags().StringVar(&cfg.ConnectionString, "connection-string", "", "storage connection string")
	cmd.Flags().StringVar(&cfg.AccountURL, "account-url", "", "storage account URL for credential-chain auth")
	cmd.MarkFlagRequired("file")
	return cmd
}

func upload(cmd *cobra.Command, store storage.System, key string, r io.Reader) error {
	return store.Upload(cmd.Context(), key, r, "text/tab-separated-values")
}
