package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yildizm/h5view/internal/errors"
	"github.com/yildizm/h5view/internal/formatter"
	"github.com/yildizm/h5view/internal/store"
)

const defaultListWidth = 100

func newLsCommand(o *rootOptions) *cobra.Command {
	var (
		file   string
		filter string
		output string
		width  int
	)

	cmd := &cobra.Command{
		Use:   "ls --file <path>",
		Short: "List the datasets of a file",
		Long: `List every dataset of an HDF5 file with its shape, element type and units.

Examples:
  h5view ls --file model.h5
  h5view ls --file model.h5 --filter "routput dmd"
  h5view ls --file model.h5 --output json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.Newf(errors.InvalidArgument, "--file", "is required")
			}
			f, err := formatter.New(output)
			if err != nil {
				return errors.New(errors.InvalidArgument, "--output", err)
			}
			cfg, err := o.config()
			if err != nil {
				return err
			}
			log := o.consoleLogger(cfg)

			st, err := store.Open(cmd.Context(), file, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					log.Warn("failed to close %s: %v", file, err)
				}
			}()

			catalog, err := st.Catalog().Restrict(cfg.Catalog.Include, cfg.Catalog.Exclude)
			if err != nil {
				return errors.New(errors.InvalidArgument, "catalog patterns", err)
			}
			if width <= 0 {
				width = outputWidth(cmd.OutOrStdout())
			}
			data, err := f.Format(&formatter.Listing{
				File:     file,
				Total:    catalog.Len(),
				Datasets: catalog.Filter(filter, cfg.Catalog.Fuzzy),
				Width:    width,
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "HDF5 file to list (required)")
	cmd.Flags().StringVarP(&filter, "filter", "q", "", "only datasets matching the query")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json, csv, markdown, tree)")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "table width (default: terminal width)")

	return cmd
}

// outputWidth is the terminal width when out is a terminal.
func outputWidth(out io.Writer) int {
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return defaultListWidth
}
