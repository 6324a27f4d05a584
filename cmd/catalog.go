package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/scorer"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the attribute catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the attribute catalog and scoring weights",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("path")
		if path != "" {
			cfg.Catalog.Path = path
		}

		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		if _, err := scorer.FromConfig(cfg.Scoring); err != nil {
			return err
		}

		formatCatalog(os.Stdout, cat)
		return nil
	},
}

func init() {
	catalogValidateCmd.Flags().String("path", "", "catalog file (.yaml or .xlsx); default is catalog.path or the built-in catalog")
	catalogCmd.AddCommand(catalogValidateCmd)
	rootCmd.AddCommand(catalogCmd)
}

// formatCatalog writes a tabular listing of the catalog to out.
func formatCatalog(out io.Writer, cat *catalog.Catalog) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tUNIT\tSECTION\tREQUIRED\tSYNONYMS")
	_, _ = fmt.Fprintln(w, "----\t----\t-------\t--------\t--------")
	for _, a := range cat.Attributes() {
		req := ""
		if a.Required {
			req = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.Name, a.ExpectedUnit, a.ExpectedSection, req, strings.Join(a.Synonyms, ", "))
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "%d attributes OK\n", cat.Len())
}
