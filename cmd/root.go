package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markb/raql/internal/catalog"
	"github.com/markb/raql/internal/syntax"
)

// Version information set via ldflags at build time
var (
	Version   = "dev"
	BuildTime = ""
	GitCommit = ""
)

var rootCmd = &cobra.Command{
	Use:     "raql",
	Short:   "raql - relational algebra translator",
	Long:    `Translates relational algebra statements into LaTeX formulas, parse-tree structures, and SQL.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate("raql version {{.Version}}\n")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSyntax builds the symbol table from the shared --syntax and
// --glyphs flags.
func loadSyntax(cmd *cobra.Command) (*syntax.SymbolTable, error) {
	path, _ := cmd.Flags().GetString("syntax")
	glyphs, _ := cmd.Flags().GetBool("glyphs")
	if path != "" {
		return syntax.Load(path)
	}
	if glyphs {
		return syntax.Glyphs(), nil
	}
	return syntax.Default(), nil
}

// loadCatalog reads the relation catalog named by the --catalog flag.
func loadCatalog(cmd *cobra.Command) (catalog.Catalog, error) {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		return nil, fmt.Errorf("a catalog is required; pass --catalog <file>")
	}
	return catalog.Load(path)
}
