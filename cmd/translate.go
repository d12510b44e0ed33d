package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markb/raql/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [statement]",
	Short: "Translate relational algebra statements",
	Long: `Translates one or more semicolon-separated relational algebra
statements against a catalog. The statement is taken from the argument,
or from stdin when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadSyntax(cmd)
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		var input string
		if len(args) == 1 {
			input = args[0]
		} else {
			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			input = string(raw)
		}
		if strings.TrimSpace(input) == "" {
			return fmt.Errorf("no statement given")
		}

		var opts []translate.Option
		if bag, _ := cmd.Flags().GetBool("bag"); bag {
			opts = append(opts, translate.WithBagSemantics())
		}
		results, err := translate.TranslateAll(input, st, cat, opts...)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		return printResults(cmd.OutOrStdout(), results, format)
	},
}

func printResults(w io.Writer, results []*translate.Result, format string) error {
	for _, result := range results {
		for _, warning := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
		}
		switch format {
		case "latex":
			fmt.Fprintln(w, result.Latex)
		case "sql":
			fmt.Fprintln(w, result.SQL)
		case "tree":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result.Tree); err != nil {
				return err
			}
		case "all":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q; use latex, tree, sql, or all", format)
		}
	}
	return nil
}

func init() {
	translateCmd.Flags().String("catalog", "", "path to the relation catalog (YAML)")
	translateCmd.Flags().String("syntax", "", "path to a syntax override file (YAML)")
	translateCmd.Flags().Bool("glyphs", false, "use the formal glyph syntax (σ, π, ⋈, ...)")
	translateCmd.Flags().Bool("bag", false, "emit SQL with bag semantics (ALL set operators)")
	translateCmd.Flags().StringP("format", "f", "all", "output format: latex, tree, sql, or all")
	rootCmd.AddCommand(translateCmd)
}
