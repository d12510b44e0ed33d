package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/markb/raql/internal/log"
	"github.com/markb/raql/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the translation server",
	Long:  `Starts the HTTP server that translates relational algebra statements.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		logLevel, _ := cmd.Flags().GetString("log-level")
		logFormat, _ := cmd.Flags().GetString("log-format")

		log.Init(&log.Config{Level: logLevel, Format: logFormat})

		st, err := loadSyntax(cmd)
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{Syntax: st, Catalog: cat})
		addr := fmt.Sprintf("%s:%d", host, port)
		slog.Info("starting raql server", "addr", addr, "relations", len(cat))

		return srv.ListenAndServe(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("catalog", "", "path to the relation catalog (YAML)")
	serveCmd.Flags().String("syntax", "", "path to a syntax override file (YAML)")
	serveCmd.Flags().Bool("glyphs", false, "use the formal glyph syntax (σ, π, ⋈, ...)")
	serveCmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
	serveCmd.Flags().String("log-format", "text", "log format: text or json")
}
