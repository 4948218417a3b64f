// Package cli is the operator command line: worker, ingest, job lookups, rules and the MCP server.
package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/akolanti/smartsort/internal/app"
	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "smartsort",
	Short: "Document ingest and classification pipeline",
	Long: `smartsort hashes documents dropped in the inbox, extracts and chunks their text,
embeds the chunks and classifies each document by rules or a language model.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("SS_CONFIG"), "path to a yaml config file")
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// logs go to stderr so stdout stays usable for JSON output and the MCP stdio transport
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	logger_i.InitWriter(cmd.ErrOrStderr(), loaded.LogLevel, loaded.IsProd())
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func withApp(cmd *cobra.Command, run func(a *app.App) error) error {
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return run(a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
