package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mixingo/mixingo/internal/config"
	"github.com/mixingo/mixingo/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mixingo",
	Short: "Warm-up signals and curriculum transfer maps for language learners",
	Long: "Mixingo scores a learner's warm-up quiz, derives a per-module risk heatmap and asks an LLM\n" +
		"for a personalised curriculum transfer map, falling back to canned payloads when the LLM is unavailable.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MIXINGO_DB env var)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a .toml or .yaml config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration from --config and the environment; --db
// overrides the database path from either.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	return cfg, nil
}

// resolveDBPath applies --db over MIXINGO_DB and the default location.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("db")
	return store.ResolvePath(p)
}
