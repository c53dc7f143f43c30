package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mixingo/mixingo/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}

		level := slog.LevelInfo
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = slog.LevelDebug
		}
		logger := app.NewLogger(cfg.Env, os.Stderr, level)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		defer a.Close()

		return a.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides MIXINGO_ADDR and PORT)")
	serveCmd.Flags().Bool("debug", false, "Log at debug level, including every LLM call")
}
