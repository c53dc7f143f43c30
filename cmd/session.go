package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mixingo/mixingo/internal/app"
	"github.com/mixingo/mixingo/internal/session"
	"github.com/mixingo/mixingo/internal/store"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect stored learner sessions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Print a learner's session as JSON",
	Long: "Reads from the configured session backend. The in-memory backend lives only\n" +
		"inside a running server, so use sqlite, redis or postgres.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Session.Backend == session.BackendMemory {
			return fmt.Errorf("the memory session backend cannot be inspected from the CLI")
		}

		var st *store.Store
		if cfg.Session.Backend == session.BackendSQLite {
			st, err = app.OpenStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()
		}

		ctx := cmd.Context()
		sessions, err := app.OpenSessions(ctx, cfg.Session, st)
		if err != nil {
			return fmt.Errorf("open sessions: %w", err)
		}
		defer sessions.Close()

		s, err := sessions.Get(ctx, args[0])
		if errors.Is(err, session.ErrNotFound) {
			return fmt.Errorf("no session for user %q", args[0])
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	},
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
}
