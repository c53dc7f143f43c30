package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mixingo/mixingo/internal/llm"
	"github.com/mixingo/mixingo/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded advisor and exercise LLM calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")
		failed, _ := cmd.Flags().GetBool("failed")
		requestID, _ := cmd.Flags().GetString("request")
		asJSON, _ := cmd.Flags().GetBool("json")

		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{Limit: limit, Purpose: purpose, RequestID: requestID}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		if failed {
			// Failures are rare; filter after a wider fetch.
			opts.Limit = 0
		}
		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if failed {
			events = onlyFailed(events, limit)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(events)
		}
		if len(events) == 0 {
			fmt.Fprintln(out, "No LLM calls recorded.")
			return nil
		}
		printEventTable(out, events)
		return nil
	},
}

func onlyFailed(events []store.LLMEvent, limit int) []store.LLMEvent {
	var out []store.LLMEvent
	for _, e := range events {
		if e.Success {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func printEventTable(w io.Writer, events []store.LLMEvent) {
	fmt.Fprintf(w, "%-5s  %-19s  %-12s  %-10s  %-28s  %6s  %6s  %7s  %s\n",
		"ID", "Time", "Purpose", "Provider", "Model", "In", "Out", "Ms", "OK")
	fmt.Fprintln(w, strings.Repeat("─", 110))
	for _, e := range events {
		status := "ok"
		if !e.Success {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-5d  %-19s  %-12s  %-10s  %-28s  %6d  %6d  %7d  %s\n",
			e.ID, e.Timestamp.Local().Format(timeLayout), e.Purpose, truncate(e.Provider, 10),
			truncate(e.Model, 28), e.InputTokens, e.OutputTokens, e.LatencyMs, status)
	}
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and raw response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Event %d  %s\n", e.ID, e.Timestamp.Local().Format(timeLayout))
		fmt.Fprintf(out, "  purpose   %s\n", e.Purpose)
		if e.RequestID != "" {
			fmt.Fprintf(out, "  request   %s\n", e.RequestID)
		}
		fmt.Fprintf(out, "  provider  %s (%s)\n", e.Provider, e.Model)
		fmt.Fprintf(out, "  tokens    %d in, %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(out, "  latency   %dms\n", e.LatencyMs)
		if e.StopReason != "" {
			fmt.Fprintf(out, "  stop      %s\n", e.StopReason)
		}
		if cost := llm.LookupCost(e.Model); cost != nil {
			fmt.Fprintf(out, "  cost      %s\n", formatCost(cost.Cost(e.InputTokens, e.OutputTokens)))
		}
		if !e.Success {
			fmt.Fprintf(out, "  error     %s\n", e.ErrorMessage)
		}

		printSection(out, "Request", e.RequestBody)
		printSection(out, "Response", prettyJSON(e.ResponseBody))
		return nil
	},
}

func printSection(w io.Writer, title, body string) {
	fmt.Fprintf(w, "\n── %s %s\n", title, strings.Repeat("─", 56-len(title)))
	if body == "" {
		body = "(empty)"
	}
	fmt.Fprintln(w, strings.TrimRight(body, "\n"))
}

// prettyJSON indents body when it is JSON and returns it unchanged otherwise.
func prettyJSON(body string) string {
	var v any
	if json.Unmarshal([]byte(body), &v) != nil {
		return body
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return body
	}
	return string(b)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise token usage per purpose and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		repo := s.EventRepo()
		byPurpose, err := repo.LLMUsageByPurpose(cmd.Context())
		if err != nil {
			return fmt.Errorf("usage by purpose: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "No LLM calls recorded.")
			return nil
		}
		byModel, err := repo.LLMUsageByModel(cmd.Context())
		if err != nil {
			return fmt.Errorf("usage by model: %w", err)
		}

		rule := strings.Repeat("─", 72)
		fmt.Fprintf(out, "%-16s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Avg ms")
		fmt.Fprintln(out, rule)
		var calls, in, outTok int
		for _, u := range byPurpose {
			fmt.Fprintf(out, "%-16s  %6d  %10d  %10d  %8d\n", u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
			calls += u.Calls
			in += u.InputTokens
			outTok += u.OutputTokens
		}
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "%-16s  %6d  %10d  %10d\n\n", "total", calls, in, outTok)

		fmt.Fprintf(out, "%-32s  %6s  %10s\n", "Model", "Calls", "Cost (USD)")
		fmt.Fprintln(out, rule)
		var total float64
		var unpriced []string
		for _, u := range byModel {
			cost := llm.LookupCost(u.Model)
			if cost == nil {
				unpriced = append(unpriced, u.Model)
				fmt.Fprintf(out, "%-32s  %6d  %10s\n", truncate(u.Model, 32), u.Calls, "?")
				continue
			}
			c := cost.Cost(u.InputTokens, u.OutputTokens)
			total += c
			fmt.Fprintf(out, "%-32s  %6d  %10s\n", truncate(u.Model, 32), u.Calls, formatCost(c))
		}
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "%-32s  %6s  %10s\n", "total", "", formatCost(total))
		if len(unpriced) > 0 {
			fmt.Fprintf(out, "\nNo pricing for %s; total is partial.\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

// openEventStore opens the SQLite database the server records LLM calls in.
func openEventStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show (0 for all)")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (ctm-analyze, exercise-gen)")
	llmListCmd.Flags().Duration("since", 0, "Only calls newer than this, e.g. 24h")
	llmListCmd.Flags().Bool("failed", false, "Only failed calls")
	llmListCmd.Flags().String("request", "", "Only calls made while serving this X-Request-ID")
	llmListCmd.Flags().Bool("json", false, "Print events as JSON")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
