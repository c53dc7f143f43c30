package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/heatmap"
	"github.com/mixingo/mixingo/internal/signals"
)

var signalsCmd = &cobra.Command{
	Use:   "signals <answers.json>",
	Short: "Score a warm-up answer file and print its signals and heatmap",
	Long: "Reads either a JSON array of answers or an object with an \"answers\" array\n" +
		"(the /api/warmup/submit body) and prints the derived signals and heatmap.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read answers: %w", err)
		}
		answers, err := parseAnswers(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		catalogPath, _ := cmd.Flags().GetString("catalog")
		catalog, err := curriculum.LoadOrDefault(catalogPath)
		if err != nil {
			return err
		}

		summary := signals.Compute(answers)
		items := heatmap.Derive(catalog, summary)

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Signals signals.Summary `json:"signals"`
				Heatmap []heatmap.Item  `json:"heatmap"`
			}{summary, items})
		}

		fmt.Fprintf(out, "Answers:            %d\n", len(answers))
		fmt.Fprintf(out, "Accuracy:           %.1f%%\n", summary.AccuracyRate*100)
		fmt.Fprintf(out, "Errors:             %d\n", summary.TotalErrors())
		fmt.Fprintf(out, "Avg response time:  %.2fs\n", summary.AvgResponseTime)
		fmt.Fprintf(out, "Confidence proxy:   %.2f\n", summary.ConfidenceProxies)
		fmt.Fprintf(out, "Script familiarity: %.2f\n", summary.ScriptFamiliarity)

		if len(summary.ErrorDistribution) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Errors by category")
			fmt.Fprintln(out, strings.Repeat("─", 30))
			cats := make([]string, 0, len(summary.ErrorDistribution))
			for c := range summary.ErrorDistribution {
				cats = append(cats, c)
			}
			sort.Strings(cats)
			for _, c := range cats {
				fmt.Fprintf(out, "%-20s  %4d\n", c, summary.ErrorDistribution[c])
			}
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-24s  %-14s  %-8s  %-6s  %s\n", "Module", "Area", "Severity", "Color", "Band")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, it := range items {
			fmt.Fprintf(out, "%-24s  %-14s  %-8d  %-6s  %s\n", it.ModuleID, it.Area, it.Severity, it.Severity.Color(), it.Band())
		}
		counts := heatmap.Counts(items)
		fmt.Fprintf(out, "\n%d high, %d medium, %d low\n",
			counts[heatmap.SeverityHigh], counts[heatmap.SeverityMedium], counts[heatmap.SeverityLow])
		return nil
	},
}

func parseAnswers(data []byte) ([]signals.Answer, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var answers []signals.Answer
		if err := json.Unmarshal(data, &answers); err != nil {
			return nil, err
		}
		return answers, nil
	}

	var body struct {
		Answers []signals.Answer `json:"answers"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	if body.Answers == nil {
		return nil, fmt.Errorf("no answers array found")
	}
	return body.Answers, nil
}

func init() {
	signalsCmd.Flags().Bool("json", false, "Print signals and heatmap as JSON")
	signalsCmd.Flags().String("catalog", "", "Path to a catalog file replacing the built-in modules")
}
