package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mixingo/mixingo/internal/curriculum"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the curriculum modules (optionally filtered by area)",
	RunE: func(cmd *cobra.Command, args []string) error {
		area, _ := cmd.Flags().GetString("area")
		catalogPath, _ := cmd.Flags().GetString("catalog")

		catalog, err := curriculum.LoadOrDefault(catalogPath)
		if err != nil {
			return err
		}

		if area != "" && !curriculum.Area(area).Valid() {
			names := make([]string, 0, len(curriculum.AllAreas()))
			for _, a := range curriculum.AllAreas() {
				names = append(names, string(a))
			}
			return fmt.Errorf("unknown area %q (want one of %s)", area, strings.Join(names, ", "))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-3s  %-24s  %-36s  %s\n", "#", "ID", "Name", "Area")
		fmt.Fprintln(out, strings.Repeat("─", 80))

		var n int
		for i, m := range catalog.Modules() {
			if area != "" && string(m.Area) != area {
				continue
			}
			n++
			fmt.Fprintf(out, "%-3d  %-24s  %-36s  %s\n", i+1, m.ID, truncate(m.Name, 36), m.Area)
		}

		fmt.Fprintf(out, "\n%d modules\n", n)
		return nil
	},
}

func init() {
	modulesCmd.Flags().String("area", "", "Filter by area (vocabulary, pronunciation, grammar, pragmatics, script)")
	modulesCmd.Flags().String("catalog", "", "Path to a catalog file replacing the built-in modules")
}
