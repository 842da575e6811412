package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fairwind/fcr/internal/output"
	"github.com/fairwind/fcr/internal/stats"
	"github.com/fairwind/fcr/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard summary and distributions",
	Long:  "Show the project dashboard summary and risk/status/category distributions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsRun()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	projects, err := s.ListProjects(context.Background(), store.ProjectListFilter{})
	if err != nil {
		return err
	}

	summary := stats.Summarize(projects)
	fmt.Fprintf(ui.Out, "Projects: %d total, %d completed, %d pending\n\n",
		summary.Total, summary.Completed, summary.Pending)

	dist := stats.Distribute(projects)

	if len(dist.Risk) > 0 {
		fmt.Fprintln(ui.Out, output.Cyan("By overall risk"))
		table := ui.Table([]string{"Risk", "Count", "Percent"})
		for _, b := range dist.Risk {
			table.Append([]string{output.RiskColor(b.Key), fmt.Sprintf("%d", b.Count), fmt.Sprintf("%.1f%%", b.Percent)})
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintln(ui.Out)
	}

	if len(dist.Status) > 0 {
		fmt.Fprintln(ui.Out, output.Cyan("By status"))
		table := ui.Table([]string{"Status", "Count", "Percent"})
		for _, b := range dist.Status {
			table.Append([]string{output.StatusColor(b.Key), fmt.Sprintf("%d", b.Count), fmt.Sprintf("%.1f%%", b.Percent)})
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintln(ui.Out)
	}

	if len(dist.Category) > 0 {
		fmt.Fprintln(ui.Out, output.Cyan("By finding category"))
		table := ui.Table([]string{"Category", "Count", "Percent"})
		for _, b := range dist.Category {
			table.Append([]string{b.Key, fmt.Sprintf("%d", b.Count), fmt.Sprintf("%.1f%%", b.Percent)})
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	return nil
}
