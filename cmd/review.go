package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fairwind/fcr/internal/models"
)

var dispositionDsc string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run AI reviews and record dispositions",
	Long:  "Start AI compliance reviews, record per-finding decisions, and move projects through departmental review.",
}

var reviewStartCmd = &cobra.Command{
	Use:   "start <project-id>",
	Short: "Start the AI review for a draft project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewStartRun(args[0])
	},
}

var reviewDisposeCmd = &cobra.Command{
	Use:   "dispose <project-id> <finding-id> <adopt|exception|reject>",
	Short: "Record a decision on one review finding",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewDisposeRun(args[0], args[1], args[2])
	},
}

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit <project-id>",
	Short: "Submit a reviewed project for departmental review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewSubmitRun(args[0])
	},
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project's review findings and dispositions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectShowRun(args[0])
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <project-id>",
	Short: "Approve a project under departmental review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewApproveRun(args[0])
	},
}

func init() {
	reviewDisposeCmd.Flags().StringVar(&dispositionDsc, "desc", "", "Free-text rationale for the decision")

	reviewCmd.AddCommand(reviewStartCmd)
	reviewCmd.AddCommand(reviewDisposeCmd)
	reviewCmd.AddCommand(reviewSubmitCmd)
	reviewCmd.AddCommand(reviewShowCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	rootCmd.AddCommand(reviewCmd)
}

func reviewStartRun(id string) error {
	flow, err := getWorkflow()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would start AI review for project %s", id)
		return nil
	}

	// The CLI process exits after this function, so generation must run
	// synchronously here. Background starts are for the long-lived servers.
	ui.Info("Running AI review...")
	p, err := flow.RunReview(context.Background(), id)
	if err != nil {
		return err
	}
	if p.AIReview == nil {
		ui.Info("Review already in progress for %s (status: %s)", p.Name, p.Status)
		return nil
	}

	ui.Success("Review complete: %d findings, overall risk %s", len(p.AIReview.RiskItems), p.AIReview.OverallRisk)
	return projectShowRun(p.ID)
}

func reviewDisposeRun(projectID, findingID, dispType string) error {
	flow, err := getWorkflow()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would record %s on finding %s", dispType, findingID)
		return nil
	}

	actions := map[string]models.Disposition{
		findingID: {Type: models.DispositionType(dispType), Desc: dispositionDsc},
	}
	p, err := flow.SaveDispositions(context.Background(), projectID, actions)
	if err != nil {
		return err
	}

	ui.Success("Recorded %s on finding %s (%d/%d findings disposed)",
		dispType, findingID, len(p.AIReview.Actions), len(p.AIReview.RiskItems))
	return nil
}

func reviewSubmitRun(id string) error {
	flow, err := getWorkflow()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would submit project %s for departmental review", id)
		return nil
	}

	p, err := flow.SubmitForDeptReview(context.Background(), id)
	if err != nil {
		return err
	}
	ui.Success("Submitted %s for departmental review", p.Name)
	return nil
}

func reviewApproveRun(id string) error {
	flow, err := getWorkflow()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would approve project %s", id)
		return nil
	}

	p, err := flow.Approve(context.Background(), id)
	if err != nil {
		return err
	}
	ui.Success("Approved %s", p.Name)

	undisposed := 0
	for _, f := range p.AIReview.RiskItems {
		if _, ok := p.AIReview.Actions[f.ID]; !ok {
			undisposed++
		}
	}
	if undisposed > 0 {
		ui.Warning("%d findings have no recorded disposition", undisposed)
	}
	return nil
}
