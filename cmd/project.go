package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fairwind/fcr/internal/models"
	"github.com/fairwind/fcr/internal/output"
	"github.com/fairwind/fcr/internal/store"
)

var (
	projectPolicyTitle  string
	projectOrganization string
	projectDraftType    string
	projectScope        string
	projectReleaseDate  string
	projectDocumentFile string
	projectStatusFilter string
	projectOrgFilter    string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage review projects",
	Long:  "Create, list, show, and remove compliance review projects.",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new review project in draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectCreateRun(args[0])
	},
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List review projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectListRun()
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project with its review findings and dispositions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectShowRun(args[0])
	},
}

var projectRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a project and its dispositions",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectRemoveRun(args[0])
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectPolicyTitle, "title", "", "Title of the policy document (required)")
	projectCreateCmd.Flags().StringVar(&projectOrganization, "org", "", "Drafting organization")
	projectCreateCmd.Flags().StringVar(&projectDraftType, "type", "", "Document type, e.g. 规范性文件")
	projectCreateCmd.Flags().StringVar(&projectScope, "scope", "", "Scope of application")
	projectCreateCmd.Flags().StringVar(&projectReleaseDate, "release-date", "", "Planned release date")
	projectCreateCmd.Flags().StringVar(&projectDocumentFile, "document", "", "Path to the policy document text file")
	_ = projectCreateCmd.MarkFlagRequired("title")

	projectListCmd.Flags().StringVar(&projectStatusFilter, "status", "", "Filter by status")
	projectListCmd.Flags().StringVar(&projectOrgFilter, "org", "", "Filter by organization")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectRemoveCmd)
	rootCmd.AddCommand(projectCmd)
}

func projectCreateRun(name string) error {
	flow, err := getWorkflow()
	if err != nil {
		return err
	}

	var document string
	if projectDocumentFile != "" {
		data, err := os.ReadFile(projectDocumentFile)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		document = string(data)
	}

	p := &models.Project{
		Name:         name,
		PolicyTitle:  projectPolicyTitle,
		Organization: projectOrganization,
		DraftType:    projectDraftType,
		Scope:        projectScope,
		ReleaseDate:  projectReleaseDate,
		Document:     document,
	}

	if dryRun {
		ui.DryRunMsg("Would create project %q (%s)", name, projectPolicyTitle)
		return nil
	}

	if err := flow.Create(context.Background(), p); err != nil {
		return err
	}

	ui.Success("Created project %s (%s)", p.Name, p.ID)
	return nil
}

func projectListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	filter := store.ProjectListFilter{
		Status:       models.ProjectStatus(projectStatusFilter),
		Organization: projectOrgFilter,
	}
	projects, err := s.ListProjects(context.Background(), filter)
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		ui.Info("No projects found")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Organization", "Status", "Risk", "Findings"})
	for _, p := range projects {
		risk, findings := "-", "-"
		if p.AIReview != nil {
			risk = output.RiskColor(string(p.AIReview.OverallRisk))
			findings = fmt.Sprintf("%d", len(p.AIReview.RiskItems))
		}
		table.Append([]string{
			p.ID,
			p.Name,
			p.Organization,
			output.StatusColor(string(p.Status)),
			risk,
			findings,
		})
	}
	return table.Render()
}

func projectShowRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p, err := s.GetProject(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(p.Name), p.ID)
	fmt.Fprintf(ui.Out, "  Policy:        %s\n", p.PolicyTitle)
	if p.Organization != "" {
		fmt.Fprintf(ui.Out, "  Organization:  %s\n", p.Organization)
	}
	if p.DraftType != "" {
		fmt.Fprintf(ui.Out, "  Type:          %s\n", p.DraftType)
	}
	if p.Scope != "" {
		fmt.Fprintf(ui.Out, "  Scope:         %s\n", p.Scope)
	}
	fmt.Fprintf(ui.Out, "  Status:        %s\n", output.StatusColor(string(p.Status)))
	fmt.Fprintf(ui.Out, "  Updated:       %s\n", p.UpdatedAt.Format("2006-01-02 15:04"))

	if p.AIReview == nil {
		fmt.Fprintln(ui.Out)
		ui.Info("No AI review yet. Run: fcr review start %s", p.ID)
		return nil
	}

	fmt.Fprintf(ui.Out, "  Overall risk:  %s\n", output.RiskColor(string(p.AIReview.OverallRisk)))
	fmt.Fprintln(ui.Out)

	for i, f := range p.AIReview.RiskItems {
		fmt.Fprintf(ui.Out, "%d. [%s] %s  (%s)\n", i+1, output.RiskColor(string(f.RiskLevel)), f.Category, f.ID)
		if f.Excerpt != "" {
			fmt.Fprintf(ui.Out, "   原文: %s\n", f.Excerpt)
		}
		fmt.Fprintf(ui.Out, "   分析: %s\n", f.Analysis)
		fmt.Fprintf(ui.Out, "   建议: %s\n", f.Suggestion)
		if f.LawReference != "" {
			fmt.Fprintf(ui.Out, "   依据: %s\n", f.LawReference)
		}
		if d, ok := p.AIReview.Actions[f.ID]; ok {
			fmt.Fprintf(ui.Out, "   处置: %s", d.Type)
			if d.Desc != "" {
				fmt.Fprintf(ui.Out, " (%s)", d.Desc)
			}
			fmt.Fprintln(ui.Out)
		}
		fmt.Fprintln(ui.Out)
	}
	return nil
}

func projectRemoveRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would remove project %s", id)
		return nil
	}

	if err := s.DeleteProject(context.Background(), id); err != nil {
		return err
	}
	ui.Success("Removed project %s", id)
	return nil
}
