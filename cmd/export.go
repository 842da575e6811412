package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fairwind/fcr/internal/store"
)

var (
	exportFormat string
	exportType   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data as JSON, CSV, or Markdown",
	Long:  "Export projects or review findings in various formats.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun()
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json, csv, markdown")
	exportCmd.Flags().StringVar(&exportType, "type", "projects", "Data type: projects, findings")
	rootCmd.AddCommand(exportCmd)
}

func exportRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch exportType {
	case "projects":
		return exportProjects(ctx, s)
	case "findings":
		return exportFindings(ctx, s)
	default:
		return fmt.Errorf("unknown export type: %s (use: projects, findings)", exportType)
	}
}

func exportProjects(ctx context.Context, s store.Store) error {
	projects, err := s.ListProjects(ctx, store.ProjectListFilter{})
	if err != nil {
		return err
	}

	switch exportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(projects)
	case "csv":
		w := csv.NewWriter(ui.Out)
		w.Write([]string{"ID", "Name", "PolicyTitle", "Organization", "Status", "OverallRisk", "Findings", "Created"})
		for _, p := range projects {
			risk, findings := "", "0"
			if p.AIReview != nil {
				risk = string(p.AIReview.OverallRisk)
				findings = fmt.Sprintf("%d", len(p.AIReview.RiskItems))
			}
			w.Write([]string{p.ID, p.Name, p.PolicyTitle, p.Organization, string(p.Status), risk, findings, p.CreatedAt.Format("2006-01-02")})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		fmt.Fprintln(ui.Out, "# Review Projects")
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "| Name | Organization | Status | Risk |")
		fmt.Fprintln(ui.Out, "|------|--------------|--------|------|")
		for _, p := range projects {
			risk := "-"
			if p.AIReview != nil {
				risk = string(p.AIReview.OverallRisk)
			}
			fmt.Fprintf(ui.Out, "| %s | %s | %s | %s |\n", p.Name, p.Organization, p.Status, risk)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", exportFormat)
	}
}

// exportedFinding flattens one finding with its project and disposition.
type exportedFinding struct {
	ProjectID       string `json:"projectId"`
	ProjectName     string `json:"projectName"`
	FindingID       string `json:"findingId"`
	Category        string `json:"category"`
	RiskLevel       string `json:"riskLevel"`
	Analysis        string `json:"analysis"`
	Suggestion      string `json:"suggestion"`
	LawReference    string `json:"lawReference"`
	Disposition     string `json:"disposition,omitempty"`
	DispositionDesc string `json:"dispositionDesc,omitempty"`
}

func exportFindings(ctx context.Context, s store.Store) error {
	projects, err := s.ListProjects(ctx, store.ProjectListFilter{})
	if err != nil {
		return err
	}

	var rows []exportedFinding
	for _, p := range projects {
		if p.AIReview == nil {
			continue
		}
		for _, f := range p.AIReview.RiskItems {
			row := exportedFinding{
				ProjectID:    p.ID,
				ProjectName:  p.Name,
				FindingID:    f.ID,
				Category:     f.Category,
				RiskLevel:    string(f.RiskLevel),
				Analysis:     f.Analysis,
				Suggestion:   f.Suggestion,
				LawReference: f.LawReference,
			}
			if d, ok := p.AIReview.Actions[f.ID]; ok {
				row.Disposition = string(d.Type)
				row.DispositionDesc = d.Desc
			}
			rows = append(rows, row)
		}
	}

	switch exportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "csv":
		w := csv.NewWriter(ui.Out)
		w.Write([]string{"ProjectID", "Project", "FindingID", "Category", "Risk", "LawReference", "Disposition"})
		for _, r := range rows {
			w.Write([]string{r.ProjectID, r.ProjectName, r.FindingID, r.Category, r.RiskLevel, r.LawReference, r.Disposition})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		fmt.Fprintln(ui.Out, "# Review Findings")
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "| Project | Category | Risk | Law | Disposition |")
		fmt.Fprintln(ui.Out, "|---------|----------|------|-----|-------------|")
		for _, r := range rows {
			fmt.Fprintf(ui.Out, "| %s | %s | %s | %s | %s |\n", r.ProjectName, r.Category, r.RiskLevel, r.LawReference, r.Disposition)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", exportFormat)
	}
}
