package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fairwind/fcr/internal/kb"
	"github.com/fairwind/fcr/internal/output"
)

var kbCmd = &cobra.Command{
	Use:   "kb [query]",
	Short: "Search the regulation knowledge base",
	Long:  "Search the embedded fair-competition regulation articles by keyword or citation.\nWith no query, lists all articles.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		return kbRun(query)
	},
}

func init() {
	rootCmd.AddCommand(kbCmd)
}

func kbRun(query string) error {
	articles, err := kb.Search(query)
	if err != nil {
		return err
	}

	if len(articles) == 0 {
		ui.Info("No articles match %q", query)
		return nil
	}

	for _, a := range articles {
		fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan(a.Source+a.Article), a.Title)
		fmt.Fprintf(ui.Out, "  %s\n\n", a.Text)
	}
	return nil
}
