package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fairwind/fcr/internal/api"
	"github.com/fairwind/fcr/internal/review"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start an HTTP server exposing the review API.\nBy default it listens on port 8080. Use --port to change it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := viper.GetInt("port")

		s, err := getStore()
		if err != nil {
			return err
		}
		flow, err := getWorkflow()
		if err != nil {
			return err
		}

		// The stateless /api/review endpoint falls back to the demo
		// backend so it works without an API key.
		reviewer := newReviewService()
		if reviewer == nil {
			reviewer = review.NewService(review.MockBackend{})
		}

		handler := api.NewServer(s, flow, reviewer).Router()

		addr := fmt.Sprintf(":%d", port)
		ui.Info("Serving API at http://localhost%s", addr)
		return http.ListenAndServe(addr, handler)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}
