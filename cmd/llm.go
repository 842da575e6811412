package cmd

import (
	"os"

	"github.com/spf13/viper"

	"github.com/fairwind/fcr/internal/llm"
	"github.com/fairwind/fcr/internal/review"
)

// newReviewService creates a review service backed by the configured LLM,
// or returns nil if no API key is configured.
func newReviewService() *review.Service {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil
	}
	client := llm.NewClient(apiKey, viper.GetString("anthropic.model"))
	return review.NewService(client)
}
