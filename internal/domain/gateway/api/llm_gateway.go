package api

import (
	"context"
)

// LLMGateway sends a prompt to the generative model and returns its raw JSON text
type LLMGateway interface {
	GeneratePrediction(ctx context.Context, prompt string) (string, error)
	ModelName() string
}
