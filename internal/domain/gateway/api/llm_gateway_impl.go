package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/metrics"
)

const systemInstruction = "You are a phenology assistant. You estimate the next bloom date of vegetation " +
	"from monthly climate summaries and a vegetation proxy series. Answer only with JSON matching the schema."

// contentGenerator is satisfied by genai.Client.Models
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type genaiGatewayImpl struct {
	models      contentGenerator
	model       string
	temperature float32
	timeout     time.Duration
	metrics     *metrics.Collector
}

// NewGenAIGateway creates an LLMGateway backed by the Gemini API
func NewGenAIGateway(ctx context.Context, apiKey, modelName string, temperature float32, timeout time.Duration, collector *metrics.Collector) (LLMGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGenAIGateway(client.Models, modelName, temperature, timeout, collector), nil
}

func newGenAIGateway(models contentGenerator, modelName string, temperature float32, timeout time.Duration, collector *metrics.Collector) *genaiGatewayImpl {
	return &genaiGatewayImpl{
		models:      models,
		model:       modelName,
		temperature: temperature,
		timeout:     timeout,
		metrics:     collector,
	}
}

func (g *genaiGatewayImpl) ModelName() string {
	return g.model
}

func (g *genaiGatewayImpl) GeneratePrediction(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(g.temperature),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    predictionSchema(),
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	timer := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	g.metrics.RecordUpstream("llm", err, time.Since(timer))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", model.Upstream(err, "GenAI generate failed")
	}

	text := resp.Text()
	if text == "" {
		return "", model.Upstream(nil, "GenAI returned an empty answer")
	}
	return text, nil
}

// predictionSchema is the JSON schema the model must answer with
func predictionSchema() *genai.Schema {
	str := func(description string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: description}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"predictedBloomDate": str("Expected start of the next bloom, YYYY-MM-DD"),
			"explanation":        str("Short reasoning behind the date"),
			"climateFactors":     str("Climate signals that drive the estimate"),
			"vegetationTrend":    str("Reading of the vegetation proxy series"),
			"confidence": {
				Type: genai.TypeString,
				Enum: []string{"low", "medium", "high"},
			},
		},
		Required:         []string{"predictedBloomDate", "explanation", "confidence"},
		PropertyOrdering: []string{"predictedBloomDate", "explanation", "climateFactors", "vegetationTrend", "confidence"},
	}
}
