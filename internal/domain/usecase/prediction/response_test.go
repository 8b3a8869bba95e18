package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloomwatch/internal/domain/entity"
	"bloomwatch/internal/domain/model"
)

func TestParseAnswerStripsFences(t *testing.T) {
	raw := "```json\n{\"predictedBloomDate\":\"2025-03-28\",\"explanation\":\"Warm spell\",\"confidence\":\"High\"}\n```"
	answer, err := parseAnswer(raw)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-28", answer.PredictedBloomDate)
	assert.Equal(t, "Warm spell", answer.Explanation)
	assert.Equal(t, model.ConfidenceHigh, normalizeConfidence(answer.Confidence))
}

func TestParseAnswerToleratesSurroundingText(t *testing.T) {
	answer, err := parseAnswer(`Here you go: {"predictedBloomDate":"early April","explanation":"x"} Thanks`)
	require.NoError(t, err)
	assert.Equal(t, "early April", answer.PredictedBloomDate)
}

func TestParseAnswerRequiresFields(t *testing.T) {
	_, err := parseAnswer(`{"predictedBloomDate":"","explanation":"x"}`)
	assert.ErrorIs(t, err, model.ErrUpstream)
	_, err = parseAnswer(`{"predictedBloomDate":"2025-04-01"}`)
	assert.ErrorIs(t, err, model.ErrUpstream)
	_, err = parseAnswer(`not json`)
	assert.ErrorIs(t, err, model.ErrUpstream)
}

func TestNormalizeConfidence(t *testing.T) {
	assert.Equal(t, model.ConfidenceLow, normalizeConfidence(" LOW "))
	assert.Equal(t, model.ConfidenceMedium, normalizeConfidence("medium"))
	assert.Equal(t, model.ConfidenceUnknown, normalizeConfidence("very sure"))
	assert.Equal(t, model.ConfidenceUnknown, normalizeConfidence(""))
}

func TestRenderPrompt(t *testing.T) {
	prompt, err := renderPrompt(model.PromptInput{
		RegionName: "Kyoto",
		Latitude:   35.0116,
		Longitude:  135.7681,
		Today:      "2025-03-10",
		Climate:    []model.ClimateDataPoint{{Label: "Feb 2025", Temperature: 6.04, Rainfall: 51.2, Days: 28}},
		NdviYear:   2024,
		Ndvi:       []entity.NdviReading{{Month: "Jan", Value: 2.4}},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Region: Kyoto")
	assert.Contains(t, prompt, "Coordinates: 35.0116, 135.7681")
	assert.Contains(t, prompt, "Last observed bloom: unknown")
	assert.Contains(t, prompt, "- Feb 2025: mean temperature 6.0 C, rainfall 51.2 mm over 28 days")
	assert.Contains(t, prompt, "Vegetation proxy for 2024")
	assert.Contains(t, prompt, "- Jan: 2.40")
}
