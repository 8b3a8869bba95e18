package prediction

import (
	"encoding/json"
	"strings"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/msg"
)

type modelAnswer struct {
	PredictedBloomDate string `json:"predictedBloomDate"`
	Explanation        string `json:"explanation"`
	ClimateFactors     string `json:"climateFactors"`
	VegetationTrend    string `json:"vegetationTrend"`
	Confidence         string `json:"confidence"`
}

// parseAnswer strips markdown fences and checks the required fields are present
func parseAnswer(raw string) (*modelAnswer, error) {
	text := stripFences(raw)
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var answer modelAnswer
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return nil, model.Upstream(err, "%s", msg.GetMessage("prediction.error.invalid-response", "malformed JSON"))
	}

	answer.PredictedBloomDate = strings.TrimSpace(answer.PredictedBloomDate)
	answer.Explanation = strings.TrimSpace(answer.Explanation)
	switch {
	case answer.PredictedBloomDate == "":
		return nil, model.Upstream(nil, "%s", msg.GetMessage("prediction.error.invalid-response", "predictedBloomDate is missing"))
	case answer.Explanation == "":
		return nil, model.Upstream(nil, "%s", msg.GetMessage("prediction.error.invalid-response", "explanation is missing"))
	}
	return &answer, nil
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

func normalizeConfidence(value string) model.Confidence {
	switch c := model.Confidence(strings.ToLower(strings.TrimSpace(value))); c {
	case model.ConfidenceLow, model.ConfidenceMedium, model.ConfidenceHigh:
		return c
	default:
		return model.ConfidenceUnknown
	}
}
