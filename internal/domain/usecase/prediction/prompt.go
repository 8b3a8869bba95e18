package prediction

import (
	"bytes"
	"fmt"
	"text/template"

	"bloomwatch/internal/domain/model"
)

const promptText = `You are a phenology assistant estimating when plants will next bloom.

Region: {{.RegionName}}
Coordinates: {{printf "%.4f" .Latitude}}, {{printf "%.4f" .Longitude}}
Last observed bloom: {{if .LastBloomDate}}{{.LastBloomDate}}{{else}}unknown{{end}}
Today: {{.Today}}

Recent monthly climate (NASA POWER daily data):
{{- range .Climate}}
- {{.Label}}: mean temperature {{printf "%.1f" .Temperature}} C, rainfall {{printf "%.1f" .Rainfall}} mm over {{.Days}} days
{{- else}}
- no recent climate data
{{- end}}

Vegetation proxy for {{.NdviYear}} (all sky surface insolation, kWh/m2/day):
{{- range .Ndvi}}
- {{.Month}}: {{printf "%.2f" .Value}}
{{- end}}

Estimate the next bloom date after today for this region.
Answer with a single JSON object with the fields:
predictedBloomDate (YYYY-MM-DD or a short date range), explanation, climateFactors, vegetationTrend,
confidence (one of low, medium, high).
`

var promptTemplate = template.Must(template.New("prediction").Parse(promptText))

func renderPrompt(input model.PromptInput) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
