package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/usecase/prediction"
	"bloomwatch/pkg/log"
)

type PredictionProcessor struct {
	predictionUseCase prediction.UseCase
}

func NewPredictionProcessor(predictionUseCase prediction.UseCase) *PredictionProcessor {
	return &PredictionProcessor{
		predictionUseCase: predictionUseCase,
	}
}

// HandleMessage implements the sqs.Handler interface. Malformed bodies are dropped, they would never succeed.
func (p *PredictionProcessor) HandleMessage(ctx context.Context, msg types.Message) error {
	if msg.Body == nil {
		log.Warnw("dropping prediction message without body", "messageId", aws.ToString(msg.MessageId))
		return nil
	}

	var message model.PredictionJobMessage
	if err := json.Unmarshal([]byte(*msg.Body), &message); err != nil || message.JobID == "" {
		log.Warnw("dropping malformed prediction message", "messageId", aws.ToString(msg.MessageId), "error", err)
		return nil
	}

	log.Infow("processing prediction job", "jobId", message.JobID, "messageId", aws.ToString(msg.MessageId))
	if err := p.predictionUseCase.ProcessJob(ctx, message); err != nil {
		return fmt.Errorf("failed to process prediction job %s: %w", message.JobID, err)
	}
	return nil
}
