package model

import (
	"time"

	"bloomwatch/internal/domain/entity"
)

type Confidence string

const (
	ConfidenceLow     Confidence = "low"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceHigh    Confidence = "high"
	ConfidenceUnknown Confidence = "unknown"
)

// PredictionRequest selects a catalogue region by RegionID, or an ad hoc point by Name, Latitude and Longitude
type PredictionRequest struct {
	RegionID  string   `json:"regionId"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Months    int      `json:"months"`
}

// PredictionResult is the shape-checked answer of the model
type PredictionResult struct {
	ID                 string     `json:"id,omitempty"`
	RegionID           string     `json:"regionId,omitempty"`
	RegionName         string     `json:"regionName"`
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	PredictedBloomDate string     `json:"predictedBloomDate"`
	Explanation        string     `json:"explanation"`
	ClimateFactors     string     `json:"climateFactors"`
	VegetationTrend    string     `json:"vegetationTrend"`
	Confidence         Confidence `json:"confidence"`
	Model              string     `json:"model"`
	GeneratedAt        time.Time  `json:"generatedAt"`
}

// BatchPredictionRequest is the body of POST /predictions/batch and /predictions/jobs
type BatchPredictionRequest struct {
	RegionIDs []string `json:"regionIds"`
	Months    int      `json:"months"`
}

// BatchPredictionItem holds either a result or the error of one region
type BatchPredictionItem struct {
	RegionID string            `json:"regionId"`
	Result   *PredictionResult `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type JobStatus string

const (
	JobPending JobStatus = "PENDING"
	JobRunning JobStatus = "RUNNING"
	JobDone    JobStatus = "DONE"
	JobFailed  JobStatus = "FAILED"
)

// PredictionJob is an async batch prediction tracked in the job store
type PredictionJob struct {
	ID        string                `json:"id"`
	UserID    string                `json:"userId"`
	RegionIDs []string              `json:"regionIds"`
	Months    int                   `json:"months"`
	Status    JobStatus             `json:"status"`
	Items     []BatchPredictionItem `json:"items,omitempty"`
	Error     string                `json:"error,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// PredictionJobMessage is the queue payload of a submitted job
type PredictionJobMessage struct {
	JobID     string   `json:"jobId"`
	UserID    string   `json:"userId"`
	RegionIDs []string `json:"regionIds"`
	Months    int      `json:"months"`
}

// PromptInput is everything the model sees about a region
type PromptInput struct {
	RegionName    string
	Latitude      float64
	Longitude     float64
	LastBloomDate string
	Today         string
	Climate       []ClimateDataPoint
	NdviYear      int
	Ndvi          []entity.NdviReading
}
