package entity

import (
	"database/sql"
	"time"
)

// PredictionRecord is a stored bloom prediction
type PredictionRecord struct {
	ID                 string         `db:"id" json:"id"`
	UserID             string         `db:"user_id" json:"userId"`
	RegionID           sql.NullString `db:"region_id" json:"-"`
	RegionName         string         `db:"region_name" json:"regionName"`
	Latitude           float64        `db:"latitude" json:"latitude"`
	Longitude          float64        `db:"longitude" json:"longitude"`
	PredictedBloomDate string         `db:"predicted_bloom_date" json:"predictedBloomDate"`
	Explanation        string         `db:"explanation" json:"explanation"`
	ClimateFactors     string         `db:"climate_factors" json:"climateFactors"`
	VegetationTrend    string         `db:"vegetation_trend" json:"vegetationTrend"`
	Confidence         string         `db:"confidence" json:"confidence"`
	Model              string         `db:"model" json:"model"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
}
