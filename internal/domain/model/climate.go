package model

import "bloomwatch/internal/domain/entity"

// ClimateDataPoint is one calendar month of daily T2M and PRECTOTCORR values
type ClimateDataPoint struct {
	Month       string  `json:"month"`
	Label       string  `json:"label"`
	Temperature float64 `json:"temperature"`
	Rainfall    float64 `json:"rainfall"`
	Days        int     `json:"days"`
}

// ClimateSeries is the response of the climate endpoint
type ClimateSeries struct {
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Start     string             `json:"start"`
	End       string             `json:"end"`
	Points    []ClimateDataPoint `json:"points"`
}

// NdviSeries is the 12 month vegetation proxy series for a year
type NdviSeries struct {
	Latitude  float64              `json:"latitude"`
	Longitude float64              `json:"longitude"`
	Year      int                  `json:"year"`
	Readings  []entity.NdviReading `json:"readings"`
}
