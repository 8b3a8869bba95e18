package model

import "bloomwatch/internal/domain/entity"

// DashboardRequest is the body of POST /dashboard
type DashboardRequest struct {
	RegionIDs []string `json:"regionIds"`
	Months    int      `json:"months"`
}

// DashboardItem is the merged data of one selected region. Error is set instead of data on failure.
type DashboardItem struct {
	RegionID string               `json:"regionId"`
	Region   *entity.Region       `json:"region,omitempty"`
	Climate  []ClimateDataPoint   `json:"climate,omitempty"`
	Ndvi     []entity.NdviReading `json:"ndvi,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// Dashboard keeps the items in selection order
type Dashboard struct {
	Months int             `json:"months"`
	Items  []DashboardItem `json:"items"`
}
