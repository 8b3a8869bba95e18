package model

import "bloomwatch/internal/domain/entity"

// CreateRegionDTO is the body of POST /regions
type CreateRegionDTO struct {
	Name          string  `json:"name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	LastBloomDate string  `json:"lastBloomDate"`
}

// AddWatchlistDTO is the body of POST /watchlist
type AddWatchlistDTO struct {
	RegionID string `json:"regionId"`
}

// BloomSite is a park, garden, orchard or reserve near a region
type BloomSite struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distanceKm"`
}

// BloomSites is the response of GET /regions/:id/sites
type BloomSites struct {
	Region   entity.Region `json:"region"`
	RadiusKm float64       `json:"radiusKm"`
	Sites    []BloomSite   `json:"sites"`
}
