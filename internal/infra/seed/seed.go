// Package seed exposes the static location hierarchy and seed regions embedded in the binary.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"bloomwatch/internal/domain/entity"
)

//go:embed locations.yml
var locationsYAML []byte

//go:embed regions.yml
var regionsYAML []byte

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

type locationsDocument struct {
	Countries []entity.Country `yaml:"countries"`
}

type seedRegion struct {
	ID            string    `yaml:"id"`
	Name          string    `yaml:"name"`
	Latitude      float64   `yaml:"lat"`
	Longitude     float64   `yaml:"lon"`
	LastBloomDate string    `yaml:"lastBloomDate"`
	Ndvi          []float64 `yaml:"ndvi"`
}

type regionsDocument struct {
	Regions []seedRegion `yaml:"regions"`
}

func Locations() ([]entity.Country, error) {
	return ParseLocations(locationsYAML)
}

func ParseLocations(data []byte) ([]entity.Country, error) {
	var doc locationsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse locations: %w", err)
	}
	return doc.Countries, nil
}

func Regions() ([]entity.Region, error) {
	return ParseRegions(regionsYAML)
}

// ParseRegions requires exactly twelve NDVI values per region and a YYYY-MM-DD bloom date
func ParseRegions(data []byte) ([]entity.Region, error) {
	var doc regionsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed regions: %w", err)
	}

	regions := make([]entity.Region, 0, len(doc.Regions))
	for _, r := range doc.Regions {
		if len(r.Ndvi) != len(monthNames) {
			return nil, fmt.Errorf("seed region %s has %d ndvi values", r.ID, len(r.Ndvi))
		}
		if _, err := time.Parse(time.DateOnly, r.LastBloomDate); err != nil {
			return nil, fmt.Errorf("seed region %s: %w", r.ID, err)
		}

		readings := make([]entity.NdviReading, len(monthNames))
		for i, value := range r.Ndvi {
			readings[i] = entity.NdviReading{Month: monthNames[i], Value: value}
		}
		regions = append(regions, entity.Region{
			ID:            r.ID,
			Name:          r.Name,
			Latitude:      r.Latitude,
			Longitude:     r.Longitude,
			Ndvi:          readings,
			LastBloomDate: r.LastBloomDate,
		})
	}
	return regions, nil
}
