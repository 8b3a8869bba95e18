package entity

import "time"

// NdviReading is one month of the vegetation proxy (All Sky Surface Insolation, kWh/m²/day)
type NdviReading struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// Region is a catalogue entry, either a static seed region or a user created one
type Region struct {
	ID            string        `json:"id" gorm:"primaryKey;size:64"`
	Name          string        `json:"name" gorm:"size:120;not null;index"`
	Latitude      float64       `json:"latitude" gorm:"not null"`
	Longitude     float64       `json:"longitude" gorm:"not null"`
	Ndvi          []NdviReading `json:"ndvi" gorm:"serializer:json;type:jsonb"`
	LastBloomDate string        `json:"lastBloomDate" gorm:"size:10"`
	Custom        bool          `json:"custom" gorm:"not null;default:false"`
	CreatedBy     string        `json:"createdBy,omitempty" gorm:"size:64;index"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (Region) TableName() string {
	return "regions"
}
