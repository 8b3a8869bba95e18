package entity

import "time"

// WatchlistEntry places a region at a position in a user's display list
type WatchlistEntry struct {
	UserID    string    `json:"userId" gorm:"primaryKey;size:64"`
	RegionID  string    `json:"regionId" gorm:"primaryKey;size:64"`
	Position  int       `json:"position" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	Region    Region    `json:"region" gorm:"foreignKey:RegionID;constraint:OnDelete:CASCADE"`
}

func (WatchlistEntry) TableName() string {
	return "watchlist_entries"
}
