package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bloomwatch/internal/domain/entity"
)

type GormWatchlistGateway struct {
	DB *gorm.DB
}

var _ WatchlistGateway = (*GormWatchlistGateway)(nil)

func NewGormWatchlistGateway(db *gorm.DB) *GormWatchlistGateway {
	return &GormWatchlistGateway{DB: db}
}

func (gateway *GormWatchlistGateway) FindByUser(ctx context.Context, userID string) ([]entity.WatchlistEntry, error) {
	entries := make([]entity.WatchlistEntry, 0)
	err := gateway.DB.WithContext(ctx).
		Preload("Region").
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&entries).Error
	return entries, err
}

func (gateway *GormWatchlistGateway) CountByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := gateway.DB.WithContext(ctx).Model(&entity.WatchlistEntry{}).Where("user_id = ?", userID).Count(&total).Error
	return total, err
}

func (gateway *GormWatchlistGateway) Append(ctx context.Context, userID string, regionID string) (bool, error) {
	added := false
	err := gateway.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.WatchlistEntry
		err := tx.Where("user_id = ? AND region_id = ?", userID, regionID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var last struct{ Position *int }
		if err := tx.Model(&entity.WatchlistEntry{}).
			Select("MAX(position) AS position").
			Where("user_id = ?", userID).
			Scan(&last).Error; err != nil {
			return err
		}

		next := 0
		if last.Position != nil {
			next = *last.Position + 1
		}

		entry := entity.WatchlistEntry{UserID: userID, RegionID: regionID, Position: next}
		if err := tx.Omit("Region").Create(&entry).Error; err != nil {
			return err
		}
		added = true
		return nil
	})
	return added, err
}

func (gateway *GormWatchlistGateway) Remove(ctx context.Context, userID string, regionID string) (bool, error) {
	result := gateway.DB.WithContext(ctx).
		Where("user_id = ? AND region_id = ?", userID, regionID).
		Delete(&entity.WatchlistEntry{})
	return result.RowsAffected > 0, result.Error
}
