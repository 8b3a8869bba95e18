package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bloomwatch/internal/domain/entity"
)

type GormRegionGateway struct {
	DB *gorm.DB
}

var _ RegionGateway = (*GormRegionGateway)(nil)

func NewGormRegionGateway(db *gorm.DB) *GormRegionGateway {
	return &GormRegionGateway{DB: db}
}

// FindAll retrieves regions ordered by name with pagination and an optional case-insensitive name prefix
func (gateway *GormRegionGateway) FindAll(ctx context.Context, page int, size int, namePrefix string) ([]entity.Region, error) {
	regions := make([]entity.Region, 0)
	err := gateway.filtered(ctx, namePrefix).
		Order("name ASC").Order("id ASC").
		Offset(page * size).
		Limit(size).
		Find(&regions).Error
	return regions, err
}

func (gateway *GormRegionGateway) Count(ctx context.Context, namePrefix string) (int64, error) {
	var total int64
	err := gateway.filtered(ctx, namePrefix).Model(&entity.Region{}).Count(&total).Error
	return total, err
}

func (gateway *GormRegionGateway) filtered(ctx context.Context, namePrefix string) *gorm.DB {
	query := gateway.DB.WithContext(ctx)
	if namePrefix = strings.TrimSpace(namePrefix); namePrefix != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", strings.ToLower(escapeLike(namePrefix))+"%")
	}
	return query
}

func (gateway *GormRegionGateway) FindByID(ctx context.Context, id string) (*entity.Region, error) {
	var region entity.Region
	err := gateway.DB.WithContext(ctx).First(&region, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &region, nil
}

// FindByIDs returns the stored regions among ids, in no particular order
func (gateway *GormRegionGateway) FindByIDs(ctx context.Context, ids []string) ([]entity.Region, error) {
	regions := make([]entity.Region, 0, len(ids))
	if len(ids) == 0 {
		return regions, nil
	}
	err := gateway.DB.WithContext(ctx).Where("id IN ?", ids).Find(&regions).Error
	return regions, err
}

func (gateway *GormRegionGateway) FindInBatches(ctx context.Context, batchSize int, fn func(regions []entity.Region) error) error {
	var batch []entity.Region
	return gateway.DB.WithContext(ctx).Order("id ASC").FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

func (gateway *GormRegionGateway) Create(ctx context.Context, region entity.Region) (*entity.Region, error) {
	if err := gateway.DB.WithContext(ctx).Create(&region).Error; err != nil {
		return nil, err
	}
	return &region, nil
}

func (gateway *GormRegionGateway) DeleteByID(ctx context.Context, id string) error {
	return gateway.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("region_id = ?", id).Delete(&entity.WatchlistEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Region{}, "id = ?", id).Error
	})
}

func (gateway *GormRegionGateway) InsertMissing(ctx context.Context, regions []entity.Region) (int64, error) {
	if len(regions) == 0 {
		return 0, nil
	}
	result := gateway.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&regions)
	return result.RowsAffected, result.Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
