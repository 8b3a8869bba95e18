package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"bloomwatch/internal/domain/entity"
)

const (
	createPredictionTable = `
CREATE TABLE IF NOT EXISTS prediction_history (
	id                   VARCHAR(36) PRIMARY KEY,
	user_id              VARCHAR(64) NOT NULL,
	region_id            VARCHAR(64),
	region_name          VARCHAR(120) NOT NULL,
	latitude             DOUBLE PRECISION NOT NULL,
	longitude            DOUBLE PRECISION NOT NULL,
	predicted_bloom_date VARCHAR(32) NOT NULL,
	explanation          TEXT NOT NULL,
	climate_factors      TEXT NOT NULL,
	vegetation_trend     TEXT NOT NULL,
	confidence           VARCHAR(16) NOT NULL,
	model                VARCHAR(64) NOT NULL,
	created_at           TIMESTAMP NOT NULL
)`
	createPredictionIndex = `CREATE INDEX IF NOT EXISTS idx_prediction_history_user ON prediction_history (user_id, created_at)`

	insertPrediction = `
INSERT INTO prediction_history (id, user_id, region_id, region_name, latitude, longitude, predicted_bloom_date,
	explanation, climate_factors, vegetation_trend, confidence, model, created_at)
VALUES (:id, :user_id, :region_id, :region_name, :latitude, :longitude, :predicted_bloom_date,
	:explanation, :climate_factors, :vegetation_trend, :confidence, :model, :created_at)`

	selectPredictionsByUser = `
SELECT id, user_id, region_id, region_name, latitude, longitude, predicted_bloom_date,
	explanation, climate_factors, vegetation_trend, confidence, model, created_at
FROM prediction_history
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

	countPredictionsByUser = `SELECT COUNT(*) FROM prediction_history WHERE user_id = ?`
	deletePredictionsBefore = `DELETE FROM prediction_history WHERE created_at < ?`
)

type SqlxPredictionGateway struct {
	DB *sqlx.DB
}

var _ PredictionGateway = (*SqlxPredictionGateway)(nil)

func NewSqlxPredictionGateway(db *sqlx.DB) *SqlxPredictionGateway {
	return &SqlxPredictionGateway{DB: db}
}

// Migrate creates the history table and its index when missing
func (gateway *SqlxPredictionGateway) Migrate(ctx context.Context) error {
	if _, err := gateway.DB.ExecContext(ctx, createPredictionTable); err != nil {
		return err
	}
	_, err := gateway.DB.ExecContext(ctx, createPredictionIndex)
	return err
}

func (gateway *SqlxPredictionGateway) Save(ctx context.Context, record entity.PredictionRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.CreatedAt = record.CreatedAt.UTC()
	_, err := gateway.DB.NamedExecContext(ctx, insertPrediction, record)
	return err
}

func (gateway *SqlxPredictionGateway) FindByUser(ctx context.Context, userID string, page int, size int) ([]entity.PredictionRecord, error) {
	records := make([]entity.PredictionRecord, 0)
	err := gateway.DB.SelectContext(ctx, &records, gateway.DB.Rebind(selectPredictionsByUser), userID, size, page*size)
	return records, err
}

func (gateway *SqlxPredictionGateway) CountByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := gateway.DB.GetContext(ctx, &total, gateway.DB.Rebind(countPredictionsByUser), userID)
	return total, err
}

func (gateway *SqlxPredictionGateway) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := gateway.DB.ExecContext(ctx, gateway.DB.Rebind(deletePredictionsBefore), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
