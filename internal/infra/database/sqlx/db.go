package sqlx

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"bloomwatch/pkg/resource"
)

func Connect() (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		resource.GetString("app.db.host"),
		resource.GetString("app.db.port"),
		resource.GetString("app.db.username"),
		resource.GetString("app.db.password"),
		resource.GetString("app.db.database"),
		resource.GetStringOrDefault("app.db.ssl-mode", "disable"),
		resource.GetStringOrDefault("app.db.schema", "public"))

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect history database: %w", err)
	}
	db.SetMaxOpenConns(resource.GetIntOrDefault("app.db.max-open-conns", 20) / 2)
	return db, nil
}
