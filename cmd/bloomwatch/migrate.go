package main

import (
	"github.com/spf13/cobra"

	"bloomwatch/internal/domain/gateway/db"
	"bloomwatch/internal/domain/usecase/region"
	infragorm "bloomwatch/internal/infra/database/gorm"
	infrasqlx "bloomwatch/internal/infra/database/sqlx"
	"bloomwatch/internal/infra/seed"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/msg"
)

func newMigrateCommand() *cobra.Command {
	var skipSeed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables and insert the seed regions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			gormDB, err := infragorm.Connect()
			if err != nil {
				return err
			}
			if sqlDB, err := gormDB.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err = infragorm.Migrate(gormDB); err != nil {
				return err
			}

			historyDB, err := infrasqlx.Connect()
			if err != nil {
				return err
			}
			defer historyDB.Close()
			if err = db.NewSqlxPredictionGateway(historyDB).Migrate(ctx); err != nil {
				return err
			}

			var inserted int64
			if !skipSeed {
				regions, err := seed.Regions()
				if err != nil {
					return err
				}
				useCase := region.NewRegionUseCase(db.NewGormRegionGateway(gormDB), db.NewGormWatchlistGateway(gormDB), nil, nil, region.Options{})
				if inserted, err = useCase.SeedRegions(ctx, regions); err != nil {
					return err
				}
			}
			log.Info(msg.GetMessage("app.migrate-done", inserted))
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "do not insert the seed regions")
	return cmd
}
