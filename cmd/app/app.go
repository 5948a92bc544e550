package app

import (
	"context"
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lottagg/raffle-api/internal/api"
	"github.com/lottagg/raffle-api/internal/chain"
	"github.com/lottagg/raffle-api/internal/config"
	"github.com/lottagg/raffle-api/internal/db"
	"github.com/lottagg/raffle-api/internal/logger"
	"github.com/lottagg/raffle-api/internal/repository/dao"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to initialize tables -> %w", err)
	}

	gateway, err := chain.NewGateway(context.Background(), conf.Chain)
	if err != nil {
		return fmt.Errorf("failed to initialize chain gateway -> %w", err)
	}

	s := api.NewServer(conf, postgresDB, gateway)

	// The reconciler sweep keeps rounds rotating and draws running even
	// with zero request traffic.
	scheduler := cron.New()
	if _, err = scheduler.AddFunc("@every 1m", func() {
		s.Reconciler.Run(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule reconciler -> %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}
