package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/finops/budget-approval/internal/application/service"
	"github.com/finops/budget-approval/internal/config"
	"github.com/finops/budget-approval/internal/identity"
	httpadapter "github.com/finops/budget-approval/internal/interfaces/http"
	"github.com/finops/budget-approval/internal/repository"
	"github.com/finops/budget-approval/migrations"
	"github.com/finops/budget-approval/pkg/database"
	"github.com/finops/budget-approval/pkg/logger"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting budget approval service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, log)
	if err := migrator.Run(migrations.FS, "."); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories and transaction manager
	txManager := repository.NewDB(db, log)
	budgetRepo := repository.NewBudgetRepository(db, log)
	requestRepo := repository.NewRequestRepository(db, log)
	expenseRepo := repository.NewExpenseRepository(db, log)
	historyRepo := repository.NewHistoryRepository(db, log)
	catalogRepo := repository.NewCatalogRepository(db, log)

	// Application services
	sugar := log.Sugar()
	budgetService := service.NewBudgetService(budgetRepo, requestRepo, catalogRepo, txManager, sugar)
	requestService := service.NewRequestService(budgetRepo, requestRepo, expenseRepo, historyRepo, txManager, sugar)
	expenseService := service.NewExpenseService(budgetRepo, requestRepo, expenseRepo, txManager, sugar)
	historyService := service.NewHistoryService(historyRepo, sugar)
	reportService := service.NewReportService(budgetRepo, requestRepo, catalogRepo, sugar)

	identityProvider := identity.NewDefaultProvider()

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, httpadapter.Services{
		Budgets:  budgetService,
		Requests: requestService,
		Expenses: expenseService,
		History:  historyService,
		Reports:  reportService,
		Catalog:  catalogRepo,
		Identity: identityProvider,
	}, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}

	log.Info("Server exited")
}
