package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/events/kafka"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/postgres"
	"github.com/api-sage/core-banking-ledger/src/internal/config"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/services"
	"golang.org/x/sync/errgroup"
)

const sweepBatchSize = 200

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	policies, err := config.LoadPolicyCatalog(cfg.PolicyCatalogPath)
	if err != nil {
		log.Fatalf("load policy catalog: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := postgres.RunMigrations(migrateCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	publisher := kafka.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	postingRepo := postgres.NewPostingRepository(db)
	lockPeriodRepo := postgres.NewLockPeriodRepository(db)
	approvalRepo := postgres.NewApprovalRepository(db)
	disputeRepo := postgres.NewDisputeRepository(db)
	loanRepo := postgres.NewLoanRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	rateRepo := postgres.NewRateRepository(db)
	staffRepo := postgres.NewStaffRepository(db)

	accountService := services.NewAccountService(accountRepo, policies)
	postingService := services.NewPostingService(postingRepo, lockPeriodRepo, approvalRepo, publisher)
	rateService := services.NewRateService(rateRepo)
	approvalService := services.NewApprovalService(approvalRepo, staffRepo)
	transactionService := services.NewTransactionService(transactionRepo, accountRepo, accountService, postingService, rateService, publisher, policies)
	reversalService := services.NewReversalService(transactionRepo, disputeRepo, postingService, approvalService, transactionService, publisher, policies)
	loanService := services.NewLoanService(loanRepo, scheduleRepo)
	periodLockService := services.NewPeriodLockService(lockPeriodRepo, staffRepo, approvalService)

	// Resolve anything a previous crash left mid-write before serving.
	recovered, err := postingService.RecoverIncomplete(ctx)
	if err != nil {
		log.Fatalf("recover incomplete postings: %v", err)
	}
	if recovered > 0 {
		log.Printf("rolled back %d incomplete postings", recovered)
	}

	authMiddleware := middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey)
	mux := router.New(
		authMiddleware,
		controller.NewAccountController(accountService),
		controller.NewTransactionController(transactionService),
		controller.NewReversalController(reversalService),
		controller.NewLoanController(loanService),
		controller.NewPeriodLockController(periodLockService),
		controller.NewApprovalController(approvalService),
	)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Printf("ledger core listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				expired, err := transactionService.ExpirePending(groupCtx, cfg.PendingExpiryHorizon, sweepBatchSize)
				if err != nil {
					log.Printf("expire pending sweep: %v", err)
					continue
				}
				if expired > 0 {
					log.Printf("expired %d pending transactions", expired)
				}
			}
		}
	})

	group.Go(func() error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				recovered, err := postingService.RecoverIncomplete(groupCtx)
				if err != nil {
					log.Printf("posting recovery sweep: %v", err)
					continue
				}
				if recovered > 0 {
					log.Printf("rolled back %d incomplete postings", recovered)
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("shutting down: %v", err)
	}
}
