// Command client is the rider-facing front end: it lists stations, quotes
// prices, books, edits and cancels reservations against the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"bikeshare/internal/api"
	"bikeshare/internal/config"
	"bikeshare/internal/repository"
	"bikeshare/internal/service"
	"bikeshare/internal/utils"

	"go.uber.org/zap"
)

const usage = `usage: client <command> [flags]

commands:
  stations   list stations with demand and availability
  price      quote a price, or print the full grid
  reserve    book a bike
  list       show your reservations
  edit       change date, time slot or station of a reservation
  cancel     cancel a reservation
  latest     show the latest reservation summary
  contact    send a message to support
  watch      refresh stations and reservations on a schedule
`

type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	client       *api.Client
	catalog      *service.CatalogService
	snapshots    *service.SnapshotStore
	reservations *service.ReservationService
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	store, closeStore, err := openSnapshotStore(cfg)
	if err != nil {
		logger.Warn("snapshot storage unavailable, keeping it in memory", zap.Error(err))
		store, closeStore = repository.NewMemoryStore(), func() error { return nil }
	}
	defer closeStore()

	a := newApp(cfg, logger, store)
	defer a.reservations.Wait()

	cmd, args := os.Args[1], os.Args[2:]
	if err := a.run(context.Background(), cmd, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, logger *zap.Logger, store repository.KeyValueStore) *app {
	client := api.NewClient(cfg.APIBaseURL,
		api.WithTimeout(cfg.Timeout()),
		api.WithRateLimit(cfg.RequestsPS),
		api.WithLogger(logger),
	)
	snapshots := service.NewSnapshotStore(store, cfg.SnapshotKey, logger)
	reservations := service.NewReservationService(client, snapshots, logger)

	notify := service.NewNotifyService(
		service.NewSendGridSender(cfg.SendGridAPIKey),
		service.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken),
		service.NotifyConfig{
			FromEmail:  cfg.SendGridFromEmail,
			FromName:   cfg.SendGridFromName,
			FromNumber: cfg.TwilioFromNumber,
			UserPhone:  cfg.UserPhone,
		},
		logger,
	)
	reservations.WithReceipts(notify)

	return &app{
		cfg:          cfg,
		logger:       logger,
		client:       client,
		catalog:      service.NewCatalogService(client, logger),
		snapshots:    snapshots,
		reservations: reservations,
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "stations":
		return a.stations(ctx, args)
	case "price":
		return a.price(args)
	case "reserve":
		return a.reserve(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "cancel":
		return a.cancel(ctx, args)
	case "latest":
		return a.latest(args)
	case "contact":
		return a.contact(ctx, args)
	case "watch":
		return a.watch(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
}

// openSnapshotStore picks the durable slot for the latest reservation.
func openSnapshotStore(cfg *config.Config) (repository.KeyValueStore, func() error, error) {
	switch cfg.SnapshotStore {
	case "memory":
		return repository.NewMemoryStore(), func() error { return nil }, nil
	case "postgres":
		s, err := repository.OpenPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		s, err := repository.OpenRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "sqlite", "":
		s, err := repository.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown SNAPSHOT_STORE %q", cfg.SnapshotStore)
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}
