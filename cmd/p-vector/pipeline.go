package main

import (
	"context"
	"fmt"

	"github.com/aosc-dev/p-vector/internal/config"
	"github.com/aosc-dev/p-vector/internal/notify"
	"github.com/aosc-dev/p-vector/internal/sign"
	"github.com/aosc-dev/p-vector/internal/store"
)

// changeNotificationChannel is the fixed pub/sub channel name every
// change notification is published to; spec.md §4.7 names the payload
// shape but leaves the channel name to the deployment, so this is a
// single constant rather than a new config key.
const changeNotificationChannel = "p-vector-changes"

// openStore opens the database pool a command needs, validating the
// connection string is configured (a user error, not a fatal one).
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if cfg.DBConnString == "" {
		return nil, fmt.Errorf("db_pgconn must be set in the configuration")
	}
	return store.Open(ctx, cfg.DBConnString)
}

// loadNotifier builds the configured Notifier, defaulting to a no-op
// when change_notifier is unset or "null" per spec.md §6.
func loadNotifier(cfg *config.Config) (notify.Notifier, error) {
	if cfg.ChangeNotifier == "" || cfg.ChangeNotifier == "null" {
		return notify.NopNotifier{}, nil
	}
	return notify.NewRedisNotifier(cfg.ChangeNotifier)
}

// loadSigner builds the Release signer from the configured certificate
// path, required for any command that emits dists/.
func loadSigner(cfg *config.Config) (sign.Signer, error) {
	if cfg.Certificate == "" {
		return nil, fmt.Errorf("certificate must be set in the configuration to sign Release")
	}
	return sign.LoadSigner(cfg.Certificate)
}
