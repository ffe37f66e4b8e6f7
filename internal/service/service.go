package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/events"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/retry"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is the pool: it runs plain reads and starts transactions.
// Satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	TxBeginner
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Publisher events.Publisher
	Logger    *logger.Logger
	Retry     retry.Policy
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = events.Nop()
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// inTx runs fn in a transaction under the retry policy. fn must not have
// side effects outside the transaction.
func (d Deps) inTx(ctx context.Context, db TxBeginner, operation string, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return d.Retry.Do(ctx, operation, func(ctx context.Context) error {
		tx, err := db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx) //nolint:errcheck

		if err := fn(ctx, tx); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// publish sends a committed change downstream. Failures are logged only.
func (d Deps) publish(ctx context.Context, eventType, location, key string, payload any) {
	event, err := events.New(eventType, location, key, middleware.GetReqID(ctx), payload)
	if err == nil {
		err = d.Publisher.Publish(ctx, event)
	}
	if err != nil {
		logCtx := d.Logger.WithFields(ctx, map[string]any{"event_type": eventType, "key": key})
		d.Logger.Error(logCtx, "event.publish_failed", err)
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	return apperror.Is(apperror.FromPg(err, ""), apperror.CodeConflict)
}

// canonicalLocation matches s against the configured locations case-insensitively.
func canonicalLocation(locations []string, s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, loc := range locations {
		if strings.EqualFold(loc, s) {
			return loc, true
		}
	}
	return "", false
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pageBounds(limit, offset int32) (int32, int32) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
