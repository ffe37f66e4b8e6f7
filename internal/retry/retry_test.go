package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{MaxRetries: 2, Backoff: time.Millisecond}
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	deadlock := &pgconn.PgError{Code: "40P01"}
	err := fastPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return fmt.Errorf("update: %w", deadlock)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls, "one attempt plus two retries")

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}

func TestDo_DoesNotRetryPermanentErrors(t *testing.T) {
	cases := map[string]error{
		"unique violation": &pgconn.PgError{Code: "23505"},
		"fk violation":     &pgconn.PgError{Code: "23503"},
		"app error":        apperror.New(apperror.CodeValidation, "bad"),
		"plain":            errors.New("boom"),
		"canceled":         context.Canceled,
	}
	for name, failure := range cases {
		t.Run(name, func(t *testing.T) {
			calls := 0
			err := fastPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
				calls++
				return failure
			})
			assert.ErrorIs(t, err, failure)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&pgconn.PgError{Code: "08006"}))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40001"})))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(context.DeadlineExceeded))
}
