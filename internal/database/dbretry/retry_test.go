package dbretry_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldtrek/warden/internal/database/dbretry"
)

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "no rows", err: sql.ErrNoRows, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "sqlite busy", err: errors.New("database is locked (5) (SQLITE_BUSY)"), want: true},
		{name: "plain", err: errors.New("syntax error"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dbretry.IsRetryableError(tt.err))
		})
	}
}

func TestOperation(t *testing.T) {
	t.Parallel()

	t.Run("retries transient errors", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		got, err := dbretry.Operation(t.Context(), func(context.Context) (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errors.New("broken pipe")
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, attempts)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		err := dbretry.NoResult(t.Context(), func(context.Context) error {
			attempts++
			return sql.ErrNoRows
		})
		require.ErrorIs(t, err, sql.ErrNoRows)
		assert.Equal(t, 1, attempts)
	})
}
