package metadatastore

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestErrorImplementsError(t *testing.T) {
	err := newError(InvalidDatasetID, "no such dataset")
	assert.Equal(t, "no such dataset", err.Error())
	assert.Equal(t, InvalidDatasetID, err.Kind)
}

func TestIsConnectionErrorClassifiesMySQLErrorAsNonRetryable(t *testing.T) {
	err := &mysql.MySQLError{Number: 1045, Message: "access denied"}
	assert.False(t, isConnectionError(err))
}

func TestIsConnectionErrorClassifiesInvalidConnAsRetryable(t *testing.T) {
	assert.True(t, isConnectionError(mysql.ErrInvalidConn))
}

func TestWithRetryStopsAfterThreeAttemptsOnConnectionError(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		return mysql.ErrInvalidConn
	})
	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("expected a *Error, got %T: %v", err, err)
	}
	assert.Equal(t, SQLConnectionError, me.Kind)
	assert.Equal(t, maxReconnectRetries, attempts)
}

func TestWithRetryDoesNotRetryQueryErrors(t *testing.T) {
	attempts := 0
	sentinel := errors.New("duplicate key")
	err := withRetry(context.Background(), func() error {
		attempts++
		return sentinel
	})
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, sentinel)
}

func TestWithRetrySucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return mysql.ErrInvalidConn
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}
