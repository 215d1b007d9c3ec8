package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceError_Unwrap(t *testing.T) {
	cause := errors.New("HTTP 429")
	err := &PriceError{Symbol: "AAPL", Kind: ErrRateLimited, Message: "rate limited", Cause: cause}

	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrAccessDenied))
	assert.Equal(t, "rate limited", err.Error())

	generic := &PriceError{Symbol: "AAPL", Message: "failed"}
	assert.False(t, errors.Is(generic, ErrRateLimited))
}

func TestNewStoreError(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := NewStoreError("failed to list transactions", cause)

	assert.True(t, IsStoreError(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "failed to list transactions")
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("quantity must be positive, got %s", "-1")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "validation failed: quantity must be positive, got -1", err.Error())
}

func TestTransactionKind_Valid(t *testing.T) {
	assert.True(t, KindBuy.Valid())
	assert.True(t, KindSell.Valid())
	assert.False(t, TransactionKind("buy").Valid())
	assert.False(t, TransactionKind("").Valid())
}
