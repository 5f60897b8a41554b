package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeConfig, "order count must not be negative")

	assert.Equal(t, ErrorTypeConfig, err.Type)
	assert.Equal(t, "config: order count must not be negative", err.Error())
	assert.NotEmpty(t, err.Stack)
	assert.Nil(t, err.Cause)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeReference, "table %q is empty", "restaurants")
	assert.Equal(t, `reference: table "restaurants" is empty`, err.Error())
}

func TestWrap(t *testing.T) {
	underlying := io.ErrUnexpectedEOF
	err := Wrap(underlying, ErrorTypeWrite, "insert batch failed")

	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeWrite, err.Type)
	assert.Equal(t, "write: insert batch failed: unexpected EOF", err.Error())
	assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeWrite, "no-op"))
}

func TestWrapPreservesStackAndDetails(t *testing.T) {
	inner := New(ErrorTypeIntegrity, "no dimension row for natural key").
		WithTable("fact_table").
		WithKey("order-17")
	outer := Wrap(inner, ErrorTypeInternal, "transform failed")

	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Equal(t, "fact_table", outer.Table())
	assert.Equal(t, "order-17", outer.Details["key"])
}

func TestWithDetailChaining(t *testing.T) {
	err := New(ErrorTypeWrite, "destination rejected batch").
		WithTable("order_items_fact").
		WithRowRange(1000, 1500).
		WithDetail("mode", "upsert")

	assert.Equal(t, "order_items_fact", err.Table())
	assert.Equal(t, "[1000,1500)", err.Details["row_range"])
	assert.Equal(t, "upsert", err.Details["mode"])
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"write error", New(ErrorTypeWrite, "connection reset"), true},
		{"timeout error", New(ErrorTypeTimeout, "load exceeded deadline"), true},
		{"config error", New(ErrorTypeConfig, "negative count"), false},
		{"reference error", New(ErrorTypeReference, "empty table"), false},
		{"integrity error", New(ErrorTypeIntegrity, "orphan key"), false},
		{"internal error", New(ErrorTypeInternal, "bug"), false},
		{"plain error", fmt.Errorf("plain"), false},
		{"wrapped write error", fmt.Errorf("outer: %w", New(ErrorTypeWrite, "inner")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeReference, "customers table is empty").WithTable("customers")

	assert.True(t, IsType(err, ErrorTypeReference))
	assert.False(t, IsType(err, ErrorTypeConfig))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeReference))

	// classification must survive fmt wrapping
	wrapped := fmt.Errorf("stage generate: %w", err)
	assert.True(t, IsType(wrapped, ErrorTypeReference))
}

func TestTableOnBareError(t *testing.T) {
	err := New(ErrorTypeInternal, "no table attached")
	assert.Equal(t, "", err.Table())
}
