package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestScopedValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), " req-1 ")
	ctx = WithClientIP(ctx, "10.0.0.1")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "10.0.0.1", ClientIPFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
