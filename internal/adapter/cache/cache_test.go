package cache

import (
	"context"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Noop

	assert.NoError(t, c.Set(ctx, "live:h1", []byte("{}")))

	_, err := c.Get(ctx, "live:h1")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Delete(ctx, "live:h1"))
}

func TestNewRedisClient_NoAddrs(t *testing.T) {
	_, err := NewRedisClient(nil)
	assert.Error(t, err)
}
