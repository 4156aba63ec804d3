package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositeHealthChecker(t *testing.T) {
	ctx := context.Background()
	up := NewPingHealthChecker("redis", func(context.Context) error { return nil })
	down := NewPingHealthChecker("redis", func(context.Context) error { return errors.New("connection refused") })

	assert.True(t, CompositeHealthChecker{NewOkHealthChecker(), up}.Healthy(ctx))
	assert.False(t, CompositeHealthChecker{NewOkHealthChecker(), down}.Healthy(ctx))
	assert.True(t, CompositeHealthChecker{}.Healthy(ctx))
}
