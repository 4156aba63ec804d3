package server

import (
	"context"
	"log/slog"
)

type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

type OkHealthChecker struct {
}

func NewOkHealthChecker() *OkHealthChecker {
	return &OkHealthChecker{}
}

func (hc *OkHealthChecker) Healthy(ctx context.Context) bool {
	return true
}

// PingHealthChecker adapts a Ping method, such as a Redis client's, to HealthChecker.
type PingHealthChecker struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingHealthChecker(name string, ping func(ctx context.Context) error) *PingHealthChecker {
	return &PingHealthChecker{name: name, ping: ping}
}

func (hc *PingHealthChecker) Healthy(ctx context.Context) bool {
	if err := hc.ping(ctx); err != nil {
		slog.Warn("health check failed", "dependency", hc.name, "error", err)
		return false
	}
	return true
}

// CompositeHealthChecker is healthy only when every member is.
type CompositeHealthChecker []HealthChecker

func (c CompositeHealthChecker) Healthy(ctx context.Context) bool {
	for _, hc := range c {
		if !hc.Healthy(ctx) {
			return false
		}
	}
	return true
}
