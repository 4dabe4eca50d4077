package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestRefreshSetsServingStatus(t *testing.T) {
	s := NewGRPCServer(&cfg.GRPCConfig{Port: "0", NetworkMode: "tcp"}, logger.Nop())
	ctx := context.Background()

	healthy := true
	checks := map[string]Checker{
		"postgres": func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("down")
		},
	}

	s.refresh(ctx, checks)
	res, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.Status)

	healthy = false
	s.refresh(ctx, checks)
	res, err = s.health.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, res.Status)
}
