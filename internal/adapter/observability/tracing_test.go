package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-matcher/internal/config"
)

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}

func TestSetupTracing_WithEndpoint(t *testing.T) {
	cfg := config.Config{OTLPEndpoint: "localhost:4317", OTELServiceName: "cv-matcher-test", AppEnv: "test"}

	// the gRPC exporter connects lazily, so setup succeeds without a collector
	shutdown, err := SetupTracing(cfg)
	if err != nil {
		assert.Nil(t, shutdown)
		return
	}
	require.NotNil(t, shutdown)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
