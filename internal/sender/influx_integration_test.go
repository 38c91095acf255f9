//go:build integration

package sender

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/speedwagon-io/weatherflux/internal/config"
	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
)

func TestInfluxWriter_Integration(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "weatherflux",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "weatherflux-password",
			"DOCKER_INFLUXDB_INIT_ORG":         "home",
			"DOCKER_INFLUXDB_INIT_BUCKET":      "weather",
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": "integration-token",
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8086/tcp")
	require.NoError(t, err)

	w := NewInfluxWriter(sl.Discard(), config.InfluxConfig{
		URL:    fmt.Sprintf("http://%s:%s", host, port.Port()),
		Org:    "home",
		Token:  "integration-token",
		Bucket: "weather",
	}, 10*time.Second)
	defer w.Close()

	require.NoError(t, w.Health(ctx))
	require.NoError(t, w.Write(ctx, "AR001_event,event=strike,host=h1 strike_distance=3200,strike_energy=150000"))
}
