package runtime

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// Pinger checks that a container engine daemon answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EnginePinger pings the Docker Engine API. Host overrides DOCKER_HOST.
type EnginePinger struct {
	Host string
}

// Ping opens a short-lived client and pings the daemon.
func (e *EnginePinger) Ping(ctx context.Context) error {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if e.Host != "" {
		opts = append(opts, client.WithHost(e.Host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return fmt.Errorf("create docker client: %w", err)
	}
	defer cli.Close()

	var ping types.Ping
	ping, err = cli.Ping(ctx)
	if err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	if ping.APIVersion == "" {
		return fmt.Errorf("docker ping returned empty API version")
	}
	return nil
}
