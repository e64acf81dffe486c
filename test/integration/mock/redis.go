package mock

import (
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Redis is an in-process server carrying one scenario's change channels.
// Each scenario starts its own, so no subscription outlives the scenario.
type Redis struct {
	server *miniredis.Miniredis
	client *redis.Client
}

// StartRedis starts an empty server and connects a client to it.
func StartRedis() (*Redis, error) {
	server, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start miniredis: %w", err)
	}
	return &Redis{
		server: server,
		client: redis.NewClient(&redis.Options{Addr: server.Addr()}),
	}, nil
}

// Client returns the client handed to the injector.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Close disconnects the client and stops the server.
func (r *Redis) Close() {
	_ = r.client.Close()
	r.server.Close()
}
