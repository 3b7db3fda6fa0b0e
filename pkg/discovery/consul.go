// Package discovery registers the service with a Consul agent.
package discovery

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/consul/api"
)

// Registration describes one service instance
type Registration struct {
	ID      string
	Name    string
	Address string
	Port    string
	Tags    []string
}

// ConsulClient registers and deregisters service instances
type ConsulClient struct {
	client *api.Client
}

// NewConsulClient creates a client for the agent at address (host:port or URL)
func NewConsulClient(address string) (*ConsulClient, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ConsulClient{client: client}, nil
}

// Register registers r with an HTTP health check on /health
func (c *ConsulClient) Register(r Registration) error {
	port, err := strconv.Atoi(r.Port)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", r.Port, err)
	}

	host := r.Address
	if host == "" {
		host = r.ID
	}

	return c.client.Agent().ServiceRegister(&api.AgentServiceRegistration{
		ID:      r.ID,
		Name:    r.Name,
		Address: r.Address,
		Port:    port,
		Tags:    r.Tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", host, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	})
}

// Deregister removes a service instance
func (c *ConsulClient) Deregister(id string) error {
	return c.client.Agent().ServiceDeregister(id)
}
