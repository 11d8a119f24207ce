// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hypercopy-trading/hypercopy/lib/chain"
	"github.com/hypercopy-trading/hypercopy/lib/config"
	"github.com/hypercopy-trading/hypercopy/lib/nodeclient"
)

// ConfigCheck validates the bot configuration file. Required: a bot
// with an invalid configuration must not trade.
func ConfigCheck(path string) Check {
	return Check{
		Name:     "config",
		Required: true,
		Probe: func(ctx context.Context) error {
			_, err := config.LoadFile(path)
			return err
		},
	}
}

// CacheCheck pings the Redis cache. Optional: the bot starts without a
// cache, it just re-fetches leader state from the API.
func CacheCheck(redisURL string) Check {
	return Check{
		Name:     "cache",
		Required: false,
		Probe: func(ctx context.Context) error {
			opts, err := redis.ParseURL(redisURL)
			if err != nil {
				return fmt.Errorf("invalid redis URL: %w", err)
			}
			client := redis.NewClient(opts)
			defer client.Close()
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping: %w", err)
			}
			return nil
		},
	}
}

// LocalNodeCheck probes the local node's info endpoint. Optional when
// the configuration permits public-API fallback.
func LocalNodeCheck(infoURL string, required bool) Check {
	client := nodeclient.NewLocal(infoURL)
	return Check{
		Name:     "node",
		Required: required,
		Probe:    client.ExchangeStatus,
	}
}

// PublicAPICheck probes the chain's public API host. Used in fallback
// mode, where the remote API is the only data source.
func PublicAPICheck(c chain.Chain, required bool) Check {
	client := nodeclient.NewPublic(c.APIBaseURL())
	return Check{
		Name:     "public-api",
		Required: required,
		Probe:    client.Meta,
	}
}
