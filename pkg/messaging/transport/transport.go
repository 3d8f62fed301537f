// Package transport opens the broker adapter named in the config.
package transport

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/pkg/messaging"
	"github.com/jwalitptl/scheduling-service/pkg/messaging/nats"
	"github.com/jwalitptl/scheduling-service/pkg/messaging/redis"
)

const (
	DriverNATS  = "nats"
	DriverRedis = "redis"
)

// Open connects to the broker. An empty driver selects NATS.
func Open(cfg messaging.Config, logger *zerolog.Logger) (messaging.Broker, error) {
	switch cfg.Driver {
	case DriverNATS, "":
		b, err := nats.Connect(cfg, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case DriverRedis:
		b, err := redis.Connect(cfg, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported broker driver %q", cfg.Driver)
	}
}
