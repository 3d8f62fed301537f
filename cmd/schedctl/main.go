// Command schedctl sends one request to the scheduling service and prints
// the reply.
//
//	schedctl <topic> [json|-]
//
// A payload of "-" is read from stdin; no payload sends "{}".
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/pkg/messaging"
	"github.com/jwalitptl/scheduling-service/pkg/messaging/transport"
)

type Config struct {
	Driver         string        `envconfig:"BROKER_DRIVER" default:"nats"`
	URL            string        `envconfig:"BROKER_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5000ms"`
}

type dialFunc func(cfg messaging.Config, logger *zerolog.Logger) (messaging.Broker, error)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, transport.Open))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, dial dialFunc) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(stderr, "usage: schedctl <topic> [json|-]")
		return 2
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}

	payload, err := readPayload(args, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "payload: %v\n", err)
		return 2
	}

	log := zerolog.New(stderr).Level(zerolog.WarnLevel)
	broker, err := dial(messaging.Config{
		Driver:         cfg.Driver,
		URL:            cfg.URL,
		Name:           "schedctl",
		RequestTimeout: cfg.RequestTimeout,
	}, &log)
	if err != nil {
		fmt.Fprintf(stderr, "connect: %v\n", err)
		return 1
	}
	defer broker.Close()

	reply, err := broker.Request(context.Background(), args[0], payload)
	if err != nil {
		if errors.Is(err, messaging.ErrTimeout) {
			fmt.Fprintf(stderr, "no reply on %s within %s\n", args[0], cfg.RequestTimeout)
		} else {
			fmt.Fprintf(stderr, "request: %v\n", err)
		}
		return 1
	}

	fmt.Fprintln(stdout, string(reply))
	return 0
}

func readPayload(args []string, stdin io.Reader) ([]byte, error) {
	if len(args) < 2 {
		return []byte("{}"), nil
	}
	if args[1] == "-" {
		return io.ReadAll(stdin)
	}
	return []byte(args[1]), nil
}
