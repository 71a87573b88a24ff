// Package rabbitmq registers the RabbitMQ message driver, backed by
// amqp091-go:
//
//	import _ "github.com/ncobase/searchsync/data/rabbitmq"
//
// Connect returns an *amqp.Connection; the rabbitmq queue connection opens
// its channels on it.
package rabbitmq

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/data/config"
)

// Name is the driver identifier used in configuration files.
const Name = "rabbitmq"

// driver implements data.MessageDriver for RabbitMQ.
type driver struct{}

func (d *driver) Name() string {
	return Name
}

// DialURL builds the AMQP URL. A URL without scheme is taken as host:port
// and combined with the credentials and vhost.
func DialURL(cfg *config.RabbitMQ) (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("rabbitmq: URL is empty")
	}
	if strings.HasPrefix(cfg.URL, "amqp://") || strings.HasPrefix(cfg.URL, "amqps://") {
		return cfg.URL, nil
	}

	u := url.URL{Scheme: "amqp", Host: cfg.URL}
	if cfg.Username != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	if cfg.Vhost != "" {
		u.Path = "/" + strings.TrimPrefix(cfg.Vhost, "/")
	}
	return u.String(), nil
}

func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	rmqCfg, ok := cfg.(*config.RabbitMQ)
	if !ok || rmqCfg == nil {
		return nil, fmt.Errorf("rabbitmq: invalid configuration type, expected *config.RabbitMQ")
	}
	connURL, err := DialURL(rmqCfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	amqpCfg := amqp.Config{Heartbeat: rmqCfg.HeartbeatInterval}
	conn, err := amqp.DialConfig(connURL, amqpCfg)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to connect: %w", err)
	}
	return conn, nil
}

func (d *driver) Close(conn any) error {
	amqpConn, ok := conn.(*amqp.Connection)
	if !ok {
		return fmt.Errorf("rabbitmq: invalid connection type, expected *amqp.Connection")
	}
	if amqpConn.IsClosed() {
		return nil
	}
	if err := amqpConn.Close(); err != nil {
		return fmt.Errorf("rabbitmq: failed to close connection: %w", err)
	}
	return nil
}

func init() {
	data.RegisterMessageDriver(&driver{})
}
