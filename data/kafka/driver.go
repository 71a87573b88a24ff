// Package kafka registers the Kafka message driver, backed by kafka-go:
//
//	import _ "github.com/ncobase/searchsync/data/kafka"
//
// Connect verifies a broker is reachable and returns a *Cluster that hands
// out writers and group readers for topics.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/data/config"
)

// Name is the driver identifier used in configuration files.
const Name = "kafka"

// Cluster is a configured set of brokers.
type Cluster struct {
	cfg    config.Kafka
	dialer *kafka.Dialer
}

// NewCluster creates a Cluster without contacting the brokers.
func NewCluster(cfg *config.Kafka) (*Cluster, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: brokers are empty")
	}
	return &Cluster{
		cfg: *cfg,
		dialer: &kafka.Dialer{
			ClientID:  cfg.ClientID,
			Timeout:   10 * time.Second,
			DualStack: true,
		},
	}, nil
}

// Brokers returns the broker addresses.
func (c *Cluster) Brokers() []string { return c.cfg.Brokers }

// ConsumerGroup returns the configured consumer group.
func (c *Cluster) ConsumerGroup() string { return c.cfg.ConsumerGroup }

// Writer returns a synchronous writer for topic. Messages with the same key
// land on the same partition.
func (c *Cluster) Writer(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           c.cfg.WriteTimeout,
		ReadTimeout:            c.cfg.ReadTimeout,
	}
}

// Reader returns a consumer-group reader for topic. Offsets are committed
// explicitly by the caller.
func (c *Cluster) Reader(topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.cfg.Brokers,
		GroupID:        c.cfg.ConsumerGroup,
		Topic:          topic,
		Dialer:         c.dialer,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
}

// Ping dials the first reachable broker.
func (c *Cluster) Ping(ctx context.Context) error {
	var lastErr error
	for _, broker := range c.cfg.Brokers {
		conn, err := c.dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("kafka: no broker reachable: %w", lastErr)
}

// driver implements data.MessageDriver for Kafka.
type driver struct{}

func (d *driver) Name() string {
	return Name
}

func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	kafkaCfg, ok := cfg.(*config.Kafka)
	if !ok {
		return nil, fmt.Errorf("kafka: invalid configuration type, expected *config.Kafka")
	}
	cluster, err := NewCluster(kafkaCfg)
	if err != nil {
		return nil, err
	}
	if err := cluster.Ping(ctx); err != nil {
		return nil, err
	}
	return cluster, nil
}

// Close is a no-op; writers and readers are closed by their owners.
func (d *driver) Close(conn any) error {
	if _, ok := conn.(*Cluster); !ok {
		return fmt.Errorf("kafka: invalid connection type, expected *kafka.Cluster")
	}
	return nil
}

func init() {
	data.RegisterMessageDriver(&driver{})
}
