// Package mongodb registers the MongoDB database driver, backed by the
// official mongo-driver:
//
//	import _ "github.com/ncobase/searchsync/data/mongodb"
//
// Connect returns a *mongo.Client; data.Data selects the configured
// database from it.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/data/config"
)

// Name is the driver identifier used in configuration files.
const Name = "mongodb"

const connectTimeout = 10 * time.Second

// driver implements data.DatabaseDriver for MongoDB.
type driver struct{}

func (d *driver) Name() string {
	return Name
}

func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	mongoCfg, ok := cfg.(*config.MongoDB)
	if !ok || mongoCfg == nil {
		return nil, fmt.Errorf("mongodb: invalid configuration type, expected *config.MongoDB")
	}
	if mongoCfg.URI == "" {
		return nil, errors.New("mongodb: URI is empty")
	}

	opts := options.Client().
		ApplyURI(mongoCfg.URI).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("mongodb: invalid URI: %w", err)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: failed to connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: failed to ping: %w", err)
	}
	return client, nil
}

func (d *driver) Close(conn any) error {
	client, ok := conn.(*mongo.Client)
	if !ok {
		return fmt.Errorf("mongodb: invalid connection type, expected *mongo.Client")
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongodb: failed to disconnect: %w", err)
	}
	return nil
}

func (d *driver) Ping(ctx context.Context, conn any) error {
	client, ok := conn.(*mongo.Client)
	if !ok {
		return fmt.Errorf("mongodb: invalid connection type, expected *mongo.Client")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb: ping failed: %w", err)
	}
	return nil
}

func init() {
	data.RegisterDatabaseDriver(&driver{})
}
