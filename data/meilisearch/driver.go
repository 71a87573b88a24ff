// Package meilisearch registers the Meilisearch search driver:
//
//	import _ "github.com/ncobase/searchsync/data/meilisearch"
//
// Connect returns a *client.Client verified by a health check.
package meilisearch

import (
	"context"
	"fmt"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/data/config"
	"github.com/ncobase/searchsync/data/meilisearch/client"
)

// Name is the driver identifier used in configuration files.
const Name = "meilisearch"

// driver implements data.SearchDriver for Meilisearch.
type driver struct{}

func (d *driver) Name() string {
	return Name
}

func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	msCfg, ok := cfg.(*config.Meilisearch)
	if !ok || msCfg == nil {
		return nil, fmt.Errorf("meilisearch: invalid configuration type, expected *config.Meilisearch")
	}
	if msCfg.Host == "" {
		return nil, fmt.Errorf("meilisearch: host is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := client.NewMeilisearch(msCfg.Host, msCfg.APIKey)
	if _, err := c.Health(); err != nil {
		return nil, fmt.Errorf("meilisearch: health check failed: %w", err)
	}
	return c, nil
}

// Close is a no-op; the SDK keeps no connection state beyond its HTTP client.
func (d *driver) Close(conn any) error {
	if _, ok := conn.(*client.Client); !ok {
		return fmt.Errorf("meilisearch: invalid connection type, expected *client.Client")
	}
	return nil
}

func init() {
	data.RegisterSearchDriver(&driver{})
}
