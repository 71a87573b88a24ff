package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/meilisearch/meilisearch-go"
)

// ErrNilClient is returned by every method of a Client built without a host.
var ErrNilClient = errors.New("meilisearch client is nil")

// Client Meilisearch client wrapper
type Client struct {
	client meilisearch.ServiceManager
}

// NewMeilisearch creates new Meilisearch client
func NewMeilisearch(host, apiKey string) *Client {
	if host == "" {
		return &Client{client: nil}
	}
	ms := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	return &Client{client: ms}
}

// NewFromServiceManager wraps an existing SDK client.
func NewFromServiceManager(sm meilisearch.ServiceManager) *Client {
	return &Client{client: sm}
}

// GetClient returns the underlying meilisearch client
func (c *Client) GetClient() meilisearch.ServiceManager {
	if c == nil {
		return nil
	}
	return c.client
}

func (c *Client) ready(op string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("%w, cannot %s", ErrNilClient, op)
	}
	return nil
}

// Search searches one index
func (c *Client) Search(ctx context.Context, index, query string, options *meilisearch.SearchRequest) (*meilisearch.SearchResponse, error) {
	if err := c.ready("perform search"); err != nil {
		return nil, err
	}
	resp, err := c.client.Index(index).SearchWithContext(ctx, query, options)
	if err != nil {
		return nil, fmt.Errorf("meilisearch search error: %w", err)
	}
	return resp, nil
}

// AddDocuments adds or replaces documents keyed by primaryKey
func (c *Client) AddDocuments(index string, documents []map[string]any, primaryKey string) (*meilisearch.TaskInfo, error) {
	if err := c.ready("add documents"); err != nil {
		return nil, err
	}

	var pk *string
	if primaryKey != "" {
		pk = &primaryKey
	}

	info, err := c.client.Index(index).AddDocuments(documents, &meilisearch.DocumentOptions{PrimaryKey: pk})
	if err != nil {
		return nil, fmt.Errorf("meilisearch add documents error: %w", err)
	}
	return info, nil
}

// DeleteDocuments deletes documents by id
func (c *Client) DeleteDocuments(index string, documentIDs ...string) (*meilisearch.TaskInfo, error) {
	if err := c.ready("delete documents"); err != nil {
		return nil, err
	}
	if len(documentIDs) == 0 {
		return nil, errors.New("no document IDs provided")
	}

	info, err := c.client.Index(index).DeleteDocuments(documentIDs, nil)
	if err != nil {
		return nil, fmt.Errorf("meilisearch delete documents error: %w", err)
	}
	return info, nil
}

// DeleteAllDocuments deletes all documents from an index
func (c *Client) DeleteAllDocuments(index string) (*meilisearch.TaskInfo, error) {
	if err := c.ready("delete all documents"); err != nil {
		return nil, err
	}

	info, err := c.client.Index(index).DeleteAllDocuments(nil)
	if err != nil {
		return nil, fmt.Errorf("meilisearch delete all documents error: %w", err)
	}
	return info, nil
}

// Health checks if Meilisearch is healthy
func (c *Client) Health() (*meilisearch.Health, error) {
	if err := c.ready("check health"); err != nil {
		return nil, err
	}

	health, err := c.client.Health()
	if err != nil {
		return nil, fmt.Errorf("meilisearch health check error: %w", err)
	}
	return health, nil
}

// IsHealthy checks if Meilisearch is healthy (convenience method)
func (c *Client) IsHealthy() bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.client.IsHealthy()
}

// ListIndexes lists indexes
func (c *Client) ListIndexes(query *meilisearch.IndexesQuery) (*meilisearch.IndexesResults, error) {
	if err := c.ready("list indexes"); err != nil {
		return nil, err
	}

	indexes, err := c.client.ListIndexes(query)
	if err != nil {
		return nil, fmt.Errorf("meilisearch list indexes error: %w", err)
	}
	return indexes, nil
}

// GetIndex gets a specific index from Meilisearch
func (c *Client) GetIndex(indexUID string) (*meilisearch.IndexResult, error) {
	if err := c.ready("get index"); err != nil {
		return nil, err
	}

	index, err := c.client.GetIndex(indexUID)
	if err != nil {
		return nil, fmt.Errorf("meilisearch get index error: %w", err)
	}
	return index, nil
}

// CreateIndex creates a new index in Meilisearch
func (c *Client) CreateIndex(indexUID, primaryKey string) (*meilisearch.TaskInfo, error) {
	if err := c.ready("create index"); err != nil {
		return nil, err
	}

	info, err := c.client.CreateIndex(&meilisearch.IndexConfig{Uid: indexUID, PrimaryKey: primaryKey})
	if err != nil {
		return nil, fmt.Errorf("meilisearch create index error: %w", err)
	}
	return info, nil
}

// DeleteIndex deletes an index from Meilisearch
func (c *Client) DeleteIndex(indexUID string) (*meilisearch.TaskInfo, error) {
	if err := c.ready("delete index"); err != nil {
		return nil, err
	}

	info, err := c.client.DeleteIndex(indexUID)
	if err != nil {
		return nil, fmt.Errorf("meilisearch delete index error: %w", err)
	}
	return info, nil
}

// GetTask gets task information
func (c *Client) GetTask(taskUID int64) (*meilisearch.Task, error) {
	if err := c.ready("get task"); err != nil {
		return nil, err
	}

	task, err := c.client.GetTask(taskUID)
	if err != nil {
		return nil, fmt.Errorf("meilisearch get task error: %w", err)
	}
	return task, nil
}

// GetIndexStats gets stats for a specific index
func (c *Client) GetIndexStats(indexUID string) (*meilisearch.StatsIndex, error) {
	if err := c.ready("get index stats"); err != nil {
		return nil, err
	}

	stats, err := c.client.Index(indexUID).GetStats()
	if err != nil {
		return nil, fmt.Errorf("meilisearch get index stats error: %w", err)
	}
	return stats, nil
}

// GetSettings gets the settings of an index
func (c *Client) GetSettings(indexUID string) (*meilisearch.Settings, error) {
	if err := c.ready("get settings"); err != nil {
		return nil, err
	}

	settings, err := c.client.Index(indexUID).GetSettings()
	if err != nil {
		return nil, fmt.Errorf("meilisearch get settings error: %w", err)
	}
	return settings, nil
}

// UpdateSettings updates the settings of an index
func (c *Client) UpdateSettings(indexUID string, settings *meilisearch.Settings) (*meilisearch.TaskInfo, error) {
	if err := c.ready("update settings"); err != nil {
		return nil, err
	}

	info, err := c.client.Index(indexUID).UpdateSettings(settings)
	if err != nil {
		return nil, fmt.Errorf("meilisearch update settings error: %w", err)
	}
	return info, nil
}

// GetVersion gets Meilisearch version
func (c *Client) GetVersion() (*meilisearch.Version, error) {
	if err := c.ready("get version"); err != nil {
		return nil, err
	}

	version, err := c.client.Version()
	if err != nil {
		return nil, fmt.Errorf("meilisearch get version error: %w", err)
	}
	return version, nil
}
