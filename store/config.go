package store

import "time"

// Config holds configuration for the Store.
type Config struct {
	// TableName is the DynamoDB table holding lists and items, keyed by "id".
	// Default: "shopping_lists"
	TableName string

	// TypeIndex is the GSI serving selectors on type (type_shard, id).
	// Default: "type-index"
	TypeIndex string

	// ListIndex is the GSI serving selectors on list_id (list_id, id).
	// Default: "list-index"
	ListIndex string

	// NumShards is the number of type index partitions per document type.
	// Higher values spread writes of a single type but require parallel queries.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int

	// TombstoneTTL is how long deleted documents are kept before DynamoDB TTL
	// reaps them. Zero keeps tombstones forever. Once a tombstone is reaped its
	// id can be created again.
	// Default: 0 (forever)
	TombstoneTTL time.Duration

	// BulkConcurrency bounds the number of in-flight writes of a BulkPut.
	// Default: 8
	// Max: 64
	BulkConcurrency int

	// IndexPollInterval is how often CreateIndex checks a building index.
	// Default: 5s
	IndexPollInterval time.Duration

	// IndexTimeout bounds how long CreateIndex waits for an index to become
	// ACTIVE.
	// Default: 10m
	IndexTimeout time.Duration
}

// DefaultConfig returns sensible defaults for small datasets.
func DefaultConfig() Config {
	return Config{
		TableName:         "shopping_lists",
		TypeIndex:         "type-index",
		ListIndex:         "list-index",
		NumShards:         1,
		TombstoneTTL:      0,
		BulkConcurrency:   8,
		IndexPollInterval: 5 * time.Second,
		IndexTimeout:      10 * time.Minute,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "shopping_lists"
	}
	if c.TypeIndex == "" {
		c.TypeIndex = "type-index"
	}
	if c.ListIndex == "" {
		c.ListIndex = "list-index"
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > 256 {
		c.NumShards = 256
	}
	if c.TombstoneTTL < 0 {
		c.TombstoneTTL = 0
	}
	if c.BulkConcurrency < 1 {
		c.BulkConcurrency = 8
	}
	if c.BulkConcurrency > 64 {
		c.BulkConcurrency = 64
	}
	if c.IndexPollInterval <= 0 {
		c.IndexPollInterval = 5 * time.Second
	}
	if c.IndexTimeout <= 0 {
		c.IndexTimeout = 10 * time.Minute
	}
}
