// Package shard provides shard key generation for distributed DynamoDB indexes.
package shard

import (
	"fmt"
	"hash/fnv"
)

// TypePK computes the sharded type-index partition key for a document.
// With numShards=1, all documents of a type go to shard "00".
// With numShards>1, documents are distributed across shards based on id hash.
func TypePK(docType, id string, numShards int) string {
	if numShards <= 1 {
		return Key(docType, 0)
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	return Key(docType, int(h.Sum32()%uint32(numShards)))
}

// Key returns the partition key of one shard of a document type.
func Key(docType string, shard int) string {
	return fmt.Sprintf("%s#%02x", docType, shard)
}

// Keys returns the partition keys of every shard of a document type.
func Keys(docType string, numShards int) []string {
	if numShards < 1 {
		numShards = 1
	}
	keys := make([]string, numShards)
	for i := range keys {
		keys[i] = Key(docType, i)
	}
	return keys
}
