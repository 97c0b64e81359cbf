// Package shard provides shard key generation for the assignment table.
package shard

import (
	"fmt"
	"hash/fnv"
)

// AssignmentPK computes the sharded partition key for an assignment record.
// With numShards=1, all of a boat's assignments go to shard "00".
// With numShards>1, assignments are distributed across shards based on the
// load reference hash.
func AssignmentPK(boatRef, loadRef string, numShards int) string {
	if numShards <= 1 {
		return fmt.Sprintf("%s#00", boatRef)
	}
	h := fnv.New32a()
	h.Write([]byte(loadRef))
	shard := h.Sum32() % uint32(numShards)
	return fmt.Sprintf("%s#%02x", boatRef, shard)
}
