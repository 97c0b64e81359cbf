package store

import (
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/slipway/entity"
)

// PK represents a DynamoDB primary key.
type PK map[string]types.AttributeValue

// Record is a persisted entity: its field values plus the store-assigned
// identifier and the key handle required for update and delete.
type Record struct {
	// ID is the store-assigned numeric identifier.
	ID int64

	// Kind is the entity kind discriminator.
	Kind entity.Kind

	// Key is the opaque key handle for update/delete operations.
	Key PK

	// Fields holds the stored field values, excluding bookkeeping attributes.
	Fields entity.Fields
}

// Ref returns the type-qualified record reference (e.g. "boat#1234").
func (r *Record) Ref() string {
	return strings.ToLower(string(r.Kind)) + "#" + strconv.FormatInt(r.ID, 10)
}

// AssignedLoad is a reference to a load carried by a boat, as stored in the
// assignment table.
type AssignedLoad struct {
	// Ref is the load's record reference.
	Ref string

	// ID is the load's numeric identifier.
	ID int64

	// TableName is the table containing the load.
	TableName string

	// Key is the primary key to locate the load.
	Key PK

	// ShardPK is the assignment table partition key (for row cleanup).
	ShardPK string
}

// keyFor builds the primary key for a record identifier.
func keyFor(id int64) PK {
	return PK{
		"id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
}

// unmarshalRecord converts a raw DynamoDB item to a Record.
func (s *Store) unmarshalRecord(kind entity.Kind, raw map[string]types.AttributeValue) *Record {
	rec := &Record{Kind: kind, Key: PK{}}

	if v, ok := raw["id"].(*types.AttributeValueMemberN); ok {
		rec.ID, _ = strconv.ParseInt(v.Value, 10, 64)
		rec.Key["id"] = v
	}

	fields := entity.Fields{}
	if err := attributevalue.UnmarshalMap(raw, &fields); err != nil {
		s.config.Logger.Warn("unmarshal record fields",
			"kind", kind,
			"id", rec.ID,
			"error", err,
		)
	}
	delete(fields, "id")
	delete(fields, "kind")
	rec.Fields = fields

	return rec
}
