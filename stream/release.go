// Package stream provides DynamoDB Streams handlers for assignment cleanup.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/slipway/entity"
	"github.com/jacentio/slipway/store"
)

// Handler processes DynamoDB stream events to release the loads of deleted
// boats.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(s *store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// HandleBoatRemoval processes DynamoDB stream events from the boats table.
// When a boat record is removed, every load it carried has its carrier
// attribute cleared and its assignment row deleted. This function is
// designed to be used as an AWS Lambda handler.
func (h *Handler) HandleBoatRemoval(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	// Only boat removals trigger a release
	if record.EventName != "REMOVE" {
		return nil
	}
	if getStringAttr(record.Change.OldImage, "kind") != string(entity.KindBoat) {
		return nil
	}

	boatID := getNumberAttr(record.Change.OldImage, "id")
	if boatID == 0 {
		return nil
	}
	boatRef := fmt.Sprintf("boat#%d", boatID)

	// 1. Query all assignment rows (idempotent - reruns see fewer rows)
	loads, err := h.store.LoadsByRef(ctx, boatRef)
	if err != nil {
		return fmt.Errorf("query loads: %w", err)
	}

	h.logger.Info("releasing loads of removed boat",
		"boat", boatRef,
		"loadCount", len(loads),
	)

	rels := h.store.Registry().CargoOf(entity.KindBoat)
	if len(rels) == 0 {
		return nil
	}
	carrierAttr := rels[0].CarrierAttr

	// 2. Clear the carrier attribute on each load, then drop the row
	for _, load := range loads {
		if err := h.store.ClearCarrier(ctx, load.TableName, load.Key, carrierAttr, boatRef); err != nil {
			h.logger.Warn("failed to clear carrier",
				"load", load.Ref,
				"error", err,
			)
			// Continue - idempotent, will retry
			continue
		}
		if err := h.store.DeleteAssignment(ctx, load.ShardPK, load.Ref); err != nil {
			h.logger.Warn("failed to delete assignment row",
				"load", load.Ref,
				"error", err,
			)
		}
	}

	h.logger.Info("release completed",
		"boat", boatRef,
		"loadsProcessed", len(loads),
	)

	return nil
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeString {
			return v.String()
		}
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}

// ConvertStreamKey converts a DynamoDB stream key to a store.PK.
// Use this when you need to convert keys from stream records to store
// operations.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) store.PK {
	result := make(store.PK)
	for k, v := range streamKey {
		switch v.DataType() {
		case events.DataTypeString:
			result[k] = &types.AttributeValueMemberS{Value: v.String()}
		case events.DataTypeNumber:
			result[k] = &types.AttributeValueMemberN{Value: v.Number()}
		case events.DataTypeBinary:
			result[k] = &types.AttributeValueMemberB{Value: v.Binary()}
		}
	}
	return result
}
