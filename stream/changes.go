// Package stream turns DynamoDB Streams records of the shopping list table
// into list and item change notifications.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/shoppinglist"
	"github.com/jacentio/shoppinglist/store"
)

// ChangeKind classifies a change to a record.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ListChange is a change to a shopping list. List is the record after the
// change; for ChangeDeleted it is the tombstone.
type ListChange struct {
	Kind    ChangeKind
	EventID string
	List    shoppinglist.ShoppingList
}

// ItemChange is a change to an item.
type ItemChange struct {
	Kind    ChangeKind
	EventID string
	Item    shoppinglist.Item
}

// Listener receives changes in stream order. An error aborts the batch.
type Listener interface {
	ListChanged(ctx context.Context, change ListChange) error
	ItemChanged(ctx context.Context, change ItemChange) error
}

// Handler processes DynamoDB stream events for the shopping list table.
type Handler struct {
	listener Listener
	logger   *slog.Logger
}

// NewHandler creates a new stream handler. A nil listener logs changes.
func NewHandler(listener Listener, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if listener == nil {
		listener = NewLogListener(logger)
	}
	return &Handler{
		listener: listener,
		logger:   logger,
	}
}

// HandleChanges dispatches every list and item change in event to the
// listener. This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleChanges(ctx context.Context, event events.DynamoDBEvent) error {
	for i := range event.Records {
		record := &event.Records[i]
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
func (h *Handler) processRecord(ctx context.Context, record *events.DynamoDBEventRecord) error {
	kind, ok := classify(record)
	if !ok {
		return nil
	}

	doc, err := store.UnmarshalDocument(ConvertImage(record.Change.NewImage))
	if err != nil {
		// Retrying can't fix the image
		h.logger.Warn("skipping undecodable record",
			"eventID", record.EventID,
			"error", err,
		)
		return nil
	}

	switch doc.Type {
	case store.TypeList:
		list, err := shoppinglist.ListFromDocument(*doc)
		if err != nil {
			h.logger.Warn("skipping malformed list", "id", doc.ID, "error", err)
			return nil
		}
		if err := h.listener.ListChanged(ctx, ListChange{Kind: kind, EventID: record.EventID, List: list}); err != nil {
			return fmt.Errorf("list %s %s: %w", list.ID(), kind, err)
		}
	case store.TypeItem:
		item, err := shoppinglist.ItemFromDocument(*doc)
		if err != nil {
			h.logger.Warn("skipping malformed item", "id", doc.ID, "error", err)
			return nil
		}
		if err := h.listener.ItemChanged(ctx, ItemChange{Kind: kind, EventID: record.EventID, Item: item}); err != nil {
			return fmt.Errorf("item %s %s: %w", item.ID(), kind, err)
		}
	default:
		h.logger.Debug("ignoring record of unknown type",
			"id", doc.ID,
			"type", doc.Type,
		)
	}
	return nil
}

// classify reports the change a record represents, or false when the record
// is not a change to a live record.
func classify(record *events.DynamoDBEventRecord) (ChangeKind, bool) {
	switch record.EventName {
	case "INSERT":
		return ChangeCreated, true
	case "MODIFY":
		oldDeleted := getBoolAttr(record.Change.OldImage, store.AttrDeleted)
		newDeleted := getBoolAttr(record.Change.NewImage, store.AttrDeleted)
		switch {
		case newDeleted && oldDeleted:
			return "", false
		case newDeleted:
			return ChangeDeleted, true
		}
		// Writes that don't move the revision are store bookkeeping
		oldRev := getStringAttr(record.Change.OldImage, store.AttrRev)
		newRev := getStringAttr(record.Change.NewImage, store.AttrRev)
		if oldRev != "" && oldRev == newRev {
			return "", false
		}
		return ChangeUpdated, true
	default:
		// REMOVE is the TTL reaper collecting a tombstone
		return "", false
	}
}

// LogListener logs every change.
type LogListener struct {
	logger *slog.Logger
}

// NewLogListener returns a listener that logs to logger, or slog.Default
// when logger is nil.
func NewLogListener(logger *slog.Logger) *LogListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogListener{logger: logger}
}

// ListChanged logs a list change at Info level.
func (l *LogListener) ListChanged(ctx context.Context, change ListChange) error {
	l.logger.InfoContext(ctx, "list changed",
		"change", change.Kind,
		"id", change.List.ID(),
		"rev", change.List.Revision(),
		"title", change.List.Title(),
	)
	return nil
}

// ItemChanged logs an item change at Info level.
func (l *LogListener) ItemChanged(ctx context.Context, change ItemChange) error {
	l.logger.InfoContext(ctx, "item changed",
		"change", change.Kind,
		"id", change.Item.ID(),
		"rev", change.Item.Revision(),
		"listID", change.Item.ListID(),
		"checked", change.Item.Checked(),
	)
	return nil
}
