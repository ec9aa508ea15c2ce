package store

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MarshalDocument converts a document to DynamoDB attribute values.
// Store-managed attributes (type_shard, ttl) are not included.
func MarshalDocument(doc Document) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	return item, nil
}

// UnmarshalDocument converts a DynamoDB item to a Document.
// Attributes the Document doesn't declare are ignored.
func UnmarshalDocument(item map[string]types.AttributeValue) (*Document, error) {
	var doc Document
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}
