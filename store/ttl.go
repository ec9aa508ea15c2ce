package store

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IsDeleted checks if an item is a tombstone.
func IsDeleted(item map[string]types.AttributeValue) bool {
	attr, exists := item[AttrDeleted]
	if !exists {
		return false // No flag = active
	}
	deleted, ok := attr.(*types.AttributeValueMemberBOOL)
	if !ok {
		return false
	}
	return deleted.Value
}

// TombstoneFilterExpr returns the filter expression to exclude deleted items.
// Use this when building custom queries that need tombstone filtering.
func TombstoneFilterExpr() string {
	return "(attribute_not_exists(#deleted) OR #deleted = :false)"
}

// TombstoneFilterNames returns expression attribute names for the tombstone filter.
func TombstoneFilterNames() map[string]string {
	return map[string]string{"#deleted": AttrDeleted}
}

// TombstoneFilterValues returns expression attribute values for the tombstone filter.
func TombstoneFilterValues() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":false": &types.AttributeValueMemberBOOL{Value: false},
	}
}

// RevisionCondition returns the condition expression for a revision-checked write.
// The stored document must carry :expected_rev and must not be a tombstone.
func RevisionCondition() string {
	return "#rev = :expected_rev AND " + TombstoneFilterExpr()
}

// tombstoneExpiry returns the TTL epoch for a tombstone written at now.
func tombstoneExpiry(now time.Time, retention time.Duration) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{
		Value: strconv.FormatInt(now.Add(retention).Unix(), 10),
	}
}

// mergeExprNames merges multiple expression attribute name maps.
func mergeExprNames(maps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

// mergeExprValues merges multiple expression attribute value maps.
func mergeExprValues(maps ...map[string]types.AttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}
