package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/shoppinglist/internal/shard"
)

// API is the subset of the DynamoDB client used by the Store.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	UpdateTable(ctx context.Context, params *dynamodb.UpdateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTableOutput, error)
}

// Store provides revision-checked document operations on a DynamoDB table.
type Store struct {
	client API
	config Config
	now    func() time.Time

	// ready holds the names of GSIs known to be ACTIVE.
	ready sync.Map
}

// New creates a new Store instance.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// Config returns the validated store configuration.
func (s *Store) Config() Config {
	return s.config
}

// Get retrieves a document by id, returning ErrNotFound if it is missing or a tombstone.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.TableName),
		Key:            documentKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	// Tombstones are unreadable by id
	if IsDeleted(result.Item) {
		return nil, ErrNotFound
	}

	return UnmarshalDocument(result.Item)
}

// Put writes a document and returns it with a new revision.
// Without a revision the document is created and ErrAlreadyExists is returned
// if the id is taken. With a revision the write only succeeds if it matches the
// stored one (ErrConflict), and the document must exist (ErrNotFound).
func (s *Store) Put(ctx context.Context, doc Document) (*Document, error) {
	if doc.ID == "" || doc.Type == "" {
		return nil, fmt.Errorf("%w: id and type are required", ErrInvalidDocument)
	}
	return s.write(ctx, doc)
}

// Remove writes doc as a tombstone, checked against its revision.
func (s *Store) Remove(ctx context.Context, doc Document) (*Document, error) {
	if doc.ID == "" || doc.Type == "" {
		return nil, fmt.Errorf("%w: id and type are required", ErrInvalidDocument)
	}
	if doc.Rev == "" {
		return nil, fmt.Errorf("%w: revision is required to remove %s", ErrInvalidDocument, doc.ID)
	}
	doc.Deleted = true
	return s.write(ctx, doc)
}

// BulkPut writes each document as Put does. Writes run concurrently, bounded by
// Config.BulkConcurrency; results are returned in input order and one failed
// position does not affect the others.
func (s *Store) BulkPut(ctx context.Context, docs []Document) []BulkResult {
	results := make([]BulkResult, len(docs))

	var g errgroup.Group
	g.SetLimit(s.config.BulkConcurrency)
	for i, doc := range docs {
		g.Go(func() error {
			persisted, err := s.Put(ctx, doc)
			results[i] = BulkResult{Doc: persisted, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// write performs the conditional put shared by Put and Remove.
func (s *Store) write(ctx context.Context, doc Document) (*Document, error) {
	expectedRev := doc.Rev
	doc.Rev = NextRevision(expectedRev)

	item, err := s.marshalItem(doc)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.PutItemInput{
		TableName:                           aws.String(s.config.TableName),
		Item:                                item,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}
	if expectedRev == "" {
		input.ConditionExpression = aws.String("attribute_not_exists(id)")
	} else {
		input.ConditionExpression = aws.String(RevisionCondition())
		input.ExpressionAttributeNames = mergeExprNames(
			map[string]string{"#rev": AttrRev},
			TombstoneFilterNames(),
		)
		input.ExpressionAttributeValues = mergeExprValues(
			map[string]types.AttributeValue{
				":expected_rev": &types.AttributeValueMemberS{Value: expectedRev},
			},
			TombstoneFilterValues(),
		)
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		return nil, mapConditionError(err, expectedRev)
	}
	return &doc, nil
}

// QuerySelector returns the live documents matching sel, ordered by id.
// It queries the list index or the type index when they are ACTIVE and falls
// back to a filtered scan otherwise.
func (s *Store) QuerySelector(ctx context.Context, sel Selector) ([]*Document, error) {
	var (
		raw []map[string]types.AttributeValue
		err error
	)
	switch {
	case sel.ListID != "" && s.indexReady(ctx, s.config.ListIndex):
		raw, err = s.queryIndex(ctx, sel, s.config.ListIndex, AttrListID, []string{sel.ListID})
	case sel.Type != "" && s.indexReady(ctx, s.config.TypeIndex):
		raw, err = s.queryIndex(ctx, sel, s.config.TypeIndex, AttrTypeShard, shard.Keys(sel.Type, s.config.NumShards))
	default:
		raw, err = s.scan(ctx, sel)
	}
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(raw))
	for _, item := range raw {
		doc, err := UnmarshalDocument(item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	slices.SortFunc(docs, func(a, b *Document) int {
		return strings.Compare(a.ID, b.ID)
	})
	return docs, nil
}

// queryIndex queries every partition key of an index, fanning out when there
// is more than one shard.
func (s *Store) queryIndex(ctx context.Context, sel Selector, index, keyAttr string, keys []string) ([]map[string]types.AttributeValue, error) {
	expr := buildSelectorExpr(sel, keyAttr)

	// Fast path for single shard (default)
	if len(keys) == 1 {
		return s.queryPartition(ctx, index, keyAttr, keys[0], expr)
	}

	g, ctx := errgroup.WithContext(ctx)
	parts := make([][]map[string]types.AttributeValue, len(keys))
	for i, key := range keys {
		g.Go(func() error {
			items, err := s.queryPartition(ctx, index, keyAttr, key, expr)
			if err != nil {
				return fmt.Errorf("shard %s: %w", key, err)
			}
			parts[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []map[string]types.AttributeValue
	for _, items := range parts {
		all = append(all, items...)
	}
	return all, nil
}

func (s *Store) queryPartition(ctx context.Context, index, keyAttr, key string, expr selectorExpr) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.config.TableName),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#pk = :pk"),
		FilterExpression:       aws.String(expr.filter),
		ExpressionAttributeNames: mergeExprNames(expr.names, map[string]string{
			"#pk": keyAttr,
		}),
		ExpressionAttributeValues: mergeExprValues(expr.values, map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: key},
		}),
	}
	if expr.projection != "" {
		input.ProjectionExpression = aws.String(expr.projection)
	}

	// Paginate through all results
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// scan reads the whole table through the selector filter.
func (s *Store) scan(ctx context.Context, sel Selector) ([]map[string]types.AttributeValue, error) {
	expr := buildSelectorExpr(sel, "")
	input := &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.TableName),
		FilterExpression:          aws.String(expr.filter),
		ExpressionAttributeNames:  expr.names,
		ExpressionAttributeValues: expr.values,
		ConsistentRead:            aws.Bool(true),
	}
	if expr.projection != "" {
		input.ProjectionExpression = aws.String(expr.projection)
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// maxIndexUpdateRetries is the number of consecutive retryable UpdateTable
// failures CreateIndex tolerates. LimitExceededException also reports a
// table at its GSI quota, which never clears.
const maxIndexUpdateRetries = 10

// CreateIndex builds the GSI backing idx if it is missing and waits until it
// is ACTIVE, at most Config.IndexTimeout. Calling it for an existing index is
// a no-op.
func (s *Store) CreateIndex(ctx context.Context, idx Index) error {
	name, keyAttr, err := s.physicalIndex(idx)
	if err != nil {
		return err
	}
	if _, ok := s.ready.Load(name); ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.IndexTimeout)
	defer cancel()

	retries := 0
	for {
		table, err := s.describe(ctx)
		if err != nil {
			return fmt.Errorf("describe table: %w", err)
		}

		gsi := findIndex(table, name)
		switch {
		case gsi != nil && gsi.IndexStatus == types.IndexStatusActive:
			return nil
		case gsi == nil && table.TableStatus == types.TableStatusActive:
			err := s.createGSI(ctx, table, name, keyAttr)
			switch {
			case err == nil:
				retries = 0
			case !isRetryableIndexError(err):
				return fmt.Errorf("create index %s: %w", name, err)
			default:
				retries++
				if retries >= maxIndexUpdateRetries {
					return fmt.Errorf("create index %s: giving up after %d attempts: %w", name, retries, err)
				}
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for index %s: %w", name, ctx.Err())
		case <-time.After(s.config.IndexPollInterval):
		}
	}
}

// physicalIndex maps a logical index to its GSI name and partition key.
func (s *Store) physicalIndex(idx Index) (string, string, error) {
	switch idx.Name {
	case TypeIndex().Name:
		return s.config.TypeIndex, AttrTypeShard, nil
	case ListIndex().Name:
		return s.config.ListIndex, AttrListID, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownIndex, idx.Name)
	}
}

func (s *Store) createGSI(ctx context.Context, table *types.TableDescription, name, keyAttr string) error {
	create := &types.CreateGlobalSecondaryIndexAction{
		IndexName: aws.String(name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(keyAttr), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(AttrID), KeyType: types.KeyTypeRange},
		},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}

	// Provisioned tables need throughput on every GSI
	onDemand := table.BillingModeSummary != nil && table.BillingModeSummary.BillingMode == types.BillingModePayPerRequest
	if !onDemand && table.ProvisionedThroughput != nil {
		create.ProvisionedThroughput = &types.ProvisionedThroughput{
			ReadCapacityUnits:  table.ProvisionedThroughput.ReadCapacityUnits,
			WriteCapacityUnits: table.ProvisionedThroughput.WriteCapacityUnits,
		}
	}

	_, err := s.client.UpdateTable(ctx, &dynamodb.UpdateTableInput{
		TableName: aws.String(s.config.TableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(keyAttr), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(AttrID), AttributeType: types.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexUpdates: []types.GlobalSecondaryIndexUpdate{
			{Create: create},
		},
	})
	return err
}

// describe loads the table description and records every ACTIVE GSI.
func (s *Store) describe(ctx context.Context) (*types.TableDescription, error) {
	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.config.TableName),
	})
	if err != nil {
		return nil, err
	}
	if out.Table == nil {
		return nil, fmt.Errorf("table %s has no description", s.config.TableName)
	}
	for _, gsi := range out.Table.GlobalSecondaryIndexes {
		if gsi.IndexName != nil && gsi.IndexStatus == types.IndexStatusActive {
			s.ready.Store(*gsi.IndexName, struct{}{})
		}
	}
	return out.Table, nil
}

// indexReady reports whether the named GSI can serve queries.
func (s *Store) indexReady(ctx context.Context, name string) bool {
	if _, ok := s.ready.Load(name); ok {
		return true
	}
	if _, err := s.describe(ctx); err != nil {
		return false
	}
	_, ok := s.ready.Load(name)
	return ok
}

// marshalItem converts a document to a DynamoDB item with store-managed attributes.
func (s *Store) marshalItem(doc Document) (map[string]types.AttributeValue, error) {
	item, err := MarshalDocument(doc)
	if err != nil {
		return nil, err
	}

	// Tombstones drop out of the sparse type index and expire via TTL
	if doc.Deleted {
		if s.config.TombstoneTTL > 0 {
			item[AttrTTL] = tombstoneExpiry(s.now(), s.config.TombstoneTTL)
		}
	} else {
		item[AttrTypeShard] = &types.AttributeValueMemberS{
			Value: shard.TypePK(doc.Type, doc.ID, s.config.NumShards),
		}
	}
	return item, nil
}

// mapConditionError maps a failed conditional write to a store error.
// The old image returned with the failure tells a missing document from a
// stale revision.
func mapConditionError(err error, expectedRev string) error {
	var condErr *types.ConditionalCheckFailedException
	if !errors.As(err, &condErr) {
		return err
	}
	if expectedRev == "" {
		return ErrAlreadyExists
	}
	if condErr.Item == nil || IsDeleted(condErr.Item) {
		return ErrNotFound
	}
	return ErrConflict
}

// isRetryableIndexError reports whether an UpdateTable failure only means
// another index or table update is still in progress.
func isRetryableIndexError(err error) bool {
	var inUse *types.ResourceInUseException
	var limit *types.LimitExceededException
	return errors.As(err, &inUse) || errors.As(err, &limit)
}

func findIndex(table *types.TableDescription, name string) *types.GlobalSecondaryIndexDescription {
	for i := range table.GlobalSecondaryIndexes {
		gsi := &table.GlobalSecondaryIndexes[i]
		if gsi.IndexName != nil && *gsi.IndexName == name {
			return gsi
		}
	}
	return nil
}

func documentKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrID: &types.AttributeValueMemberS{Value: id},
	}
}

// selectorExpr is a filter and projection built from a Selector.
type selectorExpr struct {
	filter     string
	projection string
	names      map[string]string
	values     map[string]types.AttributeValue
}

// buildSelectorExpr builds the filter for sel. Constraints already enforced
// by the key condition on keyAttr are left out.
func buildSelectorExpr(sel Selector, keyAttr string) selectorExpr {
	names := TombstoneFilterNames()
	values := TombstoneFilterValues()

	var clauses []string
	if sel.Type != "" && keyAttr != AttrTypeShard {
		names["#type"] = AttrType
		values[":type"] = &types.AttributeValueMemberS{Value: sel.Type}
		clauses = append(clauses, "#type = :type")
	}
	if sel.ListID != "" && keyAttr != AttrListID {
		names["#list_id"] = AttrListID
		values[":list_id"] = &types.AttributeValueMemberS{Value: sel.ListID}
		clauses = append(clauses, "#list_id = :list_id")
	}
	if sel.Checked != nil {
		names["#checked"] = AttrChecked
		values[":checked"] = &types.AttributeValueMemberBOOL{Value: *sel.Checked}
		clauses = append(clauses, "#checked = :checked")
	}
	clauses = append(clauses, TombstoneFilterExpr())

	expr := selectorExpr{
		filter: strings.Join(clauses, " AND "),
		names:  names,
		values: values,
	}

	if len(sel.Fields) > 0 {
		seen := map[string]bool{}
		var proj []string
		for _, f := range append([]string{AttrID}, sel.Fields...) {
			if seen[f] {
				continue
			}
			seen[f] = true
			placeholder := fmt.Sprintf("#p%d", len(proj))
			names[placeholder] = f
			proj = append(proj, placeholder)
		}
		expr.projection = strings.Join(proj, ", ")
	}

	return expr
}
