//go:build e2e

// Package e2e contains end-to-end integration tests using a real DynamoDB table.
// Run with: go test -tags=e2e -v ./e2e/...
//
// SHOPPINGLIST_E2E_PROFILE selects an AWS profile and SHOPPINGLIST_E2E_ENDPOINT
// points the tests at DynamoDB Local.
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/shoppinglist"
	"github.com/jacentio/shoppinglist/store"
)

// Table name - unique per test run to avoid conflicts
const tablePrefix = "shoppinglist-e2e-test"

var (
	tableName string

	ddbClient *dynamodb.Client
	testStore *store.Store
	repo      *shoppinglist.Repository
	factory   shoppinglist.Factory
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	tableName = fmt.Sprintf("%s-%s", tablePrefix, uuid.New().String()[:8])
	fmt.Printf("Table: %s\n", tableName)

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if profile := os.Getenv("SHOPPINGLIST_E2E_PROFILE"); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint := os.Getenv("SHOPPINGLIST_E2E_ENDPOINT"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	if err := createTable(ctx); err != nil {
		fmt.Printf("Failed to create table: %v\n", err)
		os.Exit(1)
	}

	testStore = store.New(ddbClient, store.Config{
		TableName:         tableName,
		NumShards:         4,
		TombstoneTTL:      time.Hour,
		IndexPollInterval: 2 * time.Second,
	})
	repo = shoppinglist.NewRepository(testStore, nil)

	// GSIs take a while to build on real tables
	indexCtx, cancel := context.WithTimeout(ctx, 15*time.Minute)
	err = repo.EnsureIndexes(indexCtx)
	cancel()

	code := 1
	if err != nil {
		fmt.Printf("Failed to create indexes: %v\n", err)
	} else {
		code = m.Run()
	}

	if err := deleteTable(ctx); err != nil {
		fmt.Printf("Failed to delete table: %v\n", err)
	}

	os.Exit(code)
}

func createTable(ctx context.Context) error {
	fmt.Println("Creating test table...")

	_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", tableName, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(ddbClient)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", tableName, err)
	}

	_, err = ddbClient.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(store.AttrTTL),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("enable TTL on %s: %w", tableName, err)
	}

	fmt.Println("Table created and active")
	return nil
}

func deleteTable(ctx context.Context) error {
	fmt.Println("Deleting test table...")
	_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	return err
}

func createList(t *testing.T, title string) shoppinglist.ShoppingList {
	t.Helper()
	list, err := repo.Create(context.Background(), factory.NewShoppingList(shoppinglist.ListFields{Title: title}))
	if err != nil {
		t.Fatalf("Create %q failed: %v", title, err)
	}
	return list
}

// --- CRUD Tests ---

func TestCreate_List(t *testing.T) {
	ctx := context.Background()
	list := createList(t, "Groceries")

	if list.Revision() == "" {
		t.Error("expected revision to be set")
	}
	if !list.CreatedAt().Equal(list.UpdatedAt()) {
		t.Errorf("expected createdAt == updatedAt, got %v and %v", list.CreatedAt(), list.UpdatedAt())
	}

	read, err := repo.Read(ctx, list.ID())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !read.Equal(list) {
		t.Errorf("expected %+v, got %+v", list.Document(), read.Document())
	}
}

func TestCreate_Duplicate(t *testing.T) {
	ctx := context.Background()
	list := createList(t, "Groceries")

	doc := list.Document()
	doc.Rev = ""
	dup, err := shoppinglist.ListFromDocument(doc)
	if err != nil {
		t.Fatalf("ListFromDocument failed: %v", err)
	}
	_, err = repo.Create(ctx, dup)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestRead_NotFound(t *testing.T) {
	_, err := repo.Read(context.Background(), shoppinglist.NewListID())
	if !errors.Is(err, shoppinglist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_Success(t *testing.T) {
	ctx := context.Background()
	list := createList(t, "Groceries")

	time.Sleep(5 * time.Millisecond)
	updated, err := repo.Update(ctx, list.WithTitle("Weekly Groceries").WithPlace("Market"))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Revision() == list.Revision() {
		t.Error("expected a new revision")
	}
	if !updated.UpdatedAt().After(list.UpdatedAt()) {
		t.Errorf("expected updatedAt to advance, got %v after %v", updated.UpdatedAt(), list.UpdatedAt())
	}

	read, err := repo.Read(ctx, list.ID())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if read.Title() != "Weekly Groceries" || read.Place() != "Market" {
		t.Errorf("expected updated fields, got %+v", read.Document())
	}
}

func TestUpdate_OptimisticLockFailure(t *testing.T) {
	ctx := context.Background()
	list := createList(t, "Groceries")

	if _, err := repo.Update(ctx, list.WithTitle("First")); err != nil {
		t.Fatalf("first Update failed: %v", err)
	}
	_, err := repo.Update(ctx, list.WithTitle("Second"))
	if !errors.Is(err, shoppinglist.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestDelete_SoftDelete_SetsTTL(t *testing.T) {
	ctx := context.Background()
	list := createList(t, "Groceries")

	if _, err := repo.Delete(ctx, list); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := repo.Read(ctx, list.ID()); !errors.Is(err, shoppinglist.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// The tombstone stays in the table until TTL reaps it
	out, err := ddbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(tableName),
		Key:            map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: list.ID()}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	ttl, ok := out.Item[store.AttrTTL].(*types.AttributeValueMemberN)
	if !ok {
		t.Fatal("expected ttl on tombstone")
	}
	expiry, _ := strconv.ParseInt(ttl.Value, 10, 64)
	if expiry <= time.Now().Unix() {
		t.Errorf("expected ttl in the future, got %d", expiry)
	}
	if _, ok := out.Item[store.AttrTypeShard]; ok {
		t.Error("expected tombstone to leave the type index")
	}

	// A second delete finds nothing to delete
	if _, err := repo.Delete(ctx, list); !errors.Is(err, shoppinglist.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

// --- Bulk & Query Tests ---

func TestCreateItemsBulk_AndCount(t *testing.T) {
	ctx := context.Background()
	l1 := createList(t, "Groceries")
	l2 := createList(t, "Camping Supplies")

	results, err := repo.CreateItemsBulk(ctx, []shoppinglist.Item{
		factory.NewShoppingListItem(shoppinglist.ItemFields{Title: "Mangos", Checked: true}, l1),
		factory.NewShoppingListItem(shoppinglist.ItemFields{Title: "Oranges", Checked: true}, l1),
		factory.NewShoppingListItem(shoppinglist.ItemFields{Title: "Pears"}, l1),
		factory.NewShoppingListItem(shoppinglist.ItemFields{Title: "Tent", Checked: true}, l2),
		factory.NewShoppingListItem(shoppinglist.ItemFields{Title: "Lantern"}, l2),
	})
	if err != nil {
		t.Fatalf("CreateItemsBulk failed: %v", err)
	}
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("position %d failed: %v", i, res.Err)
		}
		if !res.Record.CreatedAt().Equal(results[0].Record.CreatedAt()) {
			t.Errorf("position %d: expected shared timestamp", i)
		}
	}

	// GSIs are eventually consistent
	var counts map[string]int
	for attempt := 0; attempt < 10; attempt++ {
		counts, err = repo.CountItemsByList(ctx, shoppinglist.ItemQuery{ListID: l1.ID()})
		if err == nil && counts[l1.ID()] == 3 {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("CountItemsByList failed: %v", err)
	}
	if counts[l1.ID()] != 3 {
		t.Errorf("expected 3 items in %s, got %v", l1.ID(), counts)
	}

	checked := true
	counts, err = repo.CountItemsByList(ctx, shoppinglist.ItemQuery{ListID: l2.ID(), Checked: &checked})
	if err != nil {
		t.Fatalf("CountItemsByList failed: %v", err)
	}
	if counts[l2.ID()] != 1 {
		t.Errorf("expected 1 checked item in %s, got %v", l2.ID(), counts)
	}

	items, err := repo.FindItems(ctx, shoppinglist.ItemQuery{ListID: l1.ID()})
	if err != nil {
		t.Fatalf("FindItems failed: %v", err)
	}
	if len(items) != 3 || items[0].Title() != "Mangos" {
		t.Errorf("expected items in creation order, got %d items", len(items))
	}
}

func TestFind_ExcludesDeleted(t *testing.T) {
	ctx := context.Background()
	keep := createList(t, "Keep")
	drop := createList(t, "Drop")
	if _, err := repo.Delete(ctx, drop); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var lists []shoppinglist.ShoppingList
	var err error
	found := false
	for attempt := 0; attempt < 10 && !found; attempt++ {
		lists, err = repo.Find(ctx)
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		for _, l := range lists {
			if l.ID() == keep.ID() {
				found = true
			}
		}
		if !found {
			time.Sleep(500 * time.Millisecond)
		}
	}
	if !found {
		t.Errorf("expected %s in Find results", keep.ID())
	}
	for _, l := range lists {
		if l.ID() == drop.ID() {
			t.Errorf("expected deleted list %s to be excluded", drop.ID())
		}
	}
}
