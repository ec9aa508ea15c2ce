package shoppinglist

// ListFields are the business fields of a new shopping list.
type ListFields struct {
	Title   string
	Checked bool
	Place   string
}

// ItemFields are the business fields of a new shopping list item.
type ItemFields struct {
	Title   string
	Checked bool
}

// Factory builds candidate records. Candidates carry an id and the schema
// version but no revision or timestamps until they are created.
type Factory struct{}

// NewShoppingList returns a candidate list.
func (Factory) NewShoppingList(fields ListFields) ShoppingList {
	return ShoppingList{
		id:            NewListID(),
		schemaVersion: SchemaVersion,
		title:         fields.Title,
		checked:       fields.Checked,
		place:         fields.Place,
	}
}

// NewShoppingListItem returns a candidate item belonging to list.
func (Factory) NewShoppingListItem(fields ItemFields, list ShoppingList) Item {
	return Item{
		id:            NewItemID(),
		schemaVersion: SchemaVersion,
		listID:        list.ID(),
		title:         fields.Title,
		checked:       fields.Checked,
	}
}

// NewListOfShoppingListItems returns a copy of items, ready for a bulk create.
func (Factory) NewListOfShoppingListItems(items ...Item) []Item {
	return append([]Item(nil), items...)
}
