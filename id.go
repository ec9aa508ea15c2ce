package shoppinglist

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Identifier prefixes, one per record type.
const (
	ListIDPrefix = "list:"
	ItemIDPrefix = "item:"
)

// IDLength is the length of every record id, prefix included.
const IDLength = 30

const tokenLength = IDLength - len(ListIDPrefix)

// base62 digits in ASCII order, so fixed-width tokens sort like the numbers
// they encode.
const base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var bigBase = big.NewInt(int64(len(base62)))

// NewListID returns a fresh shopping list id.
func NewListID() string {
	return ListIDPrefix + newToken()
}

// NewItemID returns a fresh shopping list item id.
func NewItemID() string {
	return ItemIDPrefix + newToken()
}

// newToken encodes a UUIDv7 followed by 16 random bits as fixed-width base62.
// The UUIDv7 occupies the high bits, so tokens sort by creation time.
func newToken() string {
	id := uuid.Must(uuid.NewV7())

	var raw [18]byte
	copy(raw[:16], id[:])
	if _, err := rand.Read(raw[16:]); err != nil {
		panic(err)
	}

	n := new(big.Int).SetBytes(raw[:])
	digit := new(big.Int)
	token := make([]byte, tokenLength)
	for i := tokenLength - 1; i >= 0; i-- {
		n.DivMod(n, bigBase, digit)
		token[i] = base62[digit.Int64()]
	}
	return string(token)
}

// ValidListID reports whether id is a well-formed shopping list id.
func ValidListID(id string) bool {
	return validID(ListIDPrefix, id)
}

// ValidItemID reports whether id is a well-formed shopping list item id.
func ValidItemID(id string) bool {
	return validID(ItemIDPrefix, id)
}

func validID(prefix, id string) bool {
	if len(id) != IDLength || !strings.HasPrefix(id, prefix) {
		return false
	}
	for i := len(prefix); i < len(id); i++ {
		if strings.IndexByte(base62, id[i]) < 0 {
			return false
		}
	}
	return true
}
