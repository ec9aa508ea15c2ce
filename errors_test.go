package shoppinglist_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacentio/shoppinglist"
	"github.com/jacentio/shoppinglist/store"
)

func TestOpError(t *testing.T) {
	err := &shoppinglist.OpError{
		Op:   "Update",
		ID:   "list:1",
		Kind: shoppinglist.ErrConflict,
		Err:  store.ErrConflict,
	}

	require.Equal(t, "Update list:1: shoppinglist: revision conflict: store: document revision conflict", err.Error())
	require.ErrorIs(t, err, shoppinglist.ErrConflict)
	require.ErrorIs(t, err, store.ErrConflict)
	require.NotErrorIs(t, err, shoppinglist.ErrNotFound)
}

func TestOpError_NoCause(t *testing.T) {
	err := &shoppinglist.OpError{Op: "Find", Kind: shoppinglist.ErrPersistence}

	require.Equal(t, "Find: shoppinglist: persistence failure", err.Error())
	require.ErrorIs(t, err, shoppinglist.ErrPersistence)
}

func TestErrors_Prefixed(t *testing.T) {
	for _, err := range []error{
		shoppinglist.ErrNotFound,
		shoppinglist.ErrConflict,
		shoppinglist.ErrPersistence,
		shoppinglist.ErrValidation,
	} {
		require.True(t, strings.HasPrefix(err.Error(), "shoppinglist:"), "error %q should be prefixed", err)
	}
	require.False(t, errors.Is(shoppinglist.ErrNotFound, shoppinglist.ErrPersistence))
}
