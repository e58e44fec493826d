// Package storetest builds throwaway SQLite stores for tests.
package storetest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"bookstore/database"
	"bookstore/models"
	"bookstore/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// New migrates a fresh database file in t's temp dir and opens a store on it.
// The store is closed when the test ends.
func New(t testing.TB) *store.Store {
	t.Helper()
	return NewShared(t, 1)[0]
}

// NewShared opens n stores on one fresh database file. Each store holds its
// own connection, so statements issued through different stores really
// compete for the database.
func NewShared(t testing.TB, n int) []*store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bookstore.db")
	require.NoError(t, database.Migrate(database.DriverSQLite, path))

	stores := make([]*store.Store, 0, n)
	for i := 0; i < n; i++ {
		s, err := store.Open(database.DriverSQLite, path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		stores = append(stores, s)
	}
	return stores
}

func SeedUser(t testing.TB, s *store.Store, username, role string) int64 {
	t.Helper()

	u := &models.User{Username: username, Password: "x", Role: role}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u.ID
}

// SeedBook creates an active book priced at price and returns its id
func SeedBook(t testing.TB, s *store.Store, title string, price string) int64 {
	t.Helper()

	b := &models.Book{
		Title:  title,
		Author: "Author of " + title,
		ISBN:   fmt.Sprintf("isbn-%s", title),
		Stock:  10,
		Price:  decimal.RequireFromString(price),
	}
	require.NoError(t, s.CreateBook(context.Background(), b))
	return b.ID
}
