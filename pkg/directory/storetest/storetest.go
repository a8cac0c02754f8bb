// Package storetest holds the behaviour every directory.Store must share.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"

	"gstdirectory/pkg/directory"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) directory.Store

// Run executes the conformance suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("EmptyList", func(t *testing.T) {
		s := newStore(t)
		records, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("InsertThenList", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rec := directory.NewRecord(" pune ", " acme ", "27aaaa")

		require.NoError(t, s.Insert(ctx, rec))

		records, err := s.List(ctx)
		require.NoError(t, err)
		want := []directory.Record{{City: "PUNE", Trader: "ACME", GST: "27AAAA"}}
		if diff := cmp.Diff(want, records); diff != "" {
			t.Errorf("list mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("DuplicateInsert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Insert(ctx, directory.NewRecord("PUNE", "ACME", "27AAAA")))
		err := s.Insert(ctx, directory.NewRecord("pune", "acme", "OTHER"))
		require.ErrorIs(t, err, directory.ErrDuplicateKey)

		records, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "27AAAA", records[0].GST)
	})

	t.Run("SameTraderOtherCity", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Insert(ctx, directory.NewRecord("PUNE", "ACME", "")))
		require.NoError(t, s.Insert(ctx, directory.NewRecord("MUMBAI", "ACME", "")))

		records, err := s.List(ctx)
		require.NoError(t, err)
		want := []directory.Record{
			{City: "MUMBAI", Trader: "ACME", GST: directory.NoGST},
			{City: "PUNE", Trader: "ACME", GST: directory.NoGST},
		}
		if diff := cmp.Diff(want, records); diff != "" {
			t.Errorf("list mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("UpdateGSTOnly", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rec := directory.NewRecord("PUNE", "ACME", "")
		require.NoError(t, s.Insert(ctx, rec))

		updated := directory.NewRecord("PUNE", "ACME", "27BBBB")
		prev, err := s.Update(ctx, rec.Key(), updated)
		require.NoError(t, err)
		assert.Equal(t, rec, prev)

		records, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, updated, records[0])
	})

	t.Run("UpdateKey", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rec := directory.NewRecord("PUNE", "ACME", "27AAAA")
		require.NoError(t, s.Insert(ctx, rec))

		moved := directory.NewRecord("MUMBAI", "ACME", "27BBBB")
		prev, err := s.Update(ctx, rec.Key(), moved)
		require.NoError(t, err)
		assert.Equal(t, rec, prev)

		records, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []directory.Record{moved}, records)

		_, err = s.Delete(ctx, rec.Key())
		require.ErrorIs(t, err, directory.ErrNotFound)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Update(ctx, directory.NormalizeKey("PUNE", "ACME"), directory.NewRecord("PUNE", "ACME", ""))
		require.ErrorIs(t, err, directory.ErrNotFound)
	})

	t.Run("UpdateCollision", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := directory.NewRecord("PUNE", "ACME", "A")
		b := directory.NewRecord("PUNE", "BETA", "B")
		require.NoError(t, s.Insert(ctx, a))
		require.NoError(t, s.Insert(ctx, b))

		_, err := s.Update(ctx, b.Key(), directory.NewRecord("PUNE", "ACME", "B"))
		require.ErrorIs(t, err, directory.ErrDuplicateKey)

		records, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []directory.Record{a, b}, records)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := directory.NewRecord("PUNE", "ACME", "27AAAA")
		b := directory.NewRecord("PUNE", "BETA", "")
		require.NoError(t, s.Insert(ctx, a))
		require.NoError(t, s.Insert(ctx, b))

		removed, err := s.Delete(ctx, a.Key())
		require.NoError(t, err)
		assert.Equal(t, a, removed)

		records, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []directory.Record{b}, records)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Delete(context.Background(), directory.NormalizeKey("NOWHERE", "NOBODY"))
		require.ErrorIs(t, err, directory.ErrNotFound)
	})
}
