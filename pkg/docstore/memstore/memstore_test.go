package memstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/Himanshu5634/whiteboard-backend/pkg/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *MemStore {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return New(slog.New(handler))
}

func TestGetMissingDocument(t *testing.T) {
	s := newTestStore()
	_, err := s.Get(context.Background(), "r1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestSetMergeCreatesAndMerges(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	notes := []docstore.Note{{ID: "n1", Text: "hi"}}
	require.NoError(t, s.SetMerge(ctx, "r1", docstore.Patch{Notes: &notes}))

	doc, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, doc.Notes, 1)
	assert.Nil(t, doc.CanvasState)

	// Merging the canvas leaves notes untouched.
	canvas := json.RawMessage(`"data:image/png;base64,AAAA"`)
	require.NoError(t, s.SetMerge(ctx, "r1", docstore.Patch{CanvasState: &canvas}))

	doc, err = s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, doc.Notes, 1)
	assert.JSONEq(t, string(canvas), string(doc.CanvasState))
}

func TestSetMergeClearResetsBothFields(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	notes := []docstore.Note{{ID: "n1"}}
	canvas := json.RawMessage(`"snapshot"`)
	require.NoError(t, s.SetMerge(ctx, "r1", docstore.Patch{Notes: &notes, CanvasState: &canvas}))

	empty := []docstore.Note{}
	var nullCanvas json.RawMessage
	require.NoError(t, s.SetMerge(ctx, "r1", docstore.Patch{Notes: &empty, CanvasState: &nullCanvas}))

	doc, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, doc.Notes)
	assert.Nil(t, doc.CanvasState)
}

func TestTransactMissingDocumentIsNotFound(t *testing.T) {
	s := newTestStore()
	called := false
	err := s.Transact(context.Background(), "r1", func(notes []docstore.Note) []docstore.Note {
		called = true
		return notes
	})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.False(t, called, "transform must not run without a document")
}

func TestTransactAppliesTransform(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	empty := []docstore.Note{}
	require.NoError(t, s.SetMerge(ctx, "r1", docstore.Patch{Notes: &empty}))

	err := s.Transact(ctx, "r1", func(notes []docstore.Note) []docstore.Note {
		return append(notes, docstore.Note{ID: "n1", Text: "hello"})
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, doc.Notes, 1)
	assert.Equal(t, "n1", doc.Notes[0].ID)
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	notes := []docstore.Note{{ID: "n1", Text: "original"}}
	require.NoError(t, s.SetMerge(ctx, "r1", docstore.Patch{Notes: &notes}))

	doc, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	doc.Notes[0].Text = "mutated"

	doc2, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "original", doc2.Notes[0].Text)
}

// Two concurrent moves on distinct notes must both land in the final
// sequence: each transform re-reads the latest committed notes, so neither
// clobbers the other.
func TestConcurrentMovesOnDistinctNotes(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	notes := []docstore.Note{{ID: "a"}, {ID: "b"}}
	require.NoError(t, s.SetMerge(ctx, "r1", docstore.Patch{Notes: &notes}))

	move := func(id string, pos docstore.Position) docstore.TransactFunc {
		return func(current []docstore.Note) []docstore.Note {
			for i := range current {
				if current[i].ID == id {
					current[i].Position = pos
				}
			}
			return current
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Transact(ctx, "r1", move("a", docstore.Position{X: 1, Y: 1})))
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Transact(ctx, "r1", move("b", docstore.Position{X: 2, Y: 2})))
	}()
	wg.Wait()

	doc, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	byID := map[string]docstore.Position{}
	for _, n := range doc.Notes {
		byID[n.ID] = n.Position
	}
	assert.Equal(t, docstore.Position{X: 1, Y: 1}, byID["a"])
	assert.Equal(t, docstore.Position{X: 2, Y: 2}, byID["b"])
}

// Concurrent moves on the same note race at last-committed-wins: the final
// position is exactly one of the submitted ones, never a blend.
func TestConcurrentMovesOnSameNote(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	notes := []docstore.Note{{ID: "a"}}
	require.NoError(t, s.SetMerge(ctx, "r1", docstore.Patch{Notes: &notes}))

	positions := []docstore.Position{{X: 1, Y: 10}, {X: 2, Y: 20}, {X: 3, Y: 30}}
	var wg sync.WaitGroup
	for _, pos := range positions {
		wg.Add(1)
		go func(pos docstore.Position) {
			defer wg.Done()
			assert.NoError(t, s.Transact(ctx, "r1", func(current []docstore.Note) []docstore.Note {
				for i := range current {
					if current[i].ID == "a" {
						current[i].Position = pos
					}
				}
				return current
			}))
		}(pos)
	}
	wg.Wait()

	doc, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, doc.Notes, 1)
	assert.Contains(t, positions, doc.Notes[0].Position)
}

func TestTransactHonorsContextCancellation(t *testing.T) {
	s := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Transact(ctx, "r1", func(notes []docstore.Note) []docstore.Note { return notes })
	assert.ErrorIs(t, err, context.Canceled)
}
