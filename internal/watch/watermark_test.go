package watch

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateberkopec/jobalert/internal/gateway"
)

func items(ids ...int64) []gateway.Item {
	out := make([]gateway.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, gateway.Item{ID: id})
	}
	return out
}

func ids(items []gateway.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestWatermarkUnsetLetsEverythingThrough(t *testing.T) {
	var w Watermark
	_, set := w.Value()
	assert.False(t, set)
	assert.Equal(t, []int64{1, 2, 3}, ids(w.Fresh(items(3, 1, 2))))
}

func TestWatermarkRepeatedItemIsFiltered(t *testing.T) {
	var w Watermark

	first := items(5)
	assert.Equal(t, []int64{5}, ids(w.Fresh(first)))
	w.Advance(first)

	assert.Empty(t, w.Fresh(items(5)))
	w.Advance(items(5))

	value, set := w.Value()
	require.True(t, set)
	assert.Equal(t, int64(5), value)
}

func TestWatermarkGapsAndOutOfOrderBatch(t *testing.T) {
	var w Watermark
	w.Advance(w.Fresh(items(3)))

	batch := items(7, 4)
	assert.Equal(t, []int64{4, 7}, ids(w.Fresh(batch)))
	w.Advance(batch)

	value, _ := w.Value()
	assert.Equal(t, int64(7), value)
}

func TestWatermarkNeverDecreases(t *testing.T) {
	var w Watermark
	w.Advance(items(10))

	assert.False(t, w.Advance(items(2, 3)))
	assert.False(t, w.Advance(nil))

	value, _ := w.Value()
	assert.Equal(t, int64(10), value)
}

func TestWatermarkCollapsesDuplicatesInBatch(t *testing.T) {
	var w Watermark
	assert.Equal(t, []int64{2, 4}, ids(w.Fresh(items(4, 2, 4))))
}

func TestWatermarkRandomBatches(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var w Watermark
	displayed := map[int64]int{}
	previous := int64(-1)

	for round := 0; round < 200; round++ {
		n := rng.Intn(6)
		batch := make([]gateway.Item, 0, n)
		for i := 0; i < n; i++ {
			batch = append(batch, gateway.Item{ID: int64(rng.Intn(100))})
		}

		for _, item := range w.Fresh(batch) {
			displayed[item.ID]++
		}
		w.Advance(batch)

		if value, set := w.Value(); set {
			require.GreaterOrEqual(t, value, previous, "watermark decreased in round %d", round)
			previous = value
		}
	}

	for id, count := range displayed {
		assert.Equal(t, 1, count, "id %d displayed more than once", id)
	}
}
