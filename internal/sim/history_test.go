package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(seq int64) Snapshot {
	return Snapshot{Seq: seq, RunToken: "run-test"}
}

func TestTickHistory_EmptyWindow(t *testing.T) {
	h := NewTickHistory(4)
	assert.Empty(t, h.Window())
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 4, h.Cap())
}

func TestTickHistory_PartialFill(t *testing.T) {
	h := NewTickHistory(4)
	h.Append(snap(1))
	h.Append(snap(2))

	w := h.Window()
	require.Len(t, w, 2)
	assert.Equal(t, int64(1), w[0].Seq)
	assert.Equal(t, int64(2), w[1].Seq)
}

func TestTickHistory_EvictsOldest(t *testing.T) {
	h := NewTickHistory(3)
	for seq := int64(1); seq <= 5; seq++ {
		h.Append(snap(seq))
	}

	w := h.Window()
	require.Len(t, w, 3)
	assert.Equal(t, int64(3), w[0].Seq, "oldest retained entry")
	assert.Equal(t, int64(4), w[1].Seq)
	assert.Equal(t, int64(5), w[2].Seq, "newest entry last")
	assert.Equal(t, 3, h.Len())
}

func TestTickHistory_WindowIsACopy(t *testing.T) {
	h := NewTickHistory(2)
	h.Append(snap(1))

	w := h.Window()
	h.Append(snap(2))
	h.Append(snap(3))

	// The earlier window is unaffected by later appends.
	require.Len(t, w, 1)
	assert.Equal(t, int64(1), w[0].Seq)
}

func TestTickHistory_DefaultCapacity(t *testing.T) {
	h := NewTickHistory(0)
	assert.Equal(t, DefaultHistoryWindow, h.Cap())
}

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestClock_ResumeAt(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(42), c.Next())
}

func TestFixedGenerator_ReturnsTokensInOrder(t *testing.T) {
	g := NewFixedGenerator("run-1", "run-2")
	assert.Equal(t, "run-1", g.Generate())
	assert.Equal(t, "run-2", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestUUIDv7Generator_UniqueTokens(t *testing.T) {
	g := UUIDv7Generator{}
	a := g.Generate()
	b := g.Generate()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
