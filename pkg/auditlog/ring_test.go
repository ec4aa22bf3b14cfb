package auditlog_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/sprout/pkg/auditlog"
)

func makeEntry(action string) auditlog.Entry {
	return auditlog.Entry{
		ID:          uuid.New(),
		ActionType:  action,
		MaskedEmail: "g***@example.com",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestRing_NewestFirst(t *testing.T) {
	t.Parallel()

	ring := auditlog.NewRing(10)
	first := makeEntry("subscription_created")
	second := makeEntry("subscription_updated")

	ring.Push(first)
	ring.Push(second)

	entries := ring.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID, "index 0 must hold the most recent entry")
	assert.Equal(t, first.ID, entries[1].ID)
}

func TestRing_EvictsOldest(t *testing.T) {
	t.Parallel()

	ring := auditlog.NewRing(10)
	var pushed []auditlog.Entry
	for i := 0; i < 15; i++ {
		e := makeEntry(fmt.Sprintf("action_%d", i))
		ring.Push(e)
		pushed = append(pushed, e)
	}

	entries := ring.Entries()
	require.Len(t, entries, 10, "ring never exceeds its capacity")
	assert.Equal(t, pushed[14].ID, entries[0].ID)
	assert.Equal(t, pushed[5].ID, entries[9].ID, "oldest surviving entry is the sixth push")
}

func TestRing_Clear(t *testing.T) {
	t.Parallel()

	ring := auditlog.NewRing(10)
	ring.Push(makeEntry("subscription_created"))
	require.Equal(t, 1, ring.Len())

	ring.Clear()
	assert.Zero(t, ring.Len())
	assert.Empty(t, ring.Entries())
}

func TestRing_DefaultSize(t *testing.T) {
	t.Parallel()

	ring := auditlog.NewRing(0)
	for i := 0; i < 20; i++ {
		ring.Push(makeEntry("x"))
	}
	assert.Equal(t, auditlog.DefaultRingSize, ring.Len())
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "g***@example.com", auditlog.MaskEmail("gardener@example.com"))
	assert.Equal(t, "a***@b.co", auditlog.MaskEmail("a@b.co"))
	assert.Equal(t, "***", auditlog.MaskEmail("not-an-email"))
	assert.Equal(t, "***", auditlog.MaskEmail("@example.com"))
	assert.Equal(t, "***", auditlog.MaskEmail(""))
}
