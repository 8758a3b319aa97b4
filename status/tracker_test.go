package status

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodcost/pricefeed/errors"
)

func TestTracker_SuccessRateConverges(t *testing.T) {
	tr := NewTracker()

	tr.RecordSuccess()
	assert.Equal(t, 1.0, tr.Snapshot().SuccessRate)

	for i := 0; i < 9; i++ {
		tr.RecordSuccess()
	}
	assert.Equal(t, 1.0, tr.Snapshot().SuccessRate)

	tr.RecordError(errors.New("fetch failed"), "sup_1", "")
	snap := tr.Snapshot()
	assert.Less(t, snap.SuccessRate, 1.0)
	assert.Greater(t, snap.SuccessRate, 0.8)
	assert.Equal(t, int64(11), snap.Attempts)
	assert.Equal(t, int64(1), snap.ErrorCount)
}

func TestTracker_ErrorLogBounded(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tr := NewTrackerWithClock(func() time.Time { return now })

	for i := 0; i < 25; i++ {
		tr.RecordError(errors.Newf("failure %d", i), "", "")
		now = now.Add(time.Second)
	}

	snap := tr.Snapshot()
	require.Len(t, snap.RecentErrors, MaxRecentErrors)
	// Only the most recent entries survive trimming.
	assert.Equal(t, "failure 15", snap.RecentErrors[0].Message)
	assert.Equal(t, "failure 24", snap.RecentErrors[9].Message)
	assert.Equal(t, int64(25), snap.ErrorCount)
}

func TestTracker_RecordErrorKeepsContext(t *testing.T) {
	tr := NewTracker()
	tr.RecordError(errors.New("no listing"), "sup_7", "ing_005")

	snap := tr.Snapshot()
	require.Len(t, snap.RecentErrors, 1)
	assert.Equal(t, "sup_7", snap.RecentErrors[0].SupplierID)
	assert.Equal(t, "ing_005", snap.RecentErrors[0].IngredientID)
}

func TestTracker_NilErrorIgnored(t *testing.T) {
	tr := NewTracker()
	tr.RecordError(nil, "sup_1", "")
	snap := tr.Snapshot()
	assert.Zero(t, snap.Attempts)
	assert.Empty(t, snap.RecentErrors)
}

func TestTracker_RejectsDoNotMoveRate(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess()
	tr.RecordRejected(5)

	snap := tr.Snapshot()
	assert.Equal(t, 1.0, snap.SuccessRate)
	assert.Equal(t, int64(5), snap.RejectedCount)
}

func TestTracker_SnapshotIsACopy(t *testing.T) {
	tr := NewTracker()
	tr.RecordError(errors.New("boom"), "", "")

	snap := tr.Snapshot()
	snap.RecentErrors[0].Message = "mutated"
	assert.Equal(t, "boom", tr.Snapshot().RecentErrors[0].Message)
}

func TestTracker_ConcurrentReadersAndWriter(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			tr.RecordSuccess()
			tr.SetRunning(i%2 == 0)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = tr.Snapshot()
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, int64(100), tr.Snapshot().Attempts)
}
