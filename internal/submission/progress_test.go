// internal/submission/progress_test.go
package submission

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Lifecycle(t *testing.T) {
	tracker := NewProgressTracker()
	tracker.Start("task-1")

	percent, state, ok := tracker.Snapshot("task-1")
	assert.True(t, ok)
	assert.Equal(t, 0, percent)
	assert.Equal(t, TaskQueued, state)

	tracker.Update("task-1", 40)
	percent, state, _ = tracker.Snapshot("task-1")
	assert.Equal(t, 40, percent)
	assert.Equal(t, TaskUploading, state)

	tracker.Finish("task-1", nil)
	percent, state, _ = tracker.Snapshot("task-1")
	assert.Equal(t, 100, percent)
	assert.Equal(t, TaskSucceeded, state)
}

func TestProgressTracker_PercentNeverRegresses(t *testing.T) {
	tracker := NewProgressTracker()
	tracker.Start("task-1")

	tracker.Update("task-1", 60)
	tracker.Update("task-1", 30)

	percent, _, _ := tracker.Snapshot("task-1")
	assert.Equal(t, 60, percent)
}

func TestProgressTracker_UpdateAfterTerminalIsNoOp(t *testing.T) {
	tracker := NewProgressTracker()
	tracker.Start("task-1")
	tracker.Finish("task-1", fmt.Errorf("connection reset"))

	tracker.Update("task-1", 90)
	tracker.Finish("task-1", nil)

	percent, state, _ := tracker.Snapshot("task-1")
	assert.Equal(t, 0, percent)
	assert.Equal(t, TaskFailed, state)
}

func TestProgressTracker_UnknownTaskIsNoOp(t *testing.T) {
	tracker := NewProgressTracker()

	tracker.Update("ghost", 50)
	tracker.Finish("ghost", nil)

	_, _, ok := tracker.Snapshot("ghost")
	assert.False(t, ok)
}

func TestProgressTracker_FailureKeepsLastPercent(t *testing.T) {
	tracker := NewProgressTracker()
	tracker.Start("task-1")
	tracker.Update("task-1", 70)

	tracker.Finish("task-1", fmt.Errorf("timeout"))

	percent, state, _ := tracker.Snapshot("task-1")
	assert.Equal(t, 70, percent)
	assert.Equal(t, TaskFailed, state)
}

func TestProgressTracker_ObserveSingleTask(t *testing.T) {
	tracker := NewProgressTracker()
	tracker.Start("task-1")
	tracker.Start("task-2")

	events := tracker.Observe("task-1")

	tracker.Update("task-1", 50)
	tracker.Update("task-2", 80) // must not reach task-1's observer
	tracker.Finish("task-1", nil)

	var received []ProgressEvent
	for ev := range events {
		received = append(received, ev)
	}

	assert.Len(t, received, 2)
	assert.Equal(t, "task-1", received[0].TaskID)
	assert.Equal(t, 50, received[0].Percent)
	assert.Equal(t, TaskSucceeded, received[1].State)
}

func TestProgressTracker_ObserveUnknownTaskIsClosed(t *testing.T) {
	tracker := NewProgressTracker()

	events := tracker.Observe("ghost")

	_, open := <-events
	assert.False(t, open)
}

func TestProgressTracker_SubscriberReceivesAllEvents(t *testing.T) {
	tracker := NewProgressTracker()
	events := tracker.Subscribe()

	tracker.Start("task-1")
	tracker.Update("task-1", 50)
	tracker.Finish("task-1", nil)
	tracker.Reset()

	var received []ProgressEvent
	for ev := range events {
		received = append(received, ev)
	}

	assert.Len(t, received, 3)
	assert.Equal(t, TaskQueued, received[0].State)
	assert.Equal(t, TaskUploading, received[1].State)
	assert.Equal(t, 50, received[1].Percent)
	assert.Equal(t, TaskSucceeded, received[2].State)
	assert.Equal(t, 100, received[2].Percent)
}

func TestProgressTracker_ClearDropsTask(t *testing.T) {
	tracker := NewProgressTracker()
	tracker.Start("task-1")
	tracker.Clear("task-1")

	_, _, ok := tracker.Snapshot("task-1")
	assert.False(t, ok)

	// Late timer callbacks after clear are dropped silently.
	tracker.Update("task-1", 50)
	_, _, ok = tracker.Snapshot("task-1")
	assert.False(t, ok)
}
