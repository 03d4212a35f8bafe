// internal/submission/progress.go
package submission

import (
	"sync"
)

// ProgressEvent is one observable change in an upload task's state.
type ProgressEvent struct {
	TaskID  string
	Percent int
	State   UploadTaskState
	Err     string
}

type taskProgress struct {
	percent int
	state   UploadTaskState
	err     string
	subs    []chan ProgressEvent
}

func (t *taskProgress) terminal() bool {
	return t.state == TaskSucceeded || t.state == TaskFailed
}

// ProgressTracker fans upload progress out to observers. Purely a
// presentation aid: updates for unknown, cleared, or already-terminal tasks
// are dropped, and percent never moves backwards, so callers can report
// progress without ordering guarantees from the transport.
type ProgressTracker struct {
	mu    sync.Mutex
	tasks map[string]*taskProgress
	subs  []chan ProgressEvent
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		tasks: make(map[string]*taskProgress),
	}
}

// Subscribe returns a channel receiving every task's events, for callers that
// do not know task ids up front. Channels are buffered; a slow consumer loses
// events rather than stalling uploads.
func (t *ProgressTracker) Subscribe() <-chan ProgressEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan ProgressEvent, 64)
	t.subs = append(t.subs, ch)
	return ch
}

// Observe returns a stream of one task's events, closed when the task reaches
// a terminal state or is cleared. Observing an unknown task returns a closed
// channel.
func (t *ProgressTracker) Observe(taskID string) <-chan ProgressEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan ProgressEvent, 16)
	task, ok := t.tasks[taskID]
	if !ok || task.terminal() {
		close(ch)
		return ch
	}
	task.subs = append(task.subs, ch)
	return ch
}

// Start registers a task in the queued state at zero percent.
func (t *ProgressTracker) Start(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tasks[taskID] = &taskProgress{state: TaskQueued}
	t.notifyLocked(taskID, ProgressEvent{TaskID: taskID, State: TaskQueued})
}

// Update moves a task forward. Calls for tasks that were never started,
// already finished, or that would move percent backwards are no-ops.
func (t *ProgressTracker) Update(taskID string, percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.tasks[taskID]
	if !ok || task.terminal() {
		return
	}
	if percent <= task.percent {
		return
	}
	if percent > 100 {
		percent = 100
	}

	task.percent = percent
	task.state = TaskUploading
	t.notifyLocked(taskID, ProgressEvent{TaskID: taskID, Percent: percent, State: TaskUploading})
}

// Finish moves a task to its terminal state: succeeded pins percent at 100,
// failed keeps the last observed percent and carries the failure reason.
// Finishing an unknown or already-terminal task is a no-op. The task's
// observers are closed after the terminal event.
func (t *ProgressTracker) Finish(taskID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.tasks[taskID]
	if !ok || task.terminal() {
		return
	}

	event := ProgressEvent{TaskID: taskID}
	if err != nil {
		task.state = TaskFailed
		task.err = err.Error()
		event.State = TaskFailed
		event.Percent = task.percent
		event.Err = task.err
	} else {
		task.state = TaskSucceeded
		task.percent = 100
		event.State = TaskSucceeded
		event.Percent = 100
	}
	t.notifyLocked(taskID, event)

	for _, ch := range task.subs {
		close(ch)
	}
	task.subs = nil
}

// Snapshot returns the current state of a task, if known.
func (t *ProgressTracker) Snapshot(taskID string) (percent int, state UploadTaskState, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, found := t.tasks[taskID]
	if !found {
		return 0, "", false
	}
	return task.percent, task.state, true
}

// Clear drops one task's state once its progress indicator is gone. Later
// updates for the task are no-ops.
func (t *ProgressTracker) Clear(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.tasks[taskID]
	if !ok {
		return
	}
	for _, ch := range task.subs {
		close(ch)
	}
	delete(t.tasks, taskID)
}

// Reset drops all task state and closes every channel. Called after a
// submission's result has been delivered.
func (t *ProgressTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, task := range t.tasks {
		for _, ch := range task.subs {
			close(ch)
		}
		task.subs = nil
	}
	t.tasks = make(map[string]*taskProgress)
	for _, ch := range t.subs {
		close(ch)
	}
	t.subs = nil
}

func (t *ProgressTracker) notifyLocked(taskID string, event ProgressEvent) {
	send := func(ch chan ProgressEvent) {
		select {
		case ch <- event:
		default:
		}
	}
	for _, ch := range t.subs {
		send(ch)
	}
	if task, ok := t.tasks[taskID]; ok {
		for _, ch := range task.subs {
			send(ch)
		}
	}
}
