package task

// TaskEventType discriminates between the events emitted while loading and
// running tasks.
type TaskEventType string

const (
	// TaskEventRegistered signals that a task was successfully registered.
	TaskEventRegistered TaskEventType = "registered"
	// TaskEventRegistrationFailed signals that a task definition file failed to load.
	TaskEventRegistrationFailed TaskEventType = "registration_failed"
	// TaskEventStarted signals that a task body is about to run.
	TaskEventStarted TaskEventType = "started"
	// TaskEventCompleted signals that a task body returned.
	TaskEventCompleted TaskEventType = "completed"
	// TaskEventInterrupted signals that a task was abandoned by an interrupt.
	TaskEventInterrupted TaskEventType = "interrupted"
	// TaskEventSkipped signals that a resolved task was not scheduled.
	TaskEventSkipped TaskEventType = "skipped"
)

// TaskEvent captures contextual information about a task lifecycle step.
type TaskEvent struct {
	Type     TaskEventType
	Task     string
	File     string
	ExitCode int
	Err      error
}

// TaskEventHandler consumes task events emitted by the runner.
type TaskEventHandler func(TaskEvent)
