package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrSchedulerNotRunning is returned when submitting to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue has no free slot
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidCron is returned for an unparseable cron expression
	ErrInvalidCron = errors.New("invalid cron expression")
)

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

type panicError struct{ value any }

func (e panicError) Error() string { return fmt.Sprintf("job panicked: %v", e.value) }
