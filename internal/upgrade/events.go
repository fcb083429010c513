package upgrade

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Stage is a step of the per-instance state machine.
type Stage string

const (
	StageRun     Stage = "run"
	StageFetch   Stage = "fetch"
	StageCheck   Stage = "check"
	StageStop    Stage = "stop"
	StageConvert Stage = "convert"
	StageStart   Stage = "start"
	StageDone    Stage = "done"
)

// Status qualifies an Event within its stage.
type Status string

const (
	StatusStarted   Status = "started"
	StatusProgress  Status = "progress"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Event reports progress. Run-level events have an empty InstanceID.
type Event struct {
	Time       time.Time
	InstanceID string
	Stage      Stage
	Status     Status
	Message    string
	TaskID     string
	Metadata   *InstanceMetadata
	Reasons    []string
	Err        error
}

// Observer receives events as they happen. With Concurrency > 1 it is called
// from several goroutines.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans one event out to several observers in order.
type Observers []Observer

func (obs Observers) Observe(e Event) {
	for _, o := range obs {
		o.Observe(e)
	}
}

// Recorder keeps every event it sees. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// ForInstance returns the recorded events of one instance.
func (r *Recorder) ForInstance(id string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.InstanceID == id {
			out = append(out, e)
		}
	}
	return out
}

// LogObserver writes every event to log at debug level, or warning level for
// failures, so diagnostics carry the same trail as the progress output.
func LogObserver(log logrus.FieldLogger) Observer {
	return ObserverFunc(func(e Event) {
		entry := log.WithFields(logrus.Fields{"stage": e.Stage, "status": e.Status})
		if e.InstanceID != "" {
			entry = entry.WithField("instance", e.InstanceID)
		}
		if e.TaskID != "" {
			entry = entry.WithField("task", e.TaskID)
		}
		if e.Err != nil {
			entry = entry.WithError(e.Err)
		}
		if e.Status == StatusFailed {
			entry.Warn(e.Message)
			return
		}
		entry.Debug(e.Message)
	})
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
