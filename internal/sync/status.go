package sync

import (
	"log"
	"sync"
	"time"
)

// Outcome is the terminal result of a sync operation.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// Reporter receives sync lifecycle notifications. Implementations render
// them however they like (status bar, log line); the coordinator makes no
// assumption about display or dismissal.
type Reporter interface {
	SyncStarted(message string)
	SyncFinished(outcome Outcome, message string)
}

// NopReporter discards all notifications.
type NopReporter struct{}

func (NopReporter) SyncStarted(string)           {}
func (NopReporter) SyncFinished(Outcome, string) {}

// LogReporter writes notifications to the process log.
type LogReporter struct{}

func (LogReporter) SyncStarted(message string) {
	log.Printf("[Matchday] sync: %s", message)
}

func (LogReporter) SyncFinished(outcome Outcome, message string) {
	log.Printf("[Matchday] sync %s: %s", outcome, message)
}

// Event is a recorded lifecycle notification.
type Event struct {
	Phase   string    `json:"phase"` // "start" or "end"
	Outcome Outcome   `json:"outcome,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Recorder keeps the most recent lifecycle event so it can be polled (e.g.
// by the status endpoint). Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	last Event
	has  bool
}

func (r *Recorder) SyncStarted(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = Event{Phase: "start", Message: message, At: time.Now()}
	r.has = true
}

func (r *Recorder) SyncFinished(outcome Outcome, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = Event{Phase: "end", Outcome: outcome, Message: message, At: time.Now()}
	r.has = true
}

// Last returns the most recent event, if any.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.has
}

// Multi fans notifications out to several reporters in order.
func Multi(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}

type multiReporter []Reporter

func (m multiReporter) SyncStarted(message string) {
	for _, r := range m {
		r.SyncStarted(message)
	}
}

func (m multiReporter) SyncFinished(outcome Outcome, message string) {
	for _, r := range m {
		r.SyncFinished(outcome, message)
	}
}
