package symtab

import "fmt"

// Phase identifies one stage of an indexing run.
type Phase string

const (
	PhaseIngest  Phase = "ingest"
	PhaseMerge   Phase = "merge"
	PhaseAnalyze Phase = "analyze"
)

// ProgressStatus is the lifecycle state of one unit of pipeline work.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent reports progress for a file (during ingest) or a whole
// phase (merge, analyze).
type ProgressEvent struct {
	Phase   Phase
	File    string // empty for phase-level events
	Status  ProgressStatus
	Message string
}

// progressBuffer bounds the reporter's channel. A slow or absent consumer
// must never stall indexing, so anything beyond the buffer is discarded.
const progressBuffer = 64

// ProgressReporter fans indexing progress out to at most one consumer.
// Reporting is strictly best-effort; the pipeline's correctness never
// depends on an event being observed.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter returns a reporter ready to emit.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{ch: make(chan ProgressEvent, progressBuffer)}
}

// Emit delivers an event if buffer space allows and drops it otherwise.
// It never blocks.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe exposes the event stream. The channel closes with Close, so a
// consumer can range over it.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close ends the stream. Emit must not be called afterwards.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	subject := event.File
	if subject == "" {
		subject = string(event.Phase)
	}
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", subject)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", subject)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s complete", subject)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", subject, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", subject)
	}
}
