package report

import "time"

// RunState enum. Transitions are linear; FAILED is terminal and reachable
// from every non-terminal state.
type RunState string

const (
	StateReceived  RunState = "RECEIVED"
	StateUnpacked  RunState = "UNPACKED"
	StateAnalyzing RunState = "ANALYZING"
	StateAssembled RunState = "ASSEMBLED"
	StateRendered  RunState = "RENDERED"
	StatePublished RunState = "PUBLISHED"
	StateFailed    RunState = "FAILED"
)

// ProgressEvent is emitted once per completed image analysis.
// Index counts completions (1-based), not input positions.
type ProgressEvent struct {
	Index    int
	Total    int
	FileName string
	Elapsed  time.Duration
	ETA      time.Duration
}
