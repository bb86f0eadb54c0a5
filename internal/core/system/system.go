package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput       Phase = iota // 0: accept sessions, drain packet queues
	PhaseCompletions              // 1: drain finished terrain generations
	PhaseUpdate                   // 2: physics step, observer movement
	PhasePostUpdate               // 3: sun cycle, residency sweeps
	PhaseOutput                   // 4: flush per-session output buffers
	PhasePersist                  // 5: batch writes to the block cache
	PhaseCleanup                  // 6: tear down dead observers
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
