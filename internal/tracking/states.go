package tracking

import "time"

type State string

const (
	StateOn      State = "ON"
	StateOff     State = "OFF"
	StateUnknown State = "unknown"
)

// Job is the engine's view of one recorded state transition of a product
// on a machine. Histories come in two shapes: one row appended per
// transition, or a single row whose state was flipped in place (UpdatedAt
// then marks the OFF instant). Both must be handled by the duration logic.
type Job struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	MachineID   int64     `json:"machine_id"`
	MachineName string    `json:"machine_name"`
	State       State     `json:"state"`
	Stage       string    `json:"stage"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// offAt returns the instant a job left the ON state. Rows mutated in place
// carry it in UpdatedAt; appended rows fall back to CreatedAt.
func (j Job) offAt() time.Time {
	if j.UpdatedAt.IsZero() {
		return j.CreatedAt
	}
	return j.UpdatedAt
}

type DurationKind string

const (
	DurationRunning   DurationKind = "running"
	DurationFinal     DurationKind = "final"
	DurationCompleted DurationKind = "completed"
	DurationTotalZero DurationKind = "total_zero"
)

// Duration is the display-duration result. It never carries a negative
// elapsed value; degenerate histories degrade to a sentinel kind instead.
type Duration struct {
	Kind    DurationKind  `json:"kind"`
	Elapsed time.Duration `json:"elapsed"`
}

// Display renders the duration the way the work panel shows it.
func (d Duration) Display() string {
	switch d.Kind {
	case DurationRunning:
		return "Running: " + FormatClock(d.Elapsed)
	case DurationFinal:
		return "Final: " + FormatClock(d.Elapsed)
	case DurationTotalZero:
		return "Total: " + FormatClock(0)
	default:
		return "Completed"
	}
}
