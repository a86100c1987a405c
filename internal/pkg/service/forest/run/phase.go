package run

// Phase of one node instance. Transitions are linear:
// Created -> Prepared -> Building -> Published -> Done.
// Cancellation is observed only at phase boundaries, a node past the last
// check finishes its build but stops short of Published.
type Phase int32

const (
	PhaseCreated Phase = iota
	PhasePrepared
	PhaseBuilding
	PhasePublished
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhasePrepared:
		return "prepared"
	case PhaseBuilding:
		return "building"
	case PhasePublished:
		return "published"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}
