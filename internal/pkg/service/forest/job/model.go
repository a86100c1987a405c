package job

import (
	"github.com/grovekit/grove/internal/pkg/service/common/utctime"
)

type State string

const (
	StateCreated   State = "created"
	StateRunning   State = "running"
	StateCancelled State = "cancelled"
	StateDone      State = "done"
)

// Job is the lifecycle record of one training run.
type Job struct {
	ID             string           `json:"id"`
	Description    string           `json:"description"`
	DestinationKey string           `json:"destinationKey"`
	State          State            `json:"state"`
	CreatedAt      utctime.UTCTime  `json:"createdAt"`
	FinishedAt     *utctime.UTCTime `json:"finishedAt,omitempty"`
	CancelCause    string           `json:"cancelCause,omitempty"`
}

func (j Job) IsTerminal() bool {
	return j.State == StateDone || j.State == StateCancelled
}
