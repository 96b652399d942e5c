package ports

import "context"

type SweepReport struct {
	OrphanedEvents       int64
	OrphanedParticipants int64
	PrunedParticipants   int64
}

type SweepService interface {
	Sweep(ctx context.Context) (SweepReport, error)
}
