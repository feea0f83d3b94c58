package services

import (
	"context"
	"log"
	"time"

	"github.com/careconnect/booking-backend/internal/domain/repositories"
)

// CompletionService periodically marks elapsed appointments as completed
type CompletionService struct {
	repo repositories.AppointmentRepository
	now  func() time.Time
}

// NewCompletionService creates a new completion service
func NewCompletionService(repo repositories.AppointmentRepository) *CompletionService {
	return &CompletionService{repo: repo, now: time.Now}
}

// SweepOnce completes every pending or confirmed appointment whose start time
// has already passed
func (s *CompletionService) SweepOnce(ctx context.Context) (int64, error) {
	return s.repo.CompleteElapsed(ctx, s.now())
}

// StartPeriodicSweep runs SweepOnce on a fixed interval until the context is
// cancelled. The sweep is SQL-side and idempotent, so overlapping runs after
// a restart are harmless.
func (s *CompletionService) StartPeriodicSweep(ctx context.Context, interval time.Duration) {
	if n, err := s.SweepOnce(ctx); err != nil {
		log.Printf("Initial completion sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("Completion sweep marked %d appointment(s) completed", n)
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("Stopping completion sweep service")
				return
			case <-ticker.C:
				if n, err := s.SweepOnce(context.Background()); err != nil {
					log.Printf("Completion sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("Completion sweep marked %d appointment(s) completed", n)
				}
			}
		}
	}()
	log.Printf("Started periodic completion sweep every %v", interval)
}
