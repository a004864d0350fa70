package sweeper

import (
	"context"
	"staybook/pkg/config"
	"staybook/pkg/metrics"
	"staybook/pkg/model"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const leaderKey = "sweep:leader"

// BookingExpirer is the slice of the booking service the sweeper drives.
type BookingExpirer interface {
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)
	ExpireBooking(ctx context.Context, id string) (bool, error)
}

// Sweeper periodically cancels pending bookings whose payment window has
// closed. Any number of instances may run; a Redis leader lock keeps all
// but one idle each cycle, and the conditional cancel underneath makes
// even overlapping sweeps safe.
type Sweeper struct {
	svc        BookingExpirer
	redis      *redis.Client
	cfg        *config.Config
	instanceID string
}

func New(svc BookingExpirer, redisClient *redis.Client, cfg *config.Config) *Sweeper {
	return &Sweeper{
		svc:        svc,
		redis:      redisClient,
		cfg:        cfg,
		instanceID: uuid.New().String(),
	}
}

// Run blocks, sweeping every SweepInterval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.cfg.Log.Info("Expiry sweeper started",
		"interval", s.cfg.SweepInterval,
		"batch_size", s.cfg.SweepBatchSize,
		"instance_id", s.instanceID,
	)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweepAsLeader(ctx)
		}
	}
}

func (s *Sweeper) sweepAsLeader(ctx context.Context) {
	acquired, err := s.redis.SetNX(ctx, leaderKey, s.instanceID, s.cfg.SweepLockTTL).Result()
	if err != nil {
		s.cfg.Log.Error("Failed to acquire sweep lock", "error", err)
		return
	}
	if !acquired {
		s.cfg.Log.Debug("Sweep lock held elsewhere, skipping cycle")
		return
	}
	defer s.releaseLock(ctx)

	s.Sweep(ctx)
}

// Sweep runs a single expiry pass. A failure on one booking is logged and
// counted but never stops the batch.
func (s *Sweeper) Sweep(ctx context.Context) {
	start := time.Now()
	now := time.Now().UTC()

	expired, err := s.svc.FindExpired(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		s.cfg.Log.Error("Failed to find expired bookings", "error", err)
		metrics.TrackSweep(0, 0, 1, time.Since(start))
		return
	}

	var cancelled, failed int
	for _, booking := range expired {
		done, err := s.svc.ExpireBooking(ctx, booking.ID)
		if err != nil {
			failed++
			s.cfg.Log.Error("Failed to expire booking", "id", booking.ID, "error", err)
			continue
		}
		if done {
			cancelled++
		}
	}

	metrics.TrackSweep(len(expired), cancelled, failed, time.Since(start))
	if len(expired) > 0 {
		s.cfg.Log.Info("Expiry sweep completed",
			"found", len(expired),
			"cancelled", cancelled,
			"failed", failed,
			"duration", time.Since(start),
		)
	}
}

// releaseLock drops the leader lock only if this instance still holds it;
// a lock that outlived its TTL may already belong to someone else.
func (s *Sweeper) releaseLock(ctx context.Context) {
	holder, err := s.redis.Get(ctx, leaderKey).Result()
	if err != nil || holder != s.instanceID {
		return
	}
	if err := s.redis.Del(ctx, leaderKey).Err(); err != nil {
		s.cfg.Log.Warn("Failed to release sweep lock", "error", err)
	}
}
