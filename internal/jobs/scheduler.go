package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ResetCodeStore は期限切れリセットコードの掃除先
type ResetCodeStore interface {
	ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	sched *cron.Cron
	log   *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		sched: cron.New(cron.WithLocation(time.UTC), cron.WithParser(cronParser)),
		log:   log,
	}
}

// AddResetCodeSweep は spec(例: "@every 10m") ごとに期限切れコードを消す
func (s *Scheduler) AddResetCodeSweep(spec string, store ResetCodeStore, now func() time.Time) error {
	_, err := s.sched.AddFunc(spec, func() {
		SweepResetCodes(context.Background(), store, now(), s.log)
	})
	return errors.Wrapf(err, "schedule reset code sweep %q", spec)
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop は実行中のジョブを待つ
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.sched.Stop().Done():
	case <-ctx.Done():
	}
}

// SweepResetCodes は1回分の掃除。失敗はログだけ。
func SweepResetCodes(ctx context.Context, store ResetCodeStore, now time.Time, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := store.ClearExpiredResetCodes(ctx, now)
	if err != nil {
		log.Error("reset code sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("expired reset codes cleared", zap.Int64("count", n))
	}
}
