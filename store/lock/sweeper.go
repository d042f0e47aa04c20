package lock

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSchedule runs Sweep once a second.
const DefaultSweepSchedule = "@every 1s"

// Sweeper runs Registry.Sweep on a cron schedule.
type Sweeper struct {
	cron *cron.Cron
	reg  *Registry
	log  *zap.Logger
}

// NewSweeper schedules sweeps of reg. The schedule accepts standard cron
// expressions and descriptors such as "@every 5s"; empty selects
// DefaultSweepSchedule. The sweeper does nothing until Start.
func NewSweeper(reg *Registry, schedule string, log *zap.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sweeper{
		cron: cron.New(),
		reg:  reg,
		log:  log,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("lock: sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) run() {
	if n := s.reg.Sweep(); n > 0 {
		s.log.Debug("swept idle page locks", zap.Int("removed", n), zap.Int("remaining", s.reg.Len()))
	}
}

// Start begins running sweeps in the background.
func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
