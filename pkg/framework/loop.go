package framework

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the Loop interval if not specified.
const DefaultInterval = 100 * time.Millisecond

// Loop calls controllers at a fixed interval. The first iteration runs
// immediately. Controller errors are logged, except ErrStopLoop which
// ends the loop.
type Loop struct {
	Interval time.Duration

	controllers []Controller
	wakeUpCh    chan struct{}
}

type loopIteration struct {
	loop      *Loop
	ctx       context.Context
	time      time.Time
	iteration uint64
}

// NewLoop creates a Loop.
func NewLoop(interval time.Duration) *Loop {
	return &Loop{Interval: interval}
}

// AddController registers controllers, called in the order added.
func (l *Loop) AddController(ctls ...Controller) *Loop {
	l.controllers = append(l.controllers, ctls...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.TriggerNext()
	for n := uint64(0); ; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-l.wakeUpCh:
		}
		if l.runIteration(ctx, n) {
			return nil
		}
	}
}

// TriggerNext schedules an iteration right away.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) runIteration(ctx context.Context, n uint64) (stop bool) {
	iter := &loopIteration{loop: l, ctx: ctx, time: time.Now(), iteration: n}
	for _, ctl := range l.controllers {
		err := ctl.Control(iter)
		switch {
		case err == nil:
		case errors.Is(err, ErrStopLoop):
			glog.V(4).Infof("loop stopped at iteration %d", n)
			return true
		default:
			glog.Errorf("controller error: %v", err)
		}
	}
	return false
}

func (t *loopIteration) Context() context.Context { return t.ctx }
func (t *loopIteration) Time() time.Time          { return t.time }
func (t *loopIteration) Iteration() uint64        { return t.iteration }
func (t *loopIteration) TriggerNext()             { t.loop.TriggerNext() }
