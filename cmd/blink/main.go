package main

//go-build: CGO_ENABLED=0

import (
	"errors"
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/tasosval/sharpduino/pkg/client"
	"github.com/tasosval/sharpduino/pkg/env"
	"github.com/tasosval/sharpduino/pkg/firmata"
	"github.com/tasosval/sharpduino/pkg/framework"
)

var (
	ledPin   = 13
	interval = time.Second
	count    uint64
)

func init() {
	env.SetupFlags()
	flag.IntVar(&ledPin, "pin", ledPin, "LED pin")
	flag.DurationVar(&interval, "interval", interval, "Toggle interval")
	flag.Uint64Var(&count, "count", count, "Number of toggles, 0 for forever")
}

type digitalOutput interface {
	SetDigitalOutput(pin byte, value bool) error
}

// blinker toggles a pin on every loop iteration.
type blinker struct {
	out   digitalOutput
	pin   byte
	count uint64
	on    bool
}

func (b *blinker) Control(ctx framework.ControlContext) error {
	if b.count > 0 && ctx.Iteration() >= b.count {
		return framework.ErrStopLoop
	}
	b.on = !b.on
	err := b.out.SetDigitalOutput(b.pin, b.on)
	if errors.Is(err, client.ErrNotInitialized) {
		return framework.ErrStopLoop
	}
	glog.V(1).Infof("D%d = %v", b.pin, b.on)
	return err
}

func main() {
	flag.Parse()

	r := framework.NewRunner().HandleSignals()
	conf := env.NewConfig()
	cli := conf.MustOpen(r.Context, client.Options{})
	defer cli.Close()

	pin := byte(ledPin)
	if err := cli.SetPinMode(pin, firmata.PinModeOutput); err != nil {
		glog.Exit(err)
	}
	loop := framework.NewLoop(interval).AddController(&blinker{out: cli, pin: pin, count: count})
	if err := r.Go(framework.NamedRun("blink", loop)).Wait(); err != nil {
		glog.Exit(err)
	}
	if err := cli.Err(); err != nil && !errors.Is(err, r.Context.Err()) {
		glog.Exit(err)
	}
}
