package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/tasosval/sharpduino/pkg/client"
	"github.com/tasosval/sharpduino/pkg/env"
	"github.com/tasosval/sharpduino/pkg/firmata"
	"github.com/tasosval/sharpduino/pkg/framework"
)

var (
	servoPin = 9
	minPulse = int(firmata.DefaultServoMinPulse)
	maxPulse = int(firmata.DefaultServoMaxPulse)
	angle    = 92
)

func init() {
	env.SetupFlags()
	flag.IntVar(&servoPin, "pin", servoPin, "Servo pin")
	flag.IntVar(&minPulse, "min", minPulse, "Minimum pulse width in microseconds")
	flag.IntVar(&maxPulse, "max", maxPulse, "Maximum pulse width in microseconds")
	flag.IntVar(&angle, "angle", angle, "Angle to move to")
}

func main() {
	flag.Parse()

	r := framework.NewRunner().HandleSignals()
	cli := env.NewConfig().MustOpen(r.Context, client.Options{})
	defer cli.Close()

	pin := byte(servoPin)
	if err := cli.SendServoConfig(pin, uint16(minPulse), uint16(maxPulse), 0); err != nil {
		glog.Exit(err)
	}
	if err := cli.SendAnalogValue(pin, uint32(angle)); err != nil {
		glog.Exit(err)
	}
	glog.Infof("servo D%d moved to %d", pin, angle)
}
