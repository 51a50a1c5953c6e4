package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/tasosval/sharpduino/pkg/client"
	"github.com/tasosval/sharpduino/pkg/env"
	"github.com/tasosval/sharpduino/pkg/framework"
	"github.com/tasosval/sharpduino/pkg/transport"
)

func init() {
	env.SetupFlags()
}

type initWaiter interface {
	WaitInitialized(ctx context.Context) error
}

// waitInitialized fails the runner if the board doesn't complete the
// handshake within the init timeout.
func waitInitialized(w initWaiter) framework.RunFunc {
	return func(ctx context.Context) error {
		if err := w.WaitInitialized(ctx); err != nil {
			return err
		}
		glog.Info("board initialized")
		return nil
	}
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	queue, bridge, err := conf.NewBridge()
	if err != nil {
		glog.Exit(err)
	}
	conn, err := transport.Open(conf.Transport())
	if err != nil {
		glog.Exit(err)
	}
	cli := client.New(conn, conf.ClientOptions(client.Options{Handler: bridge, Notifier: bridge}))
	defer cli.Close()
	bridge.Attach(cli)

	queue.Connect()
	defer queue.Close()

	err = framework.NewRunner().HandleSignals().Go(
		framework.NamedRun("board", cli),
		framework.NamedRun("init", waitInitialized(cli)),
		framework.NamedRun("bridge", bridge),
	).Wait()
	if err != nil {
		glog.Error(err)
	}
}
