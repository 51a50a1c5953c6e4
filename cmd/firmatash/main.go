package main

import (
	"github.com/tasosval/sharpduino/pkg/cli/sh"
	"github.com/tasosval/sharpduino/pkg/env"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
