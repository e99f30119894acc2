package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/skyhive-io/skyhive/cmd/skyhive-mission-agent/app"
)

func main() {
	app.NewApp().Run()
}
