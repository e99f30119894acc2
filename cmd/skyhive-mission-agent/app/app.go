// Package app assembles the mission agent command.
package app

import (
	"github.com/skyhive-io/skyhive/cmd/skyhive-mission-agent/app/options"
	"github.com/skyhive-io/skyhive/pkg/app"
	"github.com/skyhive-io/skyhive/pkg/log"
)

const commandDesc = `The mission agent flies one autonomous search-and-delivery
mission: it takes off, follows a planned search lap, diverts to deliver
payloads on perception triggers, locks the landing marker and lands, with a
battery guard forcing an emergency landing at any point.

It talks to the flight controller, path planner and perception pipeline over
MQTT and exposes health, metrics and mission status over HTTP.`

// NewApp creates the skyhive-mission-agent application.
func NewApp() *app.App {
	opts := options.NewOptions()
	return app.NewApp("skyhive-mission-agent", "Autonomous drone mission sequencer",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(func() error {
			return run(opts)
		}),
	)
}

func run(opts *options.Options) error {
	log.Init(opts.Log)

	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	agent, err := cfg.New()
	if err != nil {
		return err
	}

	return agent.Run(app.SetupSignalContext())
}
