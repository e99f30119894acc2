// Package options builds the mission agent's full option set from flags and
// config files.
package options

import (
	"errors"
	"strings"

	"github.com/skyhive-io/skyhive/internal/agent"
	"github.com/skyhive-io/skyhive/pkg/app"
	"github.com/skyhive-io/skyhive/pkg/log"
	genericoptions "github.com/skyhive-io/skyhive/pkg/options"
)

var _ app.NamedFlagSetOptions = (*Options)(nil)

// Options contains every configuration section of the mission agent.
type Options struct {
	Mission *genericoptions.MissionOptions `json:"mission" mapstructure:"mission"`
	Mqtt    *genericoptions.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	Http    *genericoptions.HttpOptions    `json:"http" mapstructure:"http"`
	S3      *genericoptions.S3Options      `json:"s3" mapstructure:"s3"`
	Log     *log.Options                   `json:"log" mapstructure:"log"`
}

// NewOptions creates the default option set.
func NewOptions() *Options {
	return &Options{
		Mission: genericoptions.NewMissionOptions(),
		Mqtt:    genericoptions.NewMqttOptions(),
		Http:    genericoptions.NewHttpOptions(),
		S3:      genericoptions.NewS3Options(),
		Log:     log.NewOptions(),
	}
}

// Flags returns the grouped command-line flags.
func (o *Options) Flags() (fss app.NamedFlagSets) {
	o.Mission.AddFlags(fss.FlagSet("mission"))
	o.Mqtt.AddFlags(fss.FlagSet("mqtt"))
	o.Http.AddFlags(fss.FlagSet("http"))
	o.S3.AddFlags(fss.FlagSet("s3"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

// Complete fills in defaults that depend on other option values.
func (o *Options) Complete() error {
	if o.Mqtt.ClientID == "" {
		o.Mqtt.ClientID = "skyhive-" + o.Mission.DroneID
	}
	return nil
}

// Validate checks the full option set.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.Mission.Validate()...)
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.S3.Validate()...)
	errs = append(errs, o.Log.Validate()...)

	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Config converts the options into a runnable agent configuration.
func (o *Options) Config() (*agent.Config, error) {
	return &agent.Config{
		Mqtt:    o.Mqtt,
		Http:    o.Http,
		S3:      o.S3,
		Mission: o.Mission,
	}, nil
}
