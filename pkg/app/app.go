package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skyhive-io/skyhive/pkg/log"
)

// RunFunc is the application's entry point, invoked after options are
// loaded, completed and validated.
type RunFunc func() error

// NamedFlagSetOptions is implemented by the top-level options struct of each
// command.
type NamedFlagSetOptions interface {
	// Flags returns the grouped command-line flags.
	Flags() NamedFlagSets

	// Complete fills in defaults that depend on other option values.
	Complete() error

	// Validate checks the full option set before the application runs.
	Validate() error
}

// App wraps a cobra command with option binding, config-file merging and
// signal handling.
type App struct {
	name        string
	short       string
	description string
	options     NamedFlagSetOptions
	run         RunFunc
	cmd         *cobra.Command
}

// Option configures an App during construction.
type Option func(*App)

// WithDescription sets the long command description.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithOptions binds an option struct to the command's flags.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the application entry point.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.run = run }
}

// WithDefaultValidArgs rejects any positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {}
}

// NewApp builds an application with the given name and options.
func NewApp(name, short string, opts ...Option) *App {
	a := &App{
		name:  name,
		short: short,
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	var configFile string

	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.short,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.options != nil {
				if err := a.loadConfig(cmd, configFile); err != nil {
					return err
				}
				if err := a.options.Complete(); err != nil {
					return err
				}
				if err := a.options.Validate(); err != nil {
					return err
				}
			}
			if a.run == nil {
				return nil
			}
			return a.run()
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file (yaml/json/toml).")

	if a.options != nil {
		namedfs := a.options.Flags()
		for _, name := range namedfs.Order {
			cmd.Flags().AddFlagSet(namedfs.FlagSets[name])
		}
	}

	a.cmd = cmd
}

// loadConfig merges a config file (if given) under the command-line flags.
// Flags explicitly set by the user win over file values.
func (a *App) loadConfig(cmd *cobra.Command, configFile string) error {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %q: %w", configFile, err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// Run executes the application and exits the process on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		log.Error(err, "Application terminated")
		fmt.Fprintf(os.Stderr, "%s error: %v\n", a.name, err)
		os.Exit(1)
	}
}

// Command exposes the underlying cobra command, mainly for tests.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// SetupSignalContext returns a context cancelled on SIGINT/SIGTERM. A second
// signal terminates the process immediately.
func SetupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
