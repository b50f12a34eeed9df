package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/internal/config"
	"github.com/reoring/dlcheck/internal/logging"
	"github.com/reoring/dlcheck/internal/metrics"
	"github.com/reoring/dlcheck/internal/watch"
	"github.com/reoring/dlcheck/schemafile"
)

// app carries the global flags and the state every command shares.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configFile string
	schemaFile string
	logLevel   string
	logFormat  string
	maxDepth   int

	cfg      *config.Config
	reg      *dlcheck.Registry
	reloader *watch.Reloader
	promReg  *prometheus.Registry
	metrics  *metrics.Metrics
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &app{
		in:      in,
		out:     out,
		errOut:  errOut,
		promReg: promReg,
		metrics: metrics.New(promReg),
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dlcheck",
		Short: "dlcheck - validate analytics dataLayer events",
		Long: `dlcheck validates dataLayer event records (form submissions, GA4 ecommerce
events, ...) against a registry of event schemas and reports every violation.

Without --schema-file the built-in registry (form_submission_success, purchase)
is used.`,
		Version:           fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Config file (YAML)")
	pf.StringVar(&a.schemaFile, "schema-file", "", "Schema registry file (YAML or JSON); built-in registry when empty")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format (json, console)")
	pf.IntVar(&a.maxDepth, "max-depth", 0, "Maximum schema nesting depth followed during validation")

	root.AddCommand(
		a.validateCmd(),
		a.limitsCmd(),
		a.schemasCmd(),
		a.serveCmd(),
		a.consumeCmd(),
	)
	return root
}

// setup resolves configuration (defaults < file < env < flags), initialises
// logging and loads the schema registry.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("schema-file") {
		cfg.Schema.File = a.schemaFile
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("max-depth") {
		cfg.Validation.MaxDepth = a.maxDepth
	}
	if flags.Changed("watch") {
		cfg.Schema.Watch, _ = flags.GetBool("watch")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	lc := logging.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	logging.Init(lc, a.errOut)

	if cfg.Schema.File == "" {
		a.reg = dlcheck.Reference()
	} else if a.reg, err = schemafile.Load(cfg.Schema.File); err != nil {
		return err
	}
	a.metrics.RecordSchemaLoad(a.reg, nil)
	log.Debug().Str("schemaFile", cfg.Schema.File).Strs("events", a.reg.Names()).Msg("Schema registry loaded")
	return nil
}

// registry returns the active registry, following hot reloads when watching.
func (a *app) registry() *dlcheck.Registry {
	if a.reloader != nil {
		return a.reloader.Registry()
	}
	return a.reg
}

func (a *app) validateOpt() dlcheck.ValidateOpt {
	return dlcheck.ValidateOpt{MaxDepth: a.cfg.Validation.MaxDepth}
}
