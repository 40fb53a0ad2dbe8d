package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/confsync/pkg/config"
	"github.com/openfroyo/confsync/pkg/console"
	"github.com/openfroyo/confsync/pkg/engine"
	"github.com/openfroyo/confsync/pkg/gateway"
	"github.com/openfroyo/confsync/pkg/policy"
	"github.com/openfroyo/confsync/pkg/stores"
	"github.com/openfroyo/confsync/pkg/telemetry"
)

// session is the per-command environment: settings, telemetry, the
// operator console and the store.
type session struct {
	settings  *config.Settings
	telemetry *telemetry.Telemetry
	logger    zerolog.Logger
	out       io.Writer
	in        io.Reader
	noColor   bool

	store *stores.SQLiteStore
}

// settings loads the settings file and applies the flags set on cmd.
func (o *globalOptions) settings(cmd *cobra.Command) (*config.Settings, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultSettingsPath()
	}

	s, err := config.LoadSettings(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		s.Store = o.store
	}
	if flags.Changed("log-level") {
		s.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		s.LogFormat = o.logFormat
	}
	if flags.Changed("metrics-file") {
		s.MetricsFile = o.metricsFile
	}
	if flags.Changed("trace-exporter") {
		s.TraceExporter = o.traceExporter
	}
	if flags.Changed("otlp-endpoint") {
		s.OTLPEndpoint = o.otlpEndpoint
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// open builds the session of cmd and attaches the telemetry to its context.
func (o *globalOptions) open(cmd *cobra.Command) (*session, error) {
	settings, err := o.settings(cmd)
	if err != nil {
		return nil, err
	}

	cfg := telemetry.ConfigFromSettings(settings, o.version)
	cfg.Logging.NoColor = o.noColor
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	zerolog.SetGlobalLevel(telemetry.ParseLevel(settings.LogLevel))
	log.Logger = tel.Logger.Zerolog()
	cmd.SetContext(tel.WithContext(cmd.Context()))

	return &session{
		settings:  settings,
		telemetry: tel,
		logger:    tel.Logger.Zerolog(),
		out:       cmd.OutOrStdout(),
		in:        cmd.InOrStdin(),
		noColor:   o.noColor,
	}, nil
}

// Store opens the live configuration database, creating and migrating it on
// first use.
func (s *session) Store(ctx context.Context) (*stores.SQLiteStore, error) {
	if s.store != nil {
		return s.store, nil
	}

	path := s.settings.Store
	if path != stores.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	s.logger.Debug().Str("path", path).Msg("Store opened.")
	s.store = store
	return store, nil
}

// Renderer returns a console renderer on the command output.
func (s *session) Renderer(detailed bool) *console.Renderer {
	opts := []console.Option{console.WithDetails(detailed)}
	if s.noColor {
		opts = append(opts, console.WithStyling(false))
	}
	return console.NewRenderer(s.out, opts...)
}

// Planner creates a planner against gw with the session logger and metrics.
func (s *session) Planner(gw gateway.Gateway, opts ...engine.PlannerOption) *engine.Planner {
	base := []engine.PlannerOption{
		engine.WithLogger(s.logger),
		engine.WithMetrics(s.telemetry.Metrics),
		engine.WithUnchangeableCheck(!s.settings.SkipUnchangeableCheck),
	}
	return engine.NewPlanner(gw, append(base, opts...)...)
}

// Policies builds the policy engine with the builtin policies plus the
// policies found in the configured and extra directories.
func (s *session) Policies(ctx context.Context, gw gateway.Gateway, extraDirs []string) (*policy.Engine, error) {
	pe, err := policy.NewEngine(ctx, s.logger, policy.WithGateway(gw))
	if err != nil {
		return nil, err
	}

	dirs := append(append([]string{}, s.settings.PolicyDirs...), extraDirs...)
	if len(dirs) > 0 {
		if err := pe.LoadPolicies(ctx, dirs); err != nil {
			return nil, err
		}
	}
	return pe, nil
}

// Report prints err on the console and marks it as reported.
func (s *session) Report(err error) error {
	s.Renderer(false).Error(err)
	return &reportedError{err: err}
}

// Close releases the store and flushes the telemetry.
func (s *session) Close(ctx context.Context) error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	errs = append(errs, s.telemetry.Shutdown(context.WithoutCancel(ctx)))
	return errors.Join(errs...)
}

// withSession runs fn inside an instrumented session of cmd.
func (o *globalOptions) withSession(cmd *cobra.Command, documentPath string, fn func(context.Context, *session) error) (err error) {
	s, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(cmd.Context()); closeErr != nil {
			s.logger.Warn().Err(closeErr).Msg("Failed to close session.")
		}
	}()

	ctx, span := s.telemetry.Tracer.StartCommandSpan(cmd.Context(), cmd.Name(), documentPath)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.RecordSuccess(span)
		}
		span.End()
	}()

	return fn(ctx, s)
}
