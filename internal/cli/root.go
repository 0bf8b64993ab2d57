package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/streakerapp/supacheck/internal/buildinfo"
	"github.com/streakerapp/supacheck/internal/infra/config"
	"github.com/streakerapp/supacheck/internal/infra/logger"
	"github.com/streakerapp/supacheck/internal/ui/tui"
)

// app holds the global flags and the output streams shared by every command.
type app struct {
	debug      bool
	dir        string
	configFile string

	url            string
	anonKey        string
	serviceRoleKey string
	dbURL          string
	timeout        time.Duration

	out    io.Writer
	errOut io.Writer
	theme  tui.Theme

	closeLog func() error
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, errOut: os.Stderr, theme: tui.DefaultTheme()}
	cmd := newRootCmd(a)
	err := cmd.ExecuteContext(ctx)
	a.close()
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "supacheck",
		Short:         "supacheck: signup and profile checks against a Supabase project",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.setupLogger()
			return nil
		},
	}
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	pf := cmd.PersistentFlags()
	pf.BoolVar(&a.debug, "debug", false, "enable verbose logging to .supacheck/logs/supacheck.log")
	pf.StringVarP(&a.dir, "dir", "d", "", "Project root (optional; autodetected from supacheck.yaml if omitted)")
	pf.StringVar(&a.configFile, "config", "", "Config file (default: <root>/supacheck.yaml)")
	pf.StringVar(&a.url, "url", "", "Project URL (overrides SUPABASE_URL)")
	pf.StringVar(&a.anonKey, "anon-key", "", "Anon key (overrides SUPABASE_ANON_KEY)")
	pf.StringVar(&a.serviceRoleKey, "service-role-key", "", "Service role key (overrides SUPABASE_SERVICE_ROLE_KEY)")
	pf.StringVar(&a.dbURL, "db-url", "", "Postgres connection string (overrides SUPABASE_DB_URL)")
	pf.DurationVar(&a.timeout, "timeout", 0, "HTTP timeout per request (default from config, 30s)")

	cmd.AddCommand(
		checkCmd(a),
		otpCmd(a),
		settingsCmd(a),
		clearCmd(a),
		schemaCmd(a),
		reportCmd(a),
		initCmd(a),
		versionCmd(a),
	)
	return cmd
}

// root resolves the project directory: --dir, the --config file's directory,
// or the nearest parent holding supacheck.yaml.
func (a *app) root() string {
	if d := strings.TrimSpace(a.dir); d != "" {
		if abs, err := filepath.Abs(d); err == nil {
			return abs
		}
		return d
	}
	if f := strings.TrimSpace(a.configFile); f != "" {
		if abs, err := filepath.Abs(f); err == nil {
			return filepath.Dir(abs)
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return config.RootOrDir(wd)
}

func (a *app) setupLogger() {
	if a.closeLog != nil {
		return
	}
	cleanup, err := logger.Setup(logger.Config{Root: a.root(), Debug: a.debug, Version: buildinfo.Version})
	if err != nil {
		return
	}
	a.closeLog = cleanup
	logger.L().Debug("cli.start", "root", a.root(), "config", a.configFile)
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
		a.closeLog = nil
	}
}
