package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/danielholmes839/loginsuite/internal/artifacts"
	"github.com/danielholmes839/loginsuite/internal/browser/session"
	"github.com/danielholmes839/loginsuite/internal/config"
	"github.com/danielholmes839/loginsuite/internal/credentials"
	"github.com/danielholmes839/loginsuite/internal/logging"
	"github.com/danielholmes839/loginsuite/internal/notify"
	"github.com/danielholmes839/loginsuite/internal/suite"
)

// install is swapped out in tests.
var install = session.Install

// app holds what every command shares: one viper instance and the env files
// to read into it.
type app struct {
	v        *viper.Viper
	envFiles []string
}

func (a *app) load() (*config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(a.v, a.envFiles...)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeLog, nil
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "loginsuite",
		Short:         "Browser regression suite for a web application's login flow",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "env files to load (default .env)")

	root.AddCommand(newRunCmd(a), newInstallCmd(), newCleanCmd(a))
	return root
}

func newRunCmd(a *app) *cobra.Command {
	var crossBrowser bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the login scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a.v, cmd, runFlagKeys); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, crossBrowser)
		},
	}

	flags := cmd.Flags()
	flags.String("browser", "", "browser to run in: chrome, firefox or edge")
	flags.Bool("headless", true, "run the browser without a window")
	flags.String("base-url", "", "login page url")
	flags.BoolVar(&crossBrowser, "cross-browser", false, "also log in with chrome and firefox")
	return cmd
}

// runFlagKeys maps run flags to the config keys they override.
var runFlagKeys = map[string]string{
	"browser":  config.KeyBrowser,
	"headless": config.KeyHeadless,
	"base-url": config.KeyBaseURL,
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

func (a *app) run(ctx context.Context, crossBrowser bool) error {
	cfg, logger, closeLog, err := a.load()
	if err != nil {
		return err
	}
	defer closeLog()

	store := artifacts.NewStore(cfg.ScreenshotDir, cfg.ResultsDir, logger)
	if _, err := store.CleanOld(cfg.ScreenshotMaxAge); err != nil {
		logger.Error("failed to clean old screenshots", "error", err)
	}

	env := suite.Env{
		BaseURL:      cfg.BaseURL,
		Username:     cfg.ValidUsername,
		Password:     cfg.ValidPassword,
		ExplicitWait: cfg.ExplicitWait,
	}
	if cfg.CredentialsFile != "" {
		env.ExtraInvalid, err = credentials.Load(afero.NewOsFs(), cfg.CredentialsFile)
		if err != nil {
			return err
		}
	}

	runner := &suite.Runner{
		Env:       env,
		Open:      suite.SessionOpener(cfg.Session, logger),
		Artifacts: store,
		Logger:    logger,
	}
	report := runner.Run(ctx, suite.Scenarios(cfg.Kind(), crossBrowser))

	if cfg.NotifyEnabled() {
		n, err := notify.New(cfg.DiscordWebhookID, cfg.DiscordWebhookToken, cfg.BaseURL, logger)
		if err == nil {
			err = n.Send(report)
		}
		if err != nil {
			logger.Error("failed to notify", "error", err)
		}
	}

	return reportError(report)
}

// reportError is nil when every scenario passed.
func reportError(report *suite.Report) error {
	if report.OK() {
		return nil
	}

	err := fmt.Errorf("%d of %d scenarios did not pass", len(report.Results)-len(report.Passed()), len(report.Results))
	if report.Path != "" {
		err = fmt.Errorf("%w, see %s", err, report.Path)
	}
	return err
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "install [chrome|firefox|edge]...",
		Short:     "Install the playwright driver and browsers",
		ValidArgs: []string{"chrome", "firefox", "edge"},
		RunE: func(cmd *cobra.Command, args []string) error {
			browsers, err := playwrightBrowsers(args)
			if err != nil {
				return err
			}
			return install(browsers...)
		},
	}
}

// playwrightBrowsers maps browser kinds to the names playwright installs them by.
func playwrightBrowsers(names []string) ([]string, error) {
	browsers := []string{}
	for _, name := range names {
		kind, err := session.ParseKind(name)
		if err != nil {
			return nil, err
		}

		switch kind {
		case session.Chrome:
			browsers = append(browsers, "chromium")
		case session.Edge:
			browsers = append(browsers, "msedge")
		default:
			browsers = append(browsers, kind.String())
		}
	}
	return browsers, nil
}

func newCleanCmd(a *app) *cobra.Command {
	var maxAgeDays int

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete failure screenshots older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("max-age-days") {
				a.v.Set(config.KeyScreenshotMaxAge, maxAgeDays)
			}

			cfg, logger, closeLog, err := a.load()
			if err != nil {
				return err
			}
			defer closeLog()

			store := artifacts.NewStore(cfg.ScreenshotDir, cfg.ResultsDir, logger)
			deleted, err := store.CleanOld(cfg.ScreenshotMaxAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d screenshots from %s\n", deleted, cfg.ScreenshotDir)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxAgeDays, "max-age-days", 7, "keep screenshots younger than this many days")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
