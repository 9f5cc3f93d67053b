package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ainergiz/xfeed/internal/app"
	"github.com/ainergiz/xfeed/internal/config"
	"github.com/ainergiz/xfeed/internal/storage"
	"github.com/ainergiz/xfeed/internal/tui"
	"github.com/ainergiz/xfeed/internal/tui/actionstate"
	"github.com/ainergiz/xfeed/internal/xapi"
)

const cacheLimit = 200

var version = "0.1.0"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "xfeed",
	Short: "Read your X timeline, bookmarks and notifications in the terminal",
	Long: `xfeed is a terminal client for X.

Credentials come from XFEED_AUTH_TOKEN and XFEED_CT0, or from the
config file (~/.config/xfeed/config.yml by default).`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTUI(cmd)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the configured session is accepted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runVerify(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.config/xfeed/config.yml)")
	flags.String("start-view", "", "first view: timeline, bookmarks or notifications")
	flags.String("db-path", "", "cache database path")
	flags.String("log-file", "", "write logs to this file")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Int("page-size", 0, "items requested per page")

	rootCmd.AddCommand(verifyCmd)
}

type session struct {
	cfg     config.Config
	logger  *slog.Logger
	repo    *storage.Repository
	service *app.Service
	closers []io.Closer
}

func (r *session) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i].Close()
	}
}

func setup(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	rt := &session{cfg: cfg}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}
	rt.logger = logger

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	rt.closers = append(rt.closers, repo)
	if err := repo.Migrate(); err != nil {
		rt.Close()
		return nil, fmt.Errorf("storage schema error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.CheckWritable(ctx); err != nil {
		rt.Close()
		return nil, fmt.Errorf("storage write check failed (%v). Verify db-path is writable: %s", err, cfg.DBPath)
	}
	rt.repo = repo

	client := xapi.NewClient(cfg.APIBaseURL, xapi.Credentials{
		AuthToken:   cfg.AuthToken,
		CT0:         cfg.CT0,
		BearerToken: cfg.BearerToken,
	}, nil)
	client.SetRequestRate(cfg.RequestsPerSecond)
	client.SetPageSize(cfg.PageSize)
	client.SetLogger(logger)

	rt.service = app.NewService(client, repo)
	rt.service.SetLogger(logger)
	return rt, nil
}

// newLogger writes text logs to the configured file. Without one, logs are
// discarded so they never draw over the alternate screen.
func newLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

func runTUI(cmd *cobra.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	cacheStart := time.Now()
	snap, err := rt.service.WarmCache(ctx, cacheLimit)
	cancel()
	if err != nil {
		rt.logger.Warn("cache unavailable, starting empty", "err", err)
		snap = app.Snapshot{Preferences: storage.DefaultPreferences()}
	}
	rt.logger.Info("cache loaded",
		"home", len(snap.Home),
		"bookmarks", len(snap.Bookmarks),
		"notifications", len(snap.Notifications),
		"duration", time.Since(cacheStart))

	startView, ok := tui.ParseView(rt.cfg.StartView)
	if !ok {
		startView = tui.ViewTimeline
	}

	status := tui.NewStatusLine()
	store := actionstate.NewStore(actionstate.Mutations{
		Like:       rt.service.Like,
		Unlike:     rt.service.Unlike,
		Bookmark:   rt.service.Bookmark,
		Unbookmark: rt.service.Unbookmark,
	}, status)

	model := tui.NewModel(rt.service, store, status, tui.Options{
		StartView:     startView,
		Home:          snap.Home,
		Bookmarks:     snap.Bookmarks,
		Notifications: snap.Notifications,
		Preferences:   snap.Preferences,
		FetchTimeout:  rt.cfg.RequestTimeout,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runVerify(cmd *cobra.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), rt.cfg.RequestTimeout)
	defer cancel()
	start := time.Now()
	user, err := rt.service.VerifySession(ctx)
	if err != nil {
		return fmt.Errorf("session rejected: %s", xapi.Describe(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as @%s (%s) in %s\n",
		user.Handle, user.Name, time.Since(start).Round(time.Millisecond))
	return nil
}
