// CLASSIFICATION: COMMUNITY
// Filename: cli.go v0.3
// Date Modified: 2026-10-19
// Author: Lukas Bower
//
// ─────────────────────────────────────────────────────────────
// Kochab · dev server CLI
//
// Cobra root command for the local stand-in of the static host.
// `serve` (the default) runs the static file server and the
// /api/ handlers; `fence` prints the access gate decision for the
// current settings; `version` prints the build version.
//
// Example:
//
//   kochab-dev --port 8000 --static-dir public
//   KOCHAB_API_FENCE=1 kochab-dev fence
// ─────────────────────────────────────────────────────────────
package tooling

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"kochab/devserver/api"
	"kochab/devserver/apod"
	devhttp "kochab/devserver/http"
	"kochab/devserver/static"
	"kochab/internal/kochab"
	"kochab/internal/settings"
)

// Version is stamped at build time with -ldflags.
var Version = "0.1.0"

// NewRootCmd builds the command tree around cfg, which supplies flag
// defaults.
func NewRootCmd(cfg *settings.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "kochab-dev",
		Short: "Local dev server for static files and /api/ handlers",
		Long: `Kochab dev server.

Serves static files from --static-dir and dispatches /api/ requests
to the built-in handlers. CAUTION: the default bind address listens
on all interfaces.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&cfg.Bind, "bind", cfg.Bind, "bind address")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	flags.StringVar(&cfg.StaticDir, "static-dir", cfg.StaticDir, "directory for static files")
	flags.StringVar(&cfg.AccessLog, "log-file", cfg.AccessLog, "access log file")
	flags.StringVar(&cfg.SettingsPath, "settings", cfg.SettingsPath, "YAML settings file watched for api_fence and nasa_api_key")
	flags.StringVar(&cfg.APODPolicy, "apod-policy", cfg.APODPolicy, "missing key policy for the APOD fragment: strict or lenient")
	flags.DurationVar(&cfg.UpstreamTimeout, "upstream-timeout", cfg.UpstreamTimeout, "timeout for upstream API calls")
	flags.BoolVar(&cfg.Dev, "dev", cfg.Dev, "enable developer logging")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the dev server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "fence",
		Short: "Print whether upstream API access is allowed",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore(cfg)
			if err != nil {
				return err
			}
			return printFence(cmd.OutOrStdout(), kochab.NewGate(store), store.Threshold())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print kochab-dev version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kochab-dev v%s\n", Version)
		},
	})
	return root
}

// Execute runs the CLI with configuration taken from the environment.
func Execute(ctx context.Context) error {
	cfg := settings.FromEnv()
	return NewRootCmd(&cfg).ExecuteContext(ctx)
}

func printFence(w io.Writer, gate *kochab.Gate, threshold string) error {
	state := "denied"
	if gate.Allowed() {
		state = "allowed"
	}
	_, err := fmt.Fprintf(w, "api access %s (fence=%d threshold=%q)\n", state, gate.Fence, threshold)
	return err
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newStore(cfg *settings.Config) (*settings.Store, error) {
	store := settings.NewStore(cfg.Live(), cfg.SettingsPath)
	if err := store.Reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// build wires the server from cfg without starting it.
func build(cfg *settings.Config, log *zap.Logger) (*devhttp.Server, error) {
	policy, err := apod.ParsePolicy(cfg.APODPolicy)
	if err != nil {
		return nil, err
	}
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	gate := kochab.NewGate(store)
	client := kochab.NewClient(gate, kochab.ClientConfig{
		Timeout: cfg.UpstreamTimeout,
		Keys:    store,
		Limit:   rate.Limit(cfg.UpstreamRate),
		Burst:   cfg.UpstreamBurst,
	})
	reg, err := api.DefaultRoutes(api.APODConfig{
		Gate:    gate,
		Fetcher: client,
		Policy:  policy,
		Log:     log,
	}, log)
	if err != nil {
		return nil, err
	}

	srvCfg := devhttp.Config{
		Bind:      cfg.Bind,
		Port:      cfg.Port,
		StaticDir: cfg.StaticDir,
		Rewrites:  static.DefaultRewrites(),
		LogFile:   cfg.AccessLog,
		API:       reg,
		Logger:    log,
	}
	if store.Path() != "" {
		watcher, err := settings.NewWatcher(store, log)
		if err != nil {
			log.Warn("settings reload disabled", zap.Error(err))
		} else {
			srvCfg.Watcher = watcher
		}
	}
	return devhttp.New(srvCfg)
}

func serve(ctx context.Context, cfg *settings.Config) error {
	log, err := newLogger(cfg.Dev)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	srv, err := build(cfg, log)
	if err != nil {
		return err
	}
	if cfg.Bind == "0.0.0.0" || cfg.Bind == "" {
		log.Warn("listening on all interfaces")
	}
	return srv.Start(ctx)
}
