package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/linkctl/internal/config"
	"github.com/danmuck/linkctl/internal/logging"
	"github.com/danmuck/linkctl/internal/observability"
	"github.com/danmuck/linkctl/internal/pipewire"
	"github.com/danmuck/linkctl/internal/reconcile"
	"github.com/danmuck/linkctl/internal/session"
	"github.com/danmuck/linkctl/internal/supervisor"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type rootOptions struct {
	configPath   string
	dump         bool
	format       string
	settingsPath string
	metricsAddr  string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	cmd := &cobra.Command{
		Use:   "linkctl",
		Short: "Keep PipeWire port links in line with a declarative link list",
		Long: `linkctl watches the PipeWire graph and creates every link listed in the
config file whose ports exist. With --dump it prints the current links in
config form and exits.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "link config file (.yaml, .yml or .toml)")
	flags.BoolVarP(&opts.dump, "dump", "d", false, "print current links in config form and exit")
	flags.StringVarP(&opts.format, "format", "f", string(config.FormatYAML), "dump format: yaml|toml")
	flags.StringVar(&opts.settingsPath, "settings", "", "daemon settings file (toml)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /health, /ready and /metrics on this address")
	cmd.MarkFlagsOneRequired("config", "dump")

	cmd.AddCommand(newCheckCmd(), newInitCmd())
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "check PATH",
		Short:         "Load and expand a link config, printing every pair",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := config.LoadLinks(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, l := range links {
				if _, err := fmt.Fprintf(out, "%s -> %s\n", l.Src, l.Dst); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:           "init PATH",
		Short:         "Write a starter link config; the extension picks the format",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := config.WriteTemplate(path, config.FormatFromPath(path), force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func runDaemon(ctx context.Context, opts rootOptions, stdout io.Writer) error {
	logging.ConfigureRuntime()
	if ctx == nil {
		ctx = context.Background()
	}

	st := defaultSettings()
	if opts.settingsPath != "" {
		loaded, err := loadSettings(opts.settingsPath)
		if err != nil {
			return err
		}
		st = loaded
	}
	if opts.metricsAddr != "" {
		st.MetricsAddr = opts.metricsAddr
	}
	format, err := config.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	mode := reconcile.ModeReconcile
	var desired []config.ExpandedLink
	if opts.dump {
		mode = reconcile.ModeDump
	} else {
		desired, err = config.LoadLinks(opts.configPath)
		if err != nil {
			return err
		}
		log.Info().
			Str("config", opts.configPath).
			Int("links", len(desired)).
			Msg("linkctl config loaded")
	}

	sup := supervisor.New(supervisor.Config{
		Mode:       mode,
		Desired:    desired,
		Debounce:   st.Debounce,
		Session:    st.Session,
		DumpFormat: format,
		DumpOut:    stdout,
	}, func(context.Context) (session.Transport, error) {
		return pipewire.New(st.PipeWire), nil
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if st.MetricsAddr == "" {
		return sup.Run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	srv := observability.NewServer(st.MetricsAddr, st.CORSOrigins, sup.Status)
	g.Go(func() error {
		return srv.Serve(gctx)
	})
	g.Go(func() error {
		// the admin server lives only as long as the supervisor
		defer cancel()
		return sup.Run(gctx)
	})
	return g.Wait()
}
