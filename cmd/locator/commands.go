package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xraph/go-utils/log"
	"go.uber.org/zap/zapcore"

	"github.com/cepho/locator"
	"github.com/cepho/locator/diag"
)

type cliOptions struct {
	manifest string
	logLevel string
	addr     string

	logger log.Logger
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "locator",
		Short: "Inspect and check service locator dependency manifests",
		Long: `locator works on a YAML dependency manifest: the list of services an
application registers and what each one depends on.

  validate  check the manifest resolves without missing services or cycles
  order     print the eager start order
  serve     serve diagnostics for the manifest over HTTP`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, err := zapcore.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}

			opts.logger = log.NewDevelopmentLoggerWithLevel(level)

			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.manifest, "manifest", "m", "locator.yaml", "dependency manifest file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newValidateCmd(opts), newOrderCmd(opts), newServeCmd(opts))

	return root
}

// load parses the manifest and registers a placeholder for each service.
func (o *cliOptions) load() (*locator.Manifest, locator.Container, error) {
	m, err := locator.LoadManifest(o.manifest)
	if err != nil {
		return nil, nil, err
	}

	c := locator.New(
		locator.WithLogger(o.logger),
		locator.WithStrictRegistration(),
		locator.WithMiddleware(locator.NewLoggingMiddleware(o.logger)),
	)

	if err := m.Populate(c); err != nil {
		return nil, nil, err
	}

	return m, c, nil
}

func newValidateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a manifest for missing services and cycles",
		Long: `Registers a placeholder for every declared service, validates the
declared graph and then resolves every service once, so cycles that only
show up at resolution time are reported as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, c, err := opts.load()
			if err != nil {
				return err
			}

			if err := locator.Validate(c, m); err != nil {
				return err
			}

			for _, name := range m.Names() {
				if _, err := c.Resolve(name); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d services\n", len(m.Services))

			return nil
		},
	}
}

func newOrderCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Print the eager dependency order of a manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := locator.LoadManifest(opts.manifest)
			if err != nil {
				return err
			}

			order, err := m.Graph().TopologicalSortEagerOnly()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(order, "\n"))

			return nil
		},
	}
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve diagnostics for a manifest over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, c, err := opts.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, opts.addr, c, opts.logger)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")

	return cmd
}

func serve(ctx context.Context, addr string, c locator.Container, logger log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           diag.NewRouter(c),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("diagnostics listening", log.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
