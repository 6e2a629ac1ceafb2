package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"github.com/openalpha/lending-core/api"
)

// NewRootCmd creates a new root command for lendingd
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lendingd",
		Short: "Lending Core - collateralized lending accounting engine",
		Long: `Lending Core runs the share-based pooled lending accounting engine
behind an HTTP API, backed by an in-memory store.`,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	return rootCmd
}

func serveCmd() *cobra.Command {
	var (
		host             string
		port             int
		disableRateLimit bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lending API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewLogger(os.Stderr).With("module", "lendingd")

			config := &api.Config{
				Host:             host,
				Port:             port,
				ReadTimeout:      30 * time.Second,
				WriteTimeout:     30 * time.Second,
				DisableRateLimit: disableRateLimit,
			}

			server, err := api.NewServer(config, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				logger.Info("shutting down", "signal", sig.String())
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Stop(ctx); err != nil {
				logger.Error("server shutdown error", "err", err)
				return err
			}

			logger.Info("server exited")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Server host")
	cmd.Flags().IntVar(&port, "port", 8080, "Server port")
	cmd.Flags().BoolVar(&disableRateLimit, "no-rate-limit", false, "Disable request rate limiting")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("lending-core v0.1.0")
		},
	}
}
