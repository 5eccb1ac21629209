// Rate snapshot service: currency and crypto exchange rates with cached
// snapshots and reconstructed historical series.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/config"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/handler"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

const shutdownTimeout = 10 * time.Second

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ratesnap",
	Short: "Currency rate snapshot service",
	Long: `Serves latest, historical and ranged exchange rates from the currency API
CDN, caching every snapshot it fetches.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rangeCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ratesnap %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		a, err := newApp(cfg, os.Stdout)
		if err != nil {
			return err
		}
		defer a.close()

		router := handler.NewRouter(
			handler.NewCurrencyHandler(a.currencies, a.logger),
			handler.NewConversionHandler(a.conversion, a.logger),
			a.logger, a.metrics, a.registry,
		)

		server := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("Server listening", map[string]interface{}{
				"addr":    cfg.Server.Addr,
				"version": version,
			})
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		a.logger.Info("Shutting down server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address override (default from server.addr)")
}

// --- Range Command ---

var rangeCmd = &cobra.Command{
	Use:   "range [base] [target] [start] [end]",
	Short: "Print the rate series of a currency pair between two dates",
	Example: `  ratesnap range eur usd 2024-01-01 2024-01-31
  ratesnap range btc eth 2024-03-01 2024-03-07 --config ./config/config.yaml`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		// logs stay off stdout, which carries the envelope
		a, err := newApp(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.close()

		requestID := uuid.New().String()
		ctx := middleware.WithRequestID(cmd.Context(), requestID)
		base, target, start, end := args[0], args[1], args[2], args[3]

		series, err := a.currencies.GetRateRange(ctx, base, target, start, end)
		status, resp := handler.NewRangeResponse(series, err, start, end, requestID)
		if err != nil {
			a.logger.Warn("Range query failed", map[string]interface{}{
				"request_id": requestID,
				"status":     status,
				"error":      err.Error(),
			})
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(resp); encErr != nil {
			return encErr
		}
		if !resp.Success {
			return fmt.Errorf("range query failed: %s", resp.Message)
		}
		return nil
	},
}
