// Package main is the entry point for the peakstate routing service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/peakstate/internal/profile"
	"github.com/hrygo/peakstate/server"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "peakstate",
	Short: "peakstate routes AI requests to the cheapest capable backend",
	Long: `peakstate is the AI request routing core: it classifies each
message, scores its complexity, checks a three-tier response cache and
sends cache misses to the cheapest backend that can answer well.`,
	RunE: runServer,
}

func init() {
	viper.SetEnvPrefix("peakstate")
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("mode", "dev", "run mode: dev or prod")
	rootCmd.PersistentFlags().String("addr", "", "bind address")
	rootCmd.PersistentFlags().Int("port", 0, "bind port")
	_ = viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode"))
	_ = viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr"))
	_ = viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))

	rootCmd.AddCommand(knowledgeCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("peakstate v%s\n", version)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:    "dev",
		Addr:    "0.0.0.0",
		Port:    8081,
		Version: version,
	}
	p.FromEnv()
	if mode := viper.GetString("mode"); mode != "" {
		p.Mode = mode
	}
	if addr := viper.GetString("addr"); addr != "" {
		p.Addr = addr
	}
	if port := viper.GetInt("port"); port != 0 {
		p.Port = port
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}

	logger := newLogger(p)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcs, err := buildServices(ctx, p, logger)
	if err != nil {
		return err
	}
	defer svcs.Close()

	httpServer := server.NewServer(p, svcs.Orchestrator, svcs.Cache, svcs.Classifier, svcs.Metrics, logger)

	var wg sync.WaitGroup
	if svcs.Persister != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svcs.Persister.Run(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	if err := httpServer.Shutdown(context.Background()); err != nil {
		logger.Warn("http shutdown failed", slog.String("error", err.Error()))
	}
	stop()
	wg.Wait()
	return nil
}

func newLogger(p *profile.Profile) *slog.Logger {
	level := slog.LevelInfo
	if p.Mode == "dev" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
