package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmcd/vmcd/internal/app"
	"github.com/vmcd/vmcd/internal/config"
	"github.com/vmcd/vmcd/internal/httpapi"
	"github.com/vmcd/vmcd/internal/logging"
)

var (
	version = "0.1.0"
	cfgFile string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "vmcd",
	Short: "vmcd",
	Long:  "vmcd - a VMC protocol bridge and layered animation mixer",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the vmcd daemon",
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vmcd v%s\n", version)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%+v\n", *cfg)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect vmcd configuration",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default /etc/vmcd/vmcd.yaml)")

	configCmd.AddCommand(configShowCmd)

	rootCmd.Run = serveCmd.Run
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to construct daemon: %v\n", err)
		os.Exit(1)
	}

	a.InitLogging()
	log = logging.L("main")

	log.Info("starting vmcd",
		"version", version,
		"listen", fmt.Sprintf("%s:%d", cfg.ListenHost, cfg.ListenPort),
		"send", fmt.Sprintf("%s:%d", cfg.SendHost, cfg.SendPort),
	)

	if err := a.Start(); err != nil {
		log.Error("failed to start daemon", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPBindAddr,
		Handler: httpapi.NewServer(a),
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "error", err)
		}
	}()
	log.Info("http api listening", "addr", cfg.HTTPBindAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("shutting down vmcd")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)

	a.Stop(shutdownCtx)
	log.Info("vmcd stopped")
}
