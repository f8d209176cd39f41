package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/verdantis/leafscan/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the classification API",
	Long: `Start an HTTP server that provides REST API endpoints for leaf classification.

The server provides the following endpoints:
  POST /classify    - Classify uploaded leaf photos
  GET  /health      - Health check endpoint
  GET  /labels      - List the label catalog
  GET  /models      - List available model assets
  GET  /metrics     - Prometheus metrics
  GET  /ws/classify - WebSocket endpoint for streaming classification

Examples:
  leafscan serve
  leafscan serve --port 8080
  leafscan serve --host 0.0.0.0 --port 3000`,
	SilenceUsage: true,
	RunE:         runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig()

	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}

	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}

	corsOrigin := cfg.Server.CORSOrigin
	if cmd.Flags().Changed("cors-origin") {
		corsOrigin, _ = cmd.Flags().GetString("cors-origin")
	}

	maxUploadSize := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUploadSize, _ = cmd.Flags().GetInt("max-upload-size")
	}

	timeout := cfg.Server.TimeoutSec
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetInt("timeout")
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pCfg := cfg.ToPipelineConfig()
	if cmd.Flags().Changed("warmup") {
		pCfg.Classifier.EnableWarmup, _ = cmd.Flags().GetBool("warmup")
	}
	if cmd.Flags().Changed("server-model") {
		pCfg.Classifier.UseServerModel, _ = cmd.Flags().GetBool("server-model")
		pCfg.Classifier.UpdateModelPath(pCfg.ModelsDir)
	}
	if threshold, _ := cmd.Flags().GetFloat64("threshold"); threshold > 0 {
		pCfg.Threshold = threshold
	}

	serverConfig := server.Config{
		Host:           host,
		Port:           port,
		CORSOrigin:     corsOrigin,
		MaxUploadMB:    int64(maxUploadSize),
		TimeoutSec:     timeout,
		PipelineConfig: pCfg,
	}

	classifyServer, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	defer func() { _ = classifyServer.Close() }()

	mux := http.NewServeMux()
	classifyServer.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(timeout) * time.Second,
		WriteTimeout:      time.Duration(timeout) * time.Second,
	}

	go func() {
		slog.Info("Starting classification server", "host", host, "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origin")
	serveCmd.Flags().Int("max-upload-size", 20, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "graceful shutdown timeout in seconds")
	serveCmd.Flags().Bool("warmup", true, "run a warmup inference before accepting requests")
	serveCmd.Flags().Bool("server-model", false, "use the heavier server model variant")
	serveCmd.Flags().Float64("threshold", 0, "minimum confidence to accept a diagnosis (0=config default)")
}
