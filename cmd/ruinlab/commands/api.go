package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/decisiveml/ruinlab/internal/api"
	"github.com/decisiveml/ruinlab/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST / WebSocket API 서버를 시작합니다.

Endpoints:
  GET  /health                          - Health check
  POST /api/montecarlo/simulate         - 요청 본문의 체결 손익으로 시뮬레이션
  GET  /api/montecarlo/strategies/{id}  - 저장된 전략 체결로 시뮬레이션 (DATABASE_URL 필요)
  GET  /api/montecarlo/stream           - WebSocket: 레벨별 진행 상황 스트리밍

Example:
  go run ./cmd/ruinlab api
  go run ./cmd/ruinlab api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ruinlab API Server ===")

	a, err := setup(context.Background())
	if err != nil {
		return err
	}
	defer a.close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// nil *DB를 인터페이스로 넘기지 않도록 분기
	var health api.HealthChecker
	if a.db != nil {
		health = a.db
	}

	mcHandler := handlers.NewMonteCarloHandler(a.service, a.log)
	router := api.NewRouter(mcHandler, health, a.cfg.API, a.log)
	server := api.New(a.cfg, a.log, router)

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/montecarlo/simulate")
	fmt.Println("  GET  /api/montecarlo/strategies/{id}")
	fmt.Println("  GET  /api/montecarlo/stream")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
