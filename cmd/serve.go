package cmd

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

	"taste_match/config"
	"taste_match/handlers"
	"taste_match/logger"
	"taste_match/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 打分服务",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	r := handlers.NewRouter(cfg, handlers.NewScoreHandler(a.scores, a.versions))

	// 启动定时预热
	scheduler.Start(ctx, cfg, a.entities, a.scores)

	srv := newHTTPServer(cfg, r)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("服务器启动", "address", srv.Addr)
		logger.Info("Swagger文档可访问", "url", swaggerURL(srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("正在关闭服务器")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newHTTPServer 监听 server.host:server.port
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Timeouts.RequestSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Timeouts.ResponseSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Timeouts.IdleSec) * time.Second,
	}
}

// swaggerURL 未配置 host 时监听所有网卡，文档地址用 localhost 展示
func swaggerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return fmt.Sprintf("http://%s/swagger/index.html", addr)
}
