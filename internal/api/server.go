package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/trogers1052/metal-price-tracker/internal/logx"
)

const readHeaderTimeout = 5 * time.Second

// Server serves the API until its context is done
type Server struct {
	addr    string
	handler http.Handler
}

// NewServer creates a Server listening on addr
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{addr: addr, handler: handler}
}

// Run blocks until ctx is done or the listener fails
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		if err := httpServer.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logx.FromContext(ctx).Error("httpServer.Shutdown", logx.Error(err))
		}
	}()

	logx.FromContext(ctx).Info("api server started", slog.String("address", s.addr))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer.ListenAndServe: %w", err)
	}

	logx.FromContext(ctx).Info("api server stopped")

	return nil
}
