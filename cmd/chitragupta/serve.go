// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sriinnu/chitragupta-sub012/pkg/config"
	"github.com/sriinnu/chitragupta-sub012/pkg/observability"
	"github.com/sriinnu/chitragupta-sub012/pkg/proxy"
	"github.com/sriinnu/chitragupta-sub012/pkg/ratelimit"
)

// ServeCmd starts the protocol-mirror proxy's HTTP server: it resolves
// model aliases to upstream providers, mirrors the wire protocol, and
// exposes /healthz, /version, and (when enabled) /metrics alongside it.
type ServeCmd struct {
	Port int `help:"Override the configured server port." default:"0"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		cancel()
	}()

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	obsManager, err := observability.NewManager(ctx, cfg.Observability)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obsManager.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown", "error", err)
		}
	}()

	resolver, err := cfg.Proxy.NewResolver()
	if err != nil {
		return fmt.Errorf("build model resolver: %w", err)
	}

	proxySrv := proxy.NewServer(cfg.Proxy.Config, resolver)
	handler := proxy.NewRouter(proxySrv, obsManager.Tracer(), obsManager.Metrics())

	quotaLimiter, err := cfg.Ratelimit.NewRateLimiter()
	if err != nil {
		return fmt.Errorf("build rate limiter: %w", err)
	}
	if quotaLimiter != nil {
		handler = ratelimit.Middleware(ratelimit.MiddlewareConfig{
			Limiter:       quotaLimiter,
			ExcludedPaths: []string{"/", "/healthz", "/version"},
		})(handler)
		slog.Info("fixed-window rate limiting enabled")
	}
	handler = burstMiddleware(cfg.Ratelimit.NewBurstLimiter())(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		slog.Info("chitragupta proxy listening", "addr", addr, "providers", len(cfg.Proxy.Providers))
		if obsManager.MetricsEnabled() {
			slog.Info("metrics enabled", "endpoint", obsManager.MetricsEndpoint())
		}
		serveErrCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-serveErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}
	return nil
}

// burstMiddleware gates requests through a per-remote-address token
// bucket ahead of the fixed-window quota layer, smoothing instantaneous
// bursts that a per-minute window wouldn't catch until too late.
func burstMiddleware(limiter *ratelimit.BurstLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.RemoteAddr) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
