// Copyright 2025 The Nancy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nancy

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server builds the HTTP server for addr from the engine settings. An
// empty addr uses Settings.Server.Address.
func (e *Engine) Server(addr string) *http.Server {
	s := e.settings.Server
	if addr == "" {
		addr = s.Address
	}

	h := http.Handler(e)
	if s.H2C {
		h = h2c.NewHandler(h, &http2.Server{})
		e.logger.Warn("h2c enabled; use only in development or behind a trusted load balancer")
	}

	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: s.ReadHeaderTimeout,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully
// within Settings.Server.ShutdownTimeout. Callers typically pass a context
// from signal.NotifyContext.
func (e *Engine) Serve(ctx context.Context, addr string) error {
	srv := e.Server(addr)
	return e.run(ctx, srv, "HTTP", srv.ListenAndServe)
}

// ServeTLS is like Serve over TLS. HTTP/2 is negotiated through ALPN.
func (e *Engine) ServeTLS(ctx context.Context, addr, certFile, keyFile string) error {
	srv := e.Server(addr)
	return e.run(ctx, srv, "HTTPS", func() error { return srv.ListenAndServeTLS(certFile, keyFile) })
}

func (e *Engine) run(ctx context.Context, srv *http.Server, protocol string, start func() error) error {
	e.Freeze()

	serverErr := make(chan error, 1)
	go func() {
		e.logger.Info("server starting", "address", srv.Addr, "protocol", protocol)
		if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("%s server failed to start: %w", protocol, err)
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		e.logger.Info("server shutting down", "protocol", protocol, "reason", ctx.Err())
	}

	// ctx is already canceled; the shutdown deadline needs a fresh parent.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.settings.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s server forced to shutdown: %w", protocol, err)
	}
	e.logger.Info("server exited", "protocol", protocol)
	return nil
}
