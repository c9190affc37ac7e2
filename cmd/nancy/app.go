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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/nancyfx/nancy"
	"github.com/nancyfx/nancy/conventions"
	"github.com/nancyfx/nancy/diagnostics"
	"github.com/nancyfx/nancy/health"
	"github.com/nancyfx/nancy/metrics"
	"github.com/nancyfx/nancy/middleware/accesslog"
	"github.com/nancyfx/nancy/middleware/compression"
	"github.com/nancyfx/nancy/middleware/cors"
	"github.com/nancyfx/nancy/middleware/recovery"
	"github.com/nancyfx/nancy/middleware/requestid"
	"github.com/nancyfx/nancy/middleware/security"
	"github.com/nancyfx/nancy/tracing"
	"github.com/nancyfx/nancy/views"
)

// server is a configured engine and the resources it owns.
type server struct {
	engine   *nancy.Engine
	settings nancy.Settings
	recorder *metrics.Recorder
	tracer   *tracing.Tracer
	views    *views.Renderer
}

type home struct {
	Name    string `json:"name" xml:"name"`
	Version string `json:"version" xml:"version"`
}

func build(ctx context.Context, s nancy.Settings, logger *slog.Logger) (*server, error) {
	srv := &server{settings: s}

	tr, err := tracing.New(ctx,
		tracing.WithProvider(s.Traces.Provider, s.Traces.Endpoint, s.Traces.Insecure),
		tracing.WithSampleRate(s.Traces.SampleRate),
		tracing.WithServiceName(s.Metrics.ServiceName),
		tracing.WithServiceVersion(version),
		tracing.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	srv.tracer = tr

	opts := []nancy.Option{
		nancy.WithSettings(s),
		nancy.WithLogger(logger),
		nancy.WithTracerProvider(tr.TracerProvider()),
		nancy.WithPropagator(tr.Propagator()),
	}

	if s.Metrics.Enabled {
		rec, err := metrics.New(
			metrics.WithProvider(s.Metrics.Provider, s.Metrics.OTLPEndpoint),
			metrics.WithServiceName(s.Metrics.ServiceName),
			metrics.WithServiceVersion(version),
			metrics.WithExportInterval(s.Metrics.ExportInterval),
			metrics.WithLogger(logger),
		)
		if err != nil {
			srv.close(context.Background())
			return nil, fmt.Errorf("metrics: %w", err)
		}
		srv.recorder = rec
		opts = append(opts, nancy.WithMetrics(rec))
	}

	viewDir := filepath.Join(s.RootPath, "views")
	if info, err := os.Stat(viewDir); err == nil && info.IsDir() {
		vopts := []views.Option{views.WithLogger(logger)}
		if s.DisableCaches {
			vopts = append(vopts, views.WithoutCache())
		}
		r, err := views.New(os.DirFS(s.RootPath), vopts...)
		if err != nil {
			srv.close(context.Background())
			return nil, fmt.Errorf("views: %w", err)
		}
		srv.views = r
		opts = append(opts, nancy.WithViews(r))
	}

	e, err := nancy.New(opts...)
	if err != nil {
		srv.close(context.Background())
		return nil, err
	}
	srv.engine = e

	e.Use(
		recovery.New(),
		requestid.New(),
		accesslog.New(),
		security.New(),
		compression.New(),
	)
	if origins := s.Server.AllowedOrigins; len(origins) > 0 {
		opt := cors.WithAllowedOrigins(origins...)
		if slices.Contains(origins, "*") {
			opt = cors.WithAllowAllOrigins()
		}
		e.Use(cors.New(opt, cors.WithExposedHeaders(requestid.DefaultHeader)))
	}
	e.MustRegister(nancy.NewModule("/").Get("/", func(c *nancy.Context) (*nancy.Response, error) {
		return c.Negotiate(http.StatusOK, home{Name: "nancy", Version: version}, "index")
	}))
	e.MustRegister(health.New(health.WithReadiness("root_path", func(context.Context) error {
		_, err := os.Stat(s.RootPath)
		return err
	})).Module("/"))

	if err := srv.addStatic(logger); err != nil {
		srv.close(context.Background())
		return nil, err
	}
	if err := srv.mountMetrics(); err != nil {
		srv.close(context.Background())
		return nil, err
	}
	if err := srv.mountDiagnostics(logger); err != nil {
		srv.close(context.Background())
		return nil, err
	}
	e.Freeze()
	return srv, nil
}

func (srv *server) addStatic(logger *slog.Logger) error {
	opts := []conventions.Option{conventions.WithLogger(logger)}
	if srv.settings.DisableCaches {
		opts = append(opts, conventions.WithCache(conventions.NoCache{}))
	}
	if srv.recorder != nil {
		opts = append(opts, conventions.WithObserver(srv.recorder))
	}
	b, err := conventions.NewBuilder(opts...)
	if err != nil {
		return fmt.Errorf("static content: %w", err)
	}

	dirs := srv.settings.Static
	if len(dirs) == 0 {
		dirs = []nancy.StaticDirectory{{RequestPath: "content"}}
	}
	for _, d := range dirs {
		srv.engine.AddStaticConvention(b.AddDirectory(d.RequestPath, d.ContentPath, d.Extensions...))
	}
	return nil
}

func (srv *server) mountMetrics() error {
	if srv.recorder == nil || srv.recorder.Provider() != metrics.PrometheusProvider {
		return nil
	}
	h, err := srv.recorder.Handler()
	if err != nil {
		return err
	}
	return srv.engine.Mount(srv.settings.Metrics.Path, h)
}

func (srv *server) mountDiagnostics(logger *slog.Logger) error {
	d := srv.settings.Diagnostics
	opts, err := diagnostics.FromSettings(d)
	if err != nil {
		return fmt.Errorf("diagnostics: %w", err)
	}
	opts = append(opts,
		diagnostics.WithLogger(logger),
		diagnostics.WithInfo(srv.engine.Info),
	)
	if srv.recorder != nil {
		opts = append(opts, diagnostics.WithObserver(srv.recorder))
	}
	dash, err := diagnostics.New(d.Password, opts...)
	if err != nil {
		return fmt.Errorf("diagnostics: %w", err)
	}
	return srv.engine.Mount(d.Path, dash)
}

func (srv *server) close(ctx context.Context) error {
	var errs []error
	if srv.recorder != nil {
		errs = append(errs, srv.recorder.Shutdown(ctx))
	}
	if srv.tracer != nil {
		errs = append(errs, srv.tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
