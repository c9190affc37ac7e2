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

// Command nancy serves static content, views and the diagnostics dashboard
// of a Nancy application root.
//
//	nancy -config nancy.yaml
//
// Settings are read, in increasing precedence, from defaults, the config
// file, the Consul key named by -consul-key when CONSUL_HTTP_ADDR is set,
// and NANCY_ environment variables such as NANCY_SERVER__ADDRESS.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nancyfx/nancy"
	"github.com/nancyfx/nancy/config"
	"github.com/nancyfx/nancy/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "nancy:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("nancy", flag.ContinueOnError)
	configFile := fs.String("config", "", "settings file (yaml, json or toml)")
	consulKey := fs.String("consul-key", "nancy/config.yaml", "Consul KV key holding settings")
	addr := fs.String("addr", "", "listen address, overrides server.address")
	quiet := fs.Bool("quiet", false, "skip the startup banner")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := loadSettings(ctx, *configFile, *consulKey)
	if err != nil {
		return err
	}
	if *addr != "" {
		settings.Server.Address = *addr
	}

	logger, err := newLogger(settings.Logging)
	if err != nil {
		return err
	}
	defer logger.Shutdown(context.Background())

	srv, err := build(ctx, settings, logger.Logger())
	if err != nil {
		return err
	}
	defer srv.close(context.Background())

	if !*quiet {
		printBanner(os.Stdout, srv.banner())
	}
	return srv.engine.Serve(ctx, settings.Server.Address)
}

func loadSettings(ctx context.Context, file, consulKey string) (nancy.Settings, error) {
	var s nancy.Settings
	opts := []config.Option{config.WithBinding(&s), config.WithJSONSchema(nancy.SettingsSchema)}
	if file != "" {
		opts = append(opts, config.WithFile(file))
	}
	if consulKey != "" {
		opts = append(opts, config.WithConsul(consulKey))
	}
	opts = append(opts, config.WithEnv("NANCY_"))

	cfg, err := config.New(opts...)
	if err != nil {
		return s, err
	}
	if err := cfg.Load(ctx); err != nil {
		return s, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

func newLogger(s nancy.LoggingSettings) (*logging.Logger, error) {
	level, err := logging.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	handler, err := logging.ParseHandlerType(s.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(
		logging.WithHandlerType(handler),
		logging.WithLevel(level),
		logging.WithOutput(os.Stderr),
		logging.WithServiceName("nancy"),
		logging.WithServiceVersion(version),
	)
}
