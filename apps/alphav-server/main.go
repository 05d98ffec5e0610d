// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/inboard-ai/alphav/av"
	"github.com/inboard-ai/alphav/server"
)

type Flags struct {
	Addr     string
	Conf     string // TOML config file with the API key; default: environment
	LogLevel logging.Level
	Shutdown time.Duration // grace period for in-flight requests
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("alphav-server", flag.ExitOnError)
	fs.StringVar(&flags.Addr, "addr", ":8080", "address to listen on")
	fs.StringVar(&flags.Conf, "conf", "", "TOML config file with the API key")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.DurationVar(&flags.Shutdown, "shutdown-timeout", 5*time.Second,
		"how long to wait for in-flight requests on shutdown")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if flags.Addr == "" {
		return nil, errors.Reason("-addr must not be empty")
	}
	return &flags, nil
}

func newServer(flags *Flags) (*http.Server, error) {
	c, err := av.LoadConfig(flags.Conf)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load config")
	}
	client, err := c.Client()
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:         flags.Addr,
		Handler:      server.New(client, server.Options{LogLevel: flags.LogLevel}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: c.Timeout + 10*time.Second,
	}, nil
}

func serve(ctx context.Context, flags *Flags) error {
	srv, err := newServer(flags)
	if err != nil {
		return err
	}
	errc := make(chan error, 1)
	go func() {
		logging.Infof(ctx, "listening on %s", flags.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case err := <-errc:
		return errors.Annotate(err, "server failed")
	case sig := <-sigc:
		logging.Infof(ctx, "received %s, shutting down", sig.String())
	}
	sctx, cancel := context.WithTimeout(ctx, flags.Shutdown)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.Annotate(err, "failed to shut down")
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := serve(ctx, flags); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
