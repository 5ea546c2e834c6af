// Package main starts the terminal client: it loads configuration, restores
// the persisted session and runs the shell on the configured route.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/atinyakov/oauth2profile/internal/client/api"
	"github.com/atinyakov/oauth2profile/internal/client/csrf"
	"github.com/atinyakov/oauth2profile/internal/client/shell"
	"github.com/atinyakov/oauth2profile/internal/client/storage"
	"github.com/atinyakov/oauth2profile/internal/config"
	"github.com/atinyakov/oauth2profile/internal/logger"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// or returns the first of its arguments that is not the zero value; it
// mirrors cmp.Or, which is unavailable before Go 1.22.
func or(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	options := config.Parse()

	if options.ShowVersion {
		fmt.Printf("Profile Client\nVersion: %s\nBuild Date: %s\n", or(version, "N/A"), or(buildDate, "N/A"))
		return
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	jar, err := storage.NewJar(options.APIURL, options.SessionFile)
	if err != nil {
		zapLogger.Fatal("cannot create cookie jar", zap.Error(err))
	}
	if err := jar.Load(); err != nil {
		zapLogger.Warn("ignoring session file", zap.String("path", options.SessionFile), zap.Error(err))
	}

	transport, err := api.LoadTransport(options.CAFile)
	if err != nil {
		zapLogger.Fatal("cannot load CA", zap.Error(err))
	}

	tokens := csrf.NewCookieStore(jar)
	client := api.NewClient(options.APIURL, jar, tokens, zapLogger).SetTransport(transport)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh := shell.New(shell.Config{
		API:     client,
		Links:   client,
		Tokens:  tokens,
		Session: jar,
		In:      os.Stdin,
		Out:     os.Stdout,
		Fd:      int(os.Stdin.Fd()),
		Log:     zapLogger,
	})

	zapLogger.Debug("starting client", zap.String("api", options.APIURL), zap.String("route", options.Route))
	if err := sh.Run(ctx, options.Route); err != nil && ctx.Err() == nil {
		zapLogger.Error("shell stopped", zap.Error(err))
	}
	if err := jar.Save(); err != nil {
		zapLogger.Error("failed to save session", zap.Error(err))
	}
}
