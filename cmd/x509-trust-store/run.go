// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-store/src/cli"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
	verpkg "github.com/H0llyW00dzZ/x509-trust-store/src/version"
)

var version string // set by ldflags or defaults to imported version

func init() {
	if version == "" {
		version = verpkg.Version
	}
}

func main() {
	log := logger.NewCLILogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- cli.Execute(ctx, version, log)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("x509-trust-store: %v", err)
			os.Exit(1)
		}
		if cli.OperationPerformedSuccessfully {
			log.Debugf("x509-trust-store %s finished", version)
		}
	case <-ctx.Done():
		log.Println("Operation cancelled by signal. Exiting...")
		// Let deferred store commits finish before exiting.
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
		os.Exit(130)
	}
}
