/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"restara/internal/config"
	"restara/internal/logger"
	"restara/pkg/spec"

	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath(), "path to the YAML config file")
	bell := flag.Bool("bell", false, "also ring the terminal bell when the timer completes")
	silent := flag.Bool("silent", false, "decode assets but never open the audio device")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", spec.AppName, err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: logger: %v\n", spec.AppName, err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting",
		zap.String("app", spec.AppName),
		zap.Int("major", spec.VersionMajor),
		zap.Int("minor", spec.VersionMinor),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDaemon(cfg, options{bell: *bell, silent: *silent}, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer d.Close()

	if err := d.Serve(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
	log.Info("shutting down")
}
