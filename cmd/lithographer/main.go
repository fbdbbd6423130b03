// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZSC714725/lithographer/internal/api"
	"github.com/ZSC714725/lithographer/internal/config"
	"github.com/ZSC714725/lithographer/internal/console"
	"github.com/ZSC714725/lithographer/internal/ffmpeg"
	"github.com/ZSC714725/lithographer/internal/filelog"
	"github.com/ZSC714725/lithographer/internal/job"
	"github.com/ZSC714725/lithographer/internal/logger"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}
	if *bind != "" {
		cfg.Server.Bind = *bind
	}
	if *ffmpegBin != "" {
		cfg.FFmpeg.Path = *ffmpegBin
	}

	z, err := logger.NewZap(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Logger init: %v", err)
	}
	defer z.Sync() //nolint:errcheck

	if err := run(cfg, z); err != nil {
		z.Error("lithographer stopped", zap.Error(err))
		z.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(cfg *config.Config, z *zap.Logger) error {
	dir, err := ffmpeg.InstallDir()
	if err != nil {
		return err
	}

	file, err := filelog.Open(cfg.LogPath(dir))
	if err != nil {
		return err
	}
	defer file.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flusher := filelog.New(file, cfg.Log.Queue)
	flusher.Start(context.Background())
	// Close is idempotent; this one covers the early returns below.
	defer flusher.Close() //nolint:errcheck

	ring := console.NewRing(cfg.Log.Capacity)
	hub := logger.NewHub(ring, flusher, z)
	appLog := hub.New("Lithographer")

	ginLog := hub.New("gin")
	gin.DefaultWriter = api.LogWriter(ginLog.Info)
	gin.DefaultErrorWriter = api.LogWriter(ginLog.Warn)
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	validator, err := ffmpeg.NewValidator(cfg.FFmpeg.Allow, cfg.FFmpeg.Block)
	if err != nil {
		appLog.Error("%v", err)
		return err
	}

	ff, err := ffmpeg.New(ffmpeg.Config{
		Binary:          cfg.FFmpeg.Path,
		ValidatorInput:  validator,
		ValidatorOutput: validator,
		Sample:          cfg.FFmpeg.Sample,
	})
	if err != nil {
		appLog.Error("%v", err)
		return err
	}

	sup := job.NewSupervisor(ff, hub.New("ffmpeg"))

	if s, err := ff.Probe(ctx); err != nil {
		appLog.Warn("%v", err)
	} else {
		appLog.Info("ffmpeg %s at %s", s.FFmpeg.Version, ff.Binary())
		if !s.CanEncodeAudio("aac") || !s.CanEncodeVideo("h264") {
			appLog.Warn("ffmpeg at %s cannot encode aac + h264", ff.Binary())
		}
	}

	router := api.NewRouter(api.NewHandler(sup, ring, ff, appLog), ginLog)
	srv := &http.Server{
		Addr:    cfg.Server.Bind,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLog.Info("listening on %s", cfg.Server.Bind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// A running encode is never cancelled; let it finish and log Done!
	// before the file log is drained.
	if sup.Busy() {
		appLog.Info("waiting for the running encode to finish")
	}
	sup.Wait()
	appLog.Info("bye")

	if cerr := flusher.Close(); cerr != nil {
		z.Warn("log file", zap.Error(cerr))
	}
	return err
}
