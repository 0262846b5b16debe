package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"galaxygenerator/config"
	"galaxygenerator/core"
	"galaxygenerator/logger"
	"galaxygenerator/panel"
	"galaxygenerator/rendering/opengl"
	"galaxygenerator/rendering/raylib"
	"galaxygenerator/snapshot"
	"galaxygenerator/web"
)

func init() {
	// GLFW and raylib must run on the main thread
	runtime.LockOSThread()
}

func main() {
	var (
		settingsPath = flag.String("settings", "settings.json", "Path to settings file")
		mode         = flag.String("mode", "", "Viewer: gl, raylib, web or snapshot (default from settings)")
		seed         = flag.Int64("seed", 0, "Random seed, 0 keeps the configured seed")
		out          = flag.String("out", "", "Snapshot output path (default from settings)")
		topDown      = flag.Bool("topdown", false, "Snapshot from above instead of the default camera")
	)
	flag.Parse()

	settings, err := config.Load(*settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		settings.Galaxy.Seed = *seed
	}
	if *out != "" {
		settings.Snapshot.Path = *out
	}
	if *mode == "" {
		*mode = settings.Viewer.Backend
	}

	log := logger.Init(settings.Logging)
	log.Info("Galaxy generator starting",
		"mode", *mode,
		"seed", settings.Galaxy.Seed,
		"count", settings.Galaxy.Parameters.Count,
	)

	switch *mode {
	case "gl":
		err = runGL(settings, log)
	case "raylib":
		err = runRaylib(settings, log)
	case "web":
		err = runWeb(settings, log)
	case "snapshot":
		err = runSnapshot(settings, *topDown, log)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Error("Exiting", "error", err)
		os.Exit(1)
	}
}

// regenerateOnCommit is the panel commit handler shared by the native
// viewers. A failed regeneration is logged and the loop keeps running.
func regenerateOnCommit(manager *core.BufferManager, log *slog.Logger) panel.CommitFunc {
	return func(params core.ParameterSet) {
		if err := manager.Regenerate(params); err != nil {
			log.Error("Regeneration failed", "operation", "commit", "error", err)
		}
	}
}

func runGL(settings config.Settings, log *slog.Logger) error {
	renderer, err := opengl.NewGalaxyRenderer(settings.Viewer.Width, settings.Viewer.Height, settings.Viewer.VSync, log)
	if err != nil {
		return err
	}
	defer renderer.Terminate()

	generator := core.NewGenerator(core.NewSeededSource(settings.Galaxy.Seed), log)
	manager := core.NewBufferManager(generator, renderer, renderer, log)
	defer manager.Close()

	p := panel.New(settings.Galaxy.Parameters, regenerateOnCommit(manager, log), log)
	renderer.SetPanel(p)

	if err := manager.Regenerate(p.Params()); err != nil {
		log.Error("Initial generation failed", "error", err)
	}

	frameCount := 0
	lastReport := time.Now()
	for !renderer.ShouldClose() {
		renderer.PollEvents()
		renderer.Render()

		frameCount++
		if time.Since(lastReport) >= 5*time.Second {
			log.Debug("Frame rate", "fps", float64(frameCount)/time.Since(lastReport).Seconds())
			frameCount = 0
			lastReport = time.Now()
		}
	}
	return nil
}

func runRaylib(settings config.Settings, log *slog.Logger) error {
	viewer := raylib.NewViewer(settings.Viewer.Width, settings.Viewer.Height, settings.Viewer.VSync, log)
	defer viewer.Close()

	generator := core.NewGenerator(core.NewSeededSource(settings.Galaxy.Seed), log)
	manager := core.NewBufferManager(generator, viewer, viewer, log)
	defer manager.Close()

	p := panel.New(settings.Galaxy.Parameters, regenerateOnCommit(manager, log), log)
	viewer.SetPanel(p)

	if err := manager.Regenerate(p.Params()); err != nil {
		log.Error("Initial generation failed", "error", err)
	}

	for !viewer.ShouldClose() {
		viewer.HandleInput()
		viewer.Render()
	}
	return nil
}

func runWeb(settings config.Settings, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", settings.Server.Port),
		Handler:           web.NewServer(settings.Galaxy, settings.Server, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", "http://localhost"+server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runSnapshot(settings config.Settings, topDown bool, log *slog.Logger) error {
	camera := snapshot.DefaultCamera()
	if topDown {
		camera = snapshot.TopDownCamera(float32(settings.Galaxy.Parameters.Radius) * 1.5)
	}
	scene := snapshot.NewScene(settings.Snapshot.Width, settings.Snapshot.Height, camera, log)

	generator := core.NewGenerator(core.NewSeededSource(settings.Galaxy.Seed), log)
	manager := core.NewBufferManager(generator, scene, scene, log)
	defer manager.Close()

	if err := manager.Regenerate(settings.Galaxy.Parameters); err != nil {
		return err
	}
	if err := scene.SavePNG(settings.Snapshot.Path); err != nil {
		return err
	}
	log.Info("Snapshot written", "path", settings.Snapshot.Path, "points", manager.Buffers().Len())
	return nil
}
