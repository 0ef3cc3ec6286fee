// Command airplayhls runs the AirPlay HLS video session subsystem: the
// forward-HTTP protocol handlers, the local HLS channel, and the reverse-HTTP
// FCUP issuer, wired to a logging player callback adapter by default.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"

	"airplayhls/config"
	"airplayhls/handlers"
	"airplayhls/internal/conntag"
	"airplayhls/internal/fcup"
	"airplayhls/internal/logging"
	"airplayhls/internal/registry"
	"airplayhls/internal/resumestore"
	"airplayhls/services/player"
)

func main() {
	configPath := flag.String("config", "config/hls-video.json", "path to the subsystem's JSON config file")
	deviceMAC := flag.String("device-mac", "", "override the reported macAddress (defaults to a random value)")
	flag.Parse()

	mgr := config.NewManager(*configPath)
	settings, err := mgr.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "airplayhls: load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{
		File:       settings.Log.File,
		Level:      settings.Log.Level,
		MaxSize:    settings.Log.MaxSize,
		MaxBackups: settings.Log.MaxBackups,
		MaxAge:     settings.Log.MaxAge,
		Compress:   settings.Log.Compress,
	})

	var resume *resumestore.Store
	if settings.Resume.Enabled {
		resume, err = resumestore.Open(settings.Resume.DBPath)
		if err != nil {
			log.Errorf("airplayhls: open resume store: %v", err)
			os.Exit(1)
		}
	}

	reg := registry.New(
		settings.Session.RegistryCapacity,
		settings.Session.AdvertisementMaxDurationSeconds,
		settings.Session.LocalPortRangeStart,
		settings.Session.Lang,
	)

	info := handlers.DefaultServerInfo()
	if *deviceMAC != "" {
		info.MacAddress = *deviceMAC
		info.DeviceID = *deviceMAC
	} else {
		info.MacAddress = randomMAC()
		info.DeviceID = info.MacAddress
	}

	srv := handlers.New(reg, log, fcup.New(), resume, player.NewLoggingCallbacks(log), info)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port),
		Handler:     srv.Router(),
		ConnContext: conntag.ConnContext,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweep := conc.NewWaitGroup()
	sweep.Go(func() { sweepLoop(ctx, reg, log) })

	log.Infof("airplayhls: listening on %s", httpServer.Addr)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Infof("airplayhls: shutdown signal received")
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			log.Errorf("airplayhls: serve: %v", err)
		}
	}

	shutdown(httpServer, resume, log)
	sweep.Wait()
}

// sweepLoop periodically prunes advertisement slots between plays
// (SPEC_FULL.md component N), wrapped in conc.WaitGroup so a panic inside it
// surfaces at shutdown instead of silently killing the goroutine.
func sweepLoop(ctx context.Context, reg *registry.Registry, log *logging.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reg.PruneAdvertisements()
		case <-ctx.Done():
			log.Infof("airplayhls: advertisement sweep shutting down")
			return
		}
	}
}

// shutdown tears down the HTTP listener and closes the resume store
// concurrently with errgroup (SPEC_FULL.md component N), mirroring the
// teacher's concurrent graceful-shutdown pattern in main.go.
func shutdown(httpServer *http.Server, resume *resumestore.Store, log *logging.Logger) {
	var g errgroup.Group

	g.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})
	if resume != nil {
		g.Go(func() error {
			return resume.Close()
		})
	}

	if err := g.Wait(); err != nil {
		log.Errorf("airplayhls: shutdown: %v", err)
	}
}

// randomMAC generates a locally-administered MAC-shaped identifier when the
// operator hasn't pinned one, derived from a random UUID rather than reading
// real hardware (spec.md Non-goals exclude hardware identity sourcing).
func randomMAC() string {
	id := uuid.New()
	b := id[:6]
	b[0] = (b[0] | 0x02) &^ 0x01 // locally administered, unicast
	hw := net.HardwareAddr(b)
	return hw.String()
}
