package main

import (
	"context"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shimmeringbee/bridge/bridge"
	"github.com/shimmeringbee/bridge/metrics"
	"github.com/shimmeringbee/bridge/registry"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/bridge/status"
	lw "github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"log"
	"os"
	"os/signal"
	"syscall"
)

const eventBufferSize = 100

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := lw.New(golog.Wrap(log.New(os.Stderr, "", log.LstdFlags)))

	l.LogInfo(ctx, "Shimmering Bee: Zigbee Bridge - Starting...")

	directories := enumerateDirectories(ctx, l)

	l.LogInfo(ctx, "Directory enumeration complete.", lw.Datum("directories", directories))

	l, err := configureLogging(directories.LoggingConfigurations(), directories.Log, l)
	if err != nil {
		l.LogFatal(ctx, "Failed to configure logging.", lw.Err(err))
	}

	cfg, err := loadBridgeConfiguration(directories.BridgeConfiguration())
	if err != nil {
		l.LogFatal(ctx, "Failed to load bridge configuration.", lw.Err(err))
	}

	l.LogInfo(ctx, "Loaded bridge configuration.", lw.Datum("backend", cfg.Backend.Type), lw.Datum("stack", cfg.Stack.Type), lw.Datum("baseEndpoint", cfg.Endpoints.Base))

	eventBus := state.NewEventBus()

	backend, err := constructBackend(cfg.Backend, cfg.Endpoints.Base, eventBus, l)
	if err != nil {
		l.LogFatal(ctx, "Failed to construct actuator backend.", lw.Err(err))
	}

	reg, err := registry.New(cfg.Endpoints.Base, backend.Descriptors)
	if err != nil {
		l.LogFatal(ctx, "Failed to construct endpoint registry.", lw.Err(err))
	}

	tracker := status.NewTracker(reg)
	trackerCh := make(chan any, eventBufferSize)
	eventBus.Subscribe(trackerCh)
	go tracker.Run(ctx, trackerCh)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	collector := metrics.New(promRegistry)
	collectorCh := make(chan any, eventBufferSize)
	eventBus.Subscribe(collectorCh)
	go collector.Run(ctx, collectorCh)

	var shutdownHTTP func() error

	if cfg.HTTP != nil {
		l.LogInfo(ctx, "Starting http interface.", lw.Datum("port", cfg.HTTP.Port))

		shutdownHTTP, err = startHTTPInterface(*cfg.HTTP, tracker, eventBus, promRegistry, subsystemLogger(l, "http"))
		if err != nil {
			l.LogFatal(ctx, "Failed to start http interface.", lw.Err(err))
		}
	}

	l.LogInfo(ctx, "Starting network stack.")
	node, shutdownStack, err := startStack(cfg.Stack, *cfg.Network, cfg.Endpoints, directories.CommissioningRecord(), l)
	if err != nil {
		l.LogFatal(ctx, "Failed to start network stack.", lw.Err(err))
	}

	b, err := bridge.New(bridge.Config{
		Registry:  reg,
		Backend:   backend.Backend,
		Stack:     node,
		Logger:    l,
		Publisher: eventBus,
	})
	if err != nil {
		l.LogFatal(ctx, "Failed to construct bridge.", lw.Err(err))
	}

	if err := b.Start(ctx); err != nil {
		l.LogFatal(ctx, "Failed to start bridge.", lw.Err(err))
	}

	l.LogInfo(ctx, "Bridge ready.")

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	s := <-signalCh
	l.LogInfo(ctx, "Signal received, shutting down.", lw.Datum("signal", s.String()))

	if shutdownHTTP != nil {
		l.LogInfo(ctx, "Shutting down http interface.")

		if err := shutdownHTTP(); err != nil {
			l.LogError(ctx, "Failed to shutdown http interface.", lw.Err(err))
		}
	}

	l.LogInfo(ctx, "Shutting down bridge.", lw.Datum("state", b.State().String()))
	b.Stop()

	l.LogInfo(ctx, "Shutting down network stack.")
	shutdownStack()

	l.LogInfo(ctx, "Shutting down actuator backend.")
	backend.Shutdown()

	eventBus.Unsubscribe(trackerCh)
	eventBus.Unsubscribe(collectorCh)

	l.LogInfo(ctx, "Shut down complete.", lw.Datum("droppedEvents", eventBus.Dropped()))
}
