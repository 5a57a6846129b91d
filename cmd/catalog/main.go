package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"

	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/events"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/telemetry"
	catalogservices "github.com/ghuser/storefront/services/catalog/application/services"
	catalogevents "github.com/ghuser/storefront/services/catalog/domain/events"
)

var topics = []string{
	catalogevents.TopicCatalogCreated,
	catalogevents.TopicItemAdded,
	catalogevents.TopicItemMerged,
	catalogevents.TopicPriceChanged,
	catalogevents.TopicOrderPlaced,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	// stdout carries the demo output and the price prompt.
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, metrics, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	eventBus := events.NewEventBus(cfg, log)

	appConfig := &app.Application{
		Config:   cfg,
		Logger:   log,
		EventBus: eventBus,
	}

	tally := newEventTally()
	drain, err := registerSubscribers(ctx, appConfig, tally)
	if err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	decider, err := catalogservices.NewPriceDecider(cfg.PriceDropPolicy, os.Stdin, os.Stdout)
	if err != nil {
		log.Error("invalid price drop policy", "error", err)
		os.Exit(1)
	}

	svcs, err := catalogservices.New(appConfig, decider)
	if err != nil {
		log.Error("failed to wire catalog services", "error", err)
		os.Exit(1)
	}

	runErr := runDemo(ctx, svcs.Catalog, cfg.FixturesPath, os.Stdout)

	// Close waits for in-flight handlers and closes every subscriber channel,
	// which ends the drain goroutines.
	if err := eventBus.Close(); err != nil {
		log.Error("failed to close event bus", "error", err)
	}
	if err := drain.Wait(); err != nil {
		log.Error("subscriber drain failed", "error", err)
	}

	log.Info("events handled", "by_topic", tally.snapshot())
	logMetrics(ctx, log, metrics)

	if runErr != nil {
		log.Error("demo failed", "error", runErr)
		os.Exit(1)
	}
}

// registerSubscribers logs every catalog event and counts it per topic.
// The returned group finishes once all subscriber error channels are closed.
func registerSubscribers(ctx context.Context, a *app.Application, tally *eventTally) (*errgroup.Group, error) {
	var g errgroup.Group
	for _, topic := range topics {
		errCh, err := a.EventBus.Subscribe(ctx, topic, handleCatalogEvent(a, topic, tally))
		if err != nil {
			return nil, err
		}

		// Drain subscriber errors in background so the channel never blocks.
		g.Go(func() error {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
			return nil
		})
	}

	a.Logger.Info("event subscribers registered", "topics", topics)
	return &g, nil
}

// handleCatalogEvent returns a handler that decodes the event payload and logs it.
// Handlers must be idempotent: EventBus retries up to 3× on failure.
func handleCatalogEvent(a *app.Application, topic string, tally *eventTally) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var payload map[string]any
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		tally.add(topic)
		a.Logger.DebugContext(ctx, "catalog event", "topic", topic, "event", payload)
		return nil
	}
}

type eventTally struct {
	mu      sync.Mutex
	byTopic map[string]int
}

func newEventTally() *eventTally {
	return &eventTally{byTopic: make(map[string]int)}
}

func (t *eventTally) add(topic string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byTopic[topic]++
}

func (t *eventTally) snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.byTopic)
}
