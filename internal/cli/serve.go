package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/deltarouter"
	deltahttp "github.com/mu-semtech/delta-indexer/internal/deltasource/http"
	"github.com/mu-semtech/delta-indexer/internal/docbuilder"
	"github.com/mu-semtech/delta-indexer/internal/indexmanager"
	"github.com/mu-semtech/delta-indexer/internal/logging"
	"github.com/mu-semtech/delta-indexer/internal/registry"
	"github.com/mu-semtech/delta-indexer/internal/registry/distlock"
	"github.com/mu-semtech/delta-indexer/internal/searchengine"
	"github.com/mu-semtech/delta-indexer/internal/textextract"
	"github.com/mu-semtech/delta-indexer/internal/triplestore"
	"github.com/mu-semtech/delta-indexer/internal/updatehandler"

	deltaamqp "github.com/mu-semtech/delta-indexer/internal/deltasource/amqp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "load configuration, rebuild eager indexes, and start consuming deltas",
	RunE:  runServe,
}

// shutdownGrace is the default bound on how long serve waits, after a
// shutdown signal, for the HTTP delta server to stop and the update-handler
// worker pool to drain its queue; DELTAINDEXER_SHUTDOWN_GRACE overrides it.
const shutdownGrace = 20 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader("DELTAINDEXER")
	if cfgFile != "" {
		loader.BindFile(cfgFile)
	}
	settings, err := loader.Load()
	if err != nil {
		return err
	}

	root := logging.New(logging.Config{
		Level:   logging.Level(settings.LogLevel),
		Format:  settings.LogFormat,
		Service: "delta-indexer",
	})
	logger := logging.ForComponent(root, "serve")

	model := config.NewModel(settings.TypeDefinitions)
	gateway := triplestore.NewHTTPGateway(settings.TriplestoreURL)
	search := searchengine.NewHTTPClient(settings.SearchEngineURL)

	var cache *textextract.Cache
	if settings.CacheBase != "" && settings.TextExtractorURL != "" {
		extractor := textextract.NewHTTPExtractor(settings.TextExtractorURL)
		cache = textextract.NewCache(settings.CacheBase, extractor, settings.MaximumFileSize, logger)
	}
	builder := docbuilder.New(gateway, model, cache, settings.AttachmentPathBase)

	var locker *distlock.Locker
	if settings.RedisURL != "" {
		locker, err = distlock.New(settings.RedisURL, "delta-indexer")
		if err != nil {
			return err
		}
		defer locker.Close()
	}

	reg := registry.New()
	manager := indexmanager.New(reg, model, gateway, search, builder, locker, *settings, logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := manager.Initialize(ctx); err != nil {
		return err
	}

	router := deltarouter.New(model, gateway)
	queueCapacity := settings.BatchSize * 10
	queue := updatehandler.NewBoundedCoalescingQueue(queueCapacity)
	handler := updatehandler.NewHandler(reg, model, gateway, search, builder, logger)
	pool := updatehandler.NewPool(queue, handler, settings.NumberOfThreads, logger)
	pool.Start(ctx)

	httpServer := deltahttp.NewServer(router, queue, logger)
	go func() {
		if err := httpServer.Echo.Start(settings.HTTPListenAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("delta http server: %v", err)
		}
	}()

	var amqpConsumer *deltaamqp.Consumer
	if settings.AMQPURL != "" {
		amqpConsumer = deltaamqp.NewConsumer(settings.AMQPURL, "deltas", router, queue, logger)
		if err := amqpConsumer.Connect(); err != nil {
			return err
		}
		go func() {
			if err := amqpConsumer.Run(ctx); err != nil {
				logger.Errorf("amqp consumer: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cancel()
	if amqpConsumer != nil {
		amqpConsumer.Close()
	}

	grace := config.EnvDuration("DELTAINDEXER_SHUTDOWN_GRACE", shutdownGrace)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), grace)
	defer shutdownCancel()
	httpServer.Echo.Shutdown(shutdownCtx)

	drained := make(chan struct{})
	go func() {
		pool.Stop()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		logger.Warn("update-handler pool did not drain within the shutdown grace period")
	}
	return nil
}
