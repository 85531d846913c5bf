package di

import (
	"context"
	"fmt"
	"time"

	drepo "GoldPulse/internal/domain/repository"
	domsvc "GoldPulse/internal/domain/service"
	"GoldPulse/internal/handler/api"
	mid "GoldPulse/internal/middleware"
	internalrepo "GoldPulse/internal/repository"
	"GoldPulse/internal/service/stream"
	"GoldPulse/internal/services/bayes"
	"GoldPulse/internal/services/weights"
	"GoldPulse/internal/usecase"
	"GoldPulse/pkg/cache"
	pkgch "GoldPulse/pkg/clickhouse"
	"GoldPulse/pkg/config"
	xhttp "GoldPulse/pkg/http"
	pkgkafka "GoldPulse/pkg/kafka"
	applogger "GoldPulse/pkg/logger"
	"GoldPulse/pkg/metrics"
	"GoldPulse/pkg/queue"
	"GoldPulse/pkg/server"
)

// ProvideLogger creates the application logger. Production gets JSON,
// everything else console.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// audit backend is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideOutcomeAudit creates the ClickHouse audit log, or nil when
// disabled. The outcome processor treats a nil audit as a no-op.
func ProvideOutcomeAudit(chClient *pkgch.Client, cfg *config.Config) (drepo.OutcomeAudit, error) {
	if chClient == nil {
		return nil, nil
	}
	audit := internalrepo.NewClickHouseAudit(chClient.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := audit.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse audit schema: %w", err)
	}
	return audit, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideUpdatePublisher broadcasts applied outcomes, or nil when
// Kafka is disabled.
func ProvideUpdatePublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.UpdatePublisher {
	if producer == nil || cfg.Kafka.UpdatesTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaUpdatePublisher(producer, cfg.Kafka.UpdatesTopic)
}

// ProvideKafkaConsumer creates the outcome consumer, or nil when
// disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideOutcomeHandler feeds Kafka outcome events into the pipeline.
func ProvideOutcomeHandler(pipeline *mid.OutcomePipeline, cfg *config.Config) pkgkafka.MessageHandler {
	if !cfg.Kafka.Enabled {
		return nil
	}
	return internalrepo.NewOutcomeEventHandler(cfg.Kafka.OutcomesTopic, pipeline)
}

// ProvideRedisCache creates the shared Redis cache, or nil when
// disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideVolFeed shares volatility readings through a layered cache so
// same-process reads skip the network round trip.
func ProvideVolFeed(rc *cache.RedisCache, cfg *config.Config) drepo.VolatilityFeed {
	if rc == nil {
		return nil
	}
	layered := cache.NewLayeredCache(rc)
	return internalrepo.NewRedisVolFeed(layered, cfg.Regime.VolExpiry)
}

// ProvideRedisQueue creates the fallback outcome intake, or nil when
// the queue is disabled.
func ProvideRedisQueue(rc *cache.RedisCache, pipeline *mid.OutcomePipeline, cfg *config.Config, log *applogger.Logger) *queue.RedisQueue {
	if rc == nil || !cfg.Redis.QueueEnabled {
		return nil
	}
	return queue.NewRedisConsumer(
		log,
		&queue.QueueConfig{Workers: cfg.Redis.QueueWorkers},
		rc.Client(),
		[]queue.Job{internalrepo.NewOutcomeQueueJob(pipeline)},
		queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"),
	)
}

// ProvideReliabilityStore loads the persisted Beta posteriors.
func ProvideReliabilityStore(cfg *config.Config, log *applogger.Logger) *bayes.ReliabilityStore {
	fileStore := internalrepo.NewBayesFileStore(cfg.Bayes.StatePath)
	return bayes.NewReliabilityStore(fileStore, bayes.StoreConfig{
		DefaultAlpha:   cfg.Bayes.DefaultAlpha,
		DefaultBeta:    cfg.Bayes.DefaultBeta,
		UpdateStrength: cfg.Bayes.UpdateStrength,
		PriorCap:       cfg.Bayes.PriorCap,
		Signals:        cfg.Bayes.Signals,
	}, log)
}

// ProvideWeightsTracker loads the persisted dynamic weight state.
func ProvideWeightsTracker(cfg *config.Config, log *applogger.Logger) *weights.Tracker {
	fileStore := internalrepo.NewWeightFileStore(cfg.Weights.StatePath)
	return weights.NewTracker(fileStore, weights.Config{
		Alpha:     cfg.Weights.Alpha,
		Beta:      cfg.Weights.Beta,
		MinWeight: cfg.Weights.MinWeight,
	}, log)
}

// ProvideConfidenceEngine creates the Bayesian confidence engine.
func ProvideConfidenceEngine(store *bayes.ReliabilityStore, tracker *weights.Tracker, m drepo.Metrics, cfg *config.Config, log *applogger.Logger) *bayes.Engine {
	return bayes.NewEngine(store, tracker, m, bayes.EngineConfig{
		PriorMode:      bayes.PriorUpdateMode(cfg.Bayes.PriorUpdateMode),
		ConfidenceGain: cfg.Bayes.ConfidenceGain,
	}, log)
}

// ProvideConfidenceScorer exposes the engine through the domain port.
func ProvideConfidenceScorer(engine *bayes.Engine) domsvc.ConfidenceScorer {
	return engine
}

// ProvideWeightProvider exposes the tracker through the domain port.
func ProvideWeightProvider(tracker *weights.Tracker) domsvc.WeightProvider {
	return tracker
}

// ProvideFusionEngine creates the weighted-logit blend.
func ProvideFusionEngine(store *bayes.ReliabilityStore, wp domsvc.WeightProvider, cfg *config.Config) *usecase.FusionEngine {
	return usecase.NewFusionEngine(store, wp, cfg.Regime.VolWindow, cfg.Policy.MinTradeConf)
}

// ProvideThresholdPolicy creates the action policy.
func ProvideThresholdPolicy(cfg *config.Config) *usecase.ThresholdPolicy {
	return usecase.NewThresholdPolicy(cfg.Policy.BaseBuy, cfg.Policy.VolSensitivity, cfg.Policy.DriftPenalty)
}

// ProvideDecisionEngine creates the live decision orchestrator.
func ProvideDecisionEngine(
	scorer domsvc.ConfidenceScorer,
	fusion *usecase.FusionEngine,
	policy *usecase.ThresholdPolicy,
	volFeed drepo.VolatilityFeed,
	store *bayes.ReliabilityStore,
	m drepo.Metrics,
	cfg *config.Config,
	log *applogger.Logger,
) *usecase.DecisionEngine {
	return usecase.NewDecisionEngine(scorer, fusion, policy, volFeed, m, log,
		usecase.WithMaxHistory(cfg.Regime.MaxHistory),
		usecase.WithVolWindow(cfg.Regime.VolWindow),
		usecase.WithZWindow(cfg.Regime.ZWindow),
		usecase.WithDriftThreshold(cfg.Regime.DriftThreshold),
		usecase.WithPriorFlattener(store),
	)
}

// ProvideOutcomeProcessor creates the outcome feedback fan-out.
func ProvideOutcomeProcessor(
	scorer domsvc.ConfidenceScorer,
	audit drepo.OutcomeAudit,
	publisher drepo.UpdatePublisher,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.OutcomeProcessor {
	return usecase.NewOutcomeProcessor(scorer, audit, publisher, m, log)
}

// ProvideOutcomePipeline validates and deduplicates outcome intake
// across all transports.
func ProvideOutcomePipeline(proc *usecase.OutcomeProcessor, m drepo.Metrics) *mid.OutcomePipeline {
	return mid.NewOutcomePipeline(proc, m,
		mid.WithBufferSize(1000),
		mid.WithDedupTTL(time.Hour),
	)
}

// ProvideMarketStream creates the terminal bridge stream, or nil when
// no stream URL is configured.
func ProvideMarketStream(cfg *config.Config) drepo.MarketStream {
	if cfg.Stream.URL == "" {
		return nil
	}
	return stream.New(
		cfg.Stream.URL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideTickWatcher feeds the price stream into the decision engine.
func ProvideTickWatcher(ms drepo.MarketStream, engine *usecase.DecisionEngine, m drepo.Metrics) *usecase.TickWatcher {
	if ms == nil {
		return nil
	}
	return usecase.NewTickWatcher(ms, engine, m)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	log *applogger.Logger,
	engine *usecase.DecisionEngine,
	proc *usecase.OutcomeProcessor,
	pipeline *mid.OutcomePipeline,
	tracker *weights.Tracker,
	store *bayes.ReliabilityStore,
) xhttp.Handler {
	return api.NewDecisionEchoHandler(log, engine, proc, pipeline, tracker, store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	watcher *usecase.TickWatcher,
	pipeline *mid.OutcomePipeline,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	redisQueue *queue.RedisQueue,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.TraceHook{})
	}
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      logPublisher{producer},
		})
	}
	app := server.New(cfg, log, watcher, pipeline, consumer, kh, producer, redisQueue, chClient)
	app.SetHTTPHandler(httpHandler)
	return app
}

// logPublisher forwards aggregated warn/error lines to the logs topic.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (p logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}
