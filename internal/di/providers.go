package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"NatalChart/internal/domain/models"
	domrepo "NatalChart/internal/domain/repository"
	"NatalChart/internal/handler/api"
	internalrepo "NatalChart/internal/repository"
	"NatalChart/internal/service/ratelimit"
	"NatalChart/internal/services/aspects"
	"NatalChart/internal/services/ephemeris"
	"NatalChart/internal/services/houses"
	"NatalChart/internal/usecase"
	"NatalChart/pkg/cache"
	pkgch "NatalChart/pkg/clickhouse"
	"NatalChart/pkg/config"
	xhttp "NatalChart/pkg/http"
	pkgkafka "NatalChart/pkg/kafka"
	applogger "NatalChart/pkg/logger"
	"NatalChart/pkg/metrics"
	"NatalChart/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegisterer returns the registry shared by every metric family.
func ProvideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg prometheus.Registerer) domrepo.Metrics {
	return metrics.New(reg)
}

// ProvideCache builds the in-memory cache, layered over Redis when enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	mem := cache.NewMemoryCache(
		cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
		cache.WithMemoryTTL(cfg.Cache.TTL),
	)
	if !cfg.Cache.Redis.Enabled {
		return mem, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		_ = mem.Close()
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", applogger.String("host", cfg.Cache.Redis.Host))
	return cache.NewLayeredCache(mem, rc), nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
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

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config, reg prometheus.Registerer) (*pkgkafka.Producer, error) {
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
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideChartArchive stores charts in ClickHouse when available and in the
// shared cache otherwise.
func ProvideChartArchive(cfg *config.Config, ch *pkgch.Client, c cache.Service, l *applogger.Logger) (domrepo.ChartArchive, error) {
	if ch == nil {
		return internalrepo.NewCacheChartArchive(c, cfg.Cache.TTL), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	archive, err := internalrepo.NewCHChartArchive(ctx, ch, l)
	if err != nil {
		return nil, fmt.Errorf("chart archive: %w", err)
	}
	return archive, nil
}

// ProvideChartPublisher publishes chart events to Kafka when a producer exists.
func ProvideChartPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.ChartPublisher {
	if producer == nil {
		return internalrepo.NoopChartPublisher{}
	}
	return internalrepo.NewKafkaChartPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideChartCache returns the request-keyed chart cache, or nil when caching is off.
func ProvideChartCache(cfg *config.Config, c cache.Service) domrepo.ChartCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	return internalrepo.NewChartCache(c, cfg.Cache.TTL)
}

// ProvideChartCalculator assembles the calculation engine.
func ProvideChartCalculator(cfg *config.Config) *usecase.ChartCalculator {
	return usecase.NewChartCalculator(ephemeris.NewEvaluator(), houses.NewCalculator(), aspects.NewDetector(), cfg.Chart.Workers)
}

// ChartOptions converts the chart section of cfg into calculator options.
func ChartOptions(cfg *config.Config) (models.ChartOptions, error) {
	opts := models.ChartOptions{
		HouseSystem:         models.HouseSystemName(cfg.Chart.HouseSystem),
		FallbackHouseSystem: models.HouseSystemName(cfg.Chart.FallbackHouseSystem),
		IncludeNodes:        cfg.Chart.IncludeNodes,
	}
	if len(cfg.Chart.Orbs) == 0 {
		opts.Orbs = models.DefaultOrbTable()
		return opts, nil
	}
	opts.Orbs = make(models.OrbTable, len(cfg.Chart.Orbs))
	for name, orb := range cfg.Chart.Orbs {
		t := models.AspectType(name)
		if _, ok := models.LookupAspect(t); !ok {
			return models.ChartOptions{}, fmt.Errorf("chart.orbs: unknown aspect %q", name)
		}
		opts.Orbs[t] = orb
	}
	return opts, nil
}

// ProvideChartService wires the chart service.
func ProvideChartService(
	cfg *config.Config,
	calc *usecase.ChartCalculator,
	archive domrepo.ChartArchive,
	publisher domrepo.ChartPublisher,
	chartCache domrepo.ChartCache,
	m domrepo.Metrics,
	l *applogger.Logger,
) (*usecase.ChartService, error) {
	opts, err := ChartOptions(cfg)
	if err != nil {
		return nil, err
	}
	return usecase.NewChartService(calc, archive, publisher, chartCache, m, l, usecase.ChartServiceConfig{
		Defaults: opts,
		Timeout:  cfg.Chart.Timeout,
	}), nil
}

// ProvideLocalChartService wires a service with no external backends: charts
// are kept in memory and events are dropped.
func ProvideLocalChartService(cfg *config.Config, calc *usecase.ChartCalculator, m domrepo.Metrics, l *applogger.Logger) (*usecase.ChartService, error) {
	mem := cache.NewMemoryCache(cache.WithMemoryMaxSize(16))
	return ProvideChartService(cfg, calc, internalrepo.NewCacheChartArchive(mem, time.Hour), internalrepo.NoopChartPublisher{}, nil, m, l)
}

// ProvideChartHandler builds the HTTP and WebSocket chart handlers.
func ProvideChartHandler(l *applogger.Logger, svc *usecase.ChartService) *api.ChartEchoHandler {
	return api.NewChartEchoHandler(l, svc, api.NewChartWSHandler(l, svc, 30*time.Second))
}

// ProvideRateLimiter returns the per-client limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideHTTPServer creates the echo server with the chart routes.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ChartEchoHandler, limiter *ratelimit.Limiter, reg prometheus.Registerer) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithCORS(len(cfg.Server.CORSOrigins) > 0, cfg.Server.CORSOrigins...),
		xhttp.WithLogger(l),
		xhttp.WithRegistry(reg, prometheus.DefaultGatherer),
	}
	if !cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(""))
	} else if cfg.Metrics.Path != "" {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	}
	if limiter != nil {
		opts = append(opts, xhttp.WithRateLimit(limiter))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideKafkaConsumer creates the chart request consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, reg prometheus.Registerer) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
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
		pkgkafka.WithConsumerLogger(l),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook(), pkgkafka.LoggingHook(l)))
	return consumer, nil
}

// ProvideKafkaChartRequestsHandler handles the chart requests topic.
func ProvideKafkaChartRequestsHandler(cfg *config.Config, svc *usecase.ChartService, m domrepo.Metrics, l *applogger.Logger) *usecase.KafkaChartRequestsHandler {
	return usecase.NewKafkaChartRequestsHandler(cfg.Kafka.RequestsTopic, svc, m, l)
}

// ProvideApp creates the application server and attaches the log collector.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaChartRequestsHandler,
	limiter *ratelimit.Limiter,
	c cache.Service,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
	archive domrepo.ChartArchive,
	publisher domrepo.ChartPublisher,
) *server.App {
	// Closed in reverse: the collector flushes before the publisher closes the producer.
	closers := []server.Closer{{Name: "cache", Close: c.Close}}
	if ch != nil {
		closers = append(closers, server.Closer{Name: "clickhouse", Close: ch.Close})
	}
	closers = append(closers,
		server.Closer{Name: "chart archive", Close: archive.Close},
		server.Closer{Name: "chart publisher", Close: publisher.Close},
	)
	if producer != nil && cfg.Log.Collect {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.FlushInterval,
			CountThreshold: cfg.Log.FlushCount,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
		closers = append(closers, server.Closer{Name: "log collector", Close: func() error {
			l.RemoveCollector()
			return nil
		}})
	}

	deps := server.Deps{HTTP: httpServer, Closers: closers}
	if consumer != nil {
		deps.Consumer = consumer
		deps.Handler = kh
	}
	if limiter != nil {
		deps.Sweeper = limiter
	}
	return server.New(cfg, l, deps)
}
