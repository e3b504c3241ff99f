package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/agency-leads/internal/config"
	"github.com/wolfman30/agency-leads/internal/events"
	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/internal/notify"
	"github.com/wolfman30/agency-leads/internal/observability/metrics"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

const (
	LeadIntakeName    = "lead"
	ContactIntakeName = "contact"

	ContactDefaultSource = "contact-form"
)

// BuildLeadStore selects the lead store named by LEAD_STORE. The returned
// cleanup func is never nil.
func BuildLeadStore(ctx context.Context, cfg *appconfig.Config, clients *AWSClients, logger *logging.Logger) (leads.Store, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.LeadStore {
	case "", "file":
		logger.Info("lead store: file", "path", cfg.LeadsFilePath)
		return leads.NewFileStore(cfg.LeadsFilePath), noop, nil
	case "memory":
		logger.Warn("lead store: memory; leads are lost on restart")
		return leads.NewMemoryStore(), noop, nil
	case "postgres":
		pool, err := BuildPostgresPool(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("lead store: postgres")
		return leads.NewPostgresStore(pool), pool.Close, nil
	case "dynamodb":
		if clients == nil {
			return nil, noop, fmt.Errorf("bootstrap: aws clients required for dynamodb lead store")
		}
		logger.Info("lead store: dynamodb", "table", cfg.LeadsTableName)
		return leads.NewDynamoStore(clients.DynamoDB, cfg.LeadsTableName), noop, nil
	case "s3":
		if clients == nil {
			return nil, noop, fmt.Errorf("bootstrap: aws clients required for s3 lead store")
		}
		if strings.TrimSpace(cfg.LeadsBucket) == "" {
			return nil, noop, fmt.Errorf("bootstrap: LEADS_BUCKET is required for the s3 lead store")
		}
		logger.Info("lead store: s3", "bucket", cfg.LeadsBucket, "key", cfg.LeadsObjectKey)
		return leads.NewS3Store(clients.S3, cfg.LeadsBucket, cfg.LeadsObjectKey), noop, nil
	}
	return nil, noop, fmt.Errorf("bootstrap: unknown LEAD_STORE %q", cfg.LeadStore)
}

// BuildRateLimiter returns the submission limiter for one intake. The redis
// backend falls back to memory when no client is available.
func BuildRateLimiter(cfg *appconfig.Config, name string, policy appconfig.RateLimitPolicy, redisClient *redis.Client, logger *logging.Logger) leads.RateLimiter {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg != nil && cfg.RateLimitBackend == "redis" {
		if redisClient != nil {
			prefix := cfg.RedisKeyPrefix + ":" + name
			return leads.NewRedisRateLimiter(redisClient, prefix, policy.MaxRequests, policy.Window, logger)
		}
		logger.Warn("redis rate limit backend requested but redis unavailable; using in-memory limiter", "intake", name)
	}
	return leads.NewMemoryRateLimiter(policy.MaxRequests, policy.Window)
}

// BuildEmailSender picks the notification transport from EMAIL_PROVIDER.
// "auto" prefers SendGrid, then SES, then the logging stub.
func BuildEmailSender(cfg *appconfig.Config, clients *AWSClients, logger *logging.Logger) (notify.EmailSender, string) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger), "stub"
	}

	from := notify.From{Email: cfg.EmailFromAddress, Name: cfg.EmailFromName}
	sendgrid := func() notify.EmailSender {
		if s := notify.NewSendGridSender(cfg.SendGridAPIKey, from, logger); s != nil {
			return s
		}
		return nil
	}
	ses := func() notify.EmailSender {
		if clients == nil || clients.SES == nil {
			return nil
		}
		if s := notify.NewSESSender(clients.SES, from, logger); s != nil {
			return s
		}
		return nil
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		if s := sendgrid(); s != nil {
			return s, "sendgrid"
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY missing; using stub")
	case "ses":
		if s := ses(); s != nil {
			return s, "ses"
		}
		logger.Warn("ses selected but aws clients or EMAIL_FROM missing; using stub")
	case "stub":
	default:
		if s := sendgrid(); s != nil {
			return s, "sendgrid"
		}
		if s := ses(); s != nil {
			return s, "ses"
		}
	}
	return notify.NewStubEmailSender(logger), "stub"
}

// BuildPublisher returns the SQS event publisher, or nil when no queue is
// configured.
func BuildPublisher(cfg *appconfig.Config, clients *AWSClients, intake string) leads.EventPublisher {
	if cfg == nil || strings.TrimSpace(cfg.LeadEventsQueueURL) == "" || clients == nil || clients.SQS == nil {
		return nil
	}
	return events.NewSQSPublisher(clients.SQS, cfg.LeadEventsQueueURL, intake)
}

// Services is the wired lead pipeline shared by the HTTP server and the
// Lambda handler.
type Services struct {
	Store    leads.Store
	Query    *leads.Query
	Lead     *leads.Intake
	Contact  *leads.Intake
	Metrics  *metrics.LeadMetrics
	Redis    *redis.Client
	Provider string

	closers []func()
}

// ServicesDeps carries the externally built clients. Every field is optional.
type ServicesDeps struct {
	AWS     *AWSClients
	Redis   *redis.Client
	Metrics *metrics.LeadMetrics
	// Store overrides LEAD_STORE selection.
	Store leads.Store
}

// BuildServices wires both intakes over one store.
func BuildServices(ctx context.Context, cfg *appconfig.Config, deps ServicesDeps, logger *logging.Logger) (*Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	svc := &Services{Metrics: deps.Metrics, Redis: deps.Redis}

	store := deps.Store
	if store == nil {
		built, cleanup, err := BuildLeadStore(ctx, cfg, deps.AWS, logger)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, cleanup)
		store = built
	}
	svc.Store = store
	svc.Query = leads.NewQuery(store)

	sender, provider := BuildEmailSender(cfg, deps.AWS, logger)
	svc.Provider = provider
	notifier := notify.NewLeadNotifier(sender, strings.Split(cfg.LeadNotifyAddress, ","), logger)
	if !notifier.Enabled() {
		logger.Warn("lead notifications disabled; set LEAD_NOTIFY_EMAIL to enable")
	}

	leadCfg := leads.IntakeConfig{
		Name:     LeadIntakeName,
		Limiter:  BuildRateLimiter(cfg, LeadIntakeName, cfg.LeadRateLimit, deps.Redis, logger),
		Store:    store,
		Notifier: notifier,
		Logger:   logger,
		Metrics:  deps.Metrics,
	}
	if pub := BuildPublisher(cfg, deps.AWS, LeadIntakeName); pub != nil {
		leadCfg.Publisher = pub
	}
	svc.Lead = leads.NewIntake(leadCfg)

	svc.Contact = leads.NewIntake(leads.IntakeConfig{
		Name:          ContactIntakeName,
		Limiter:       BuildRateLimiter(cfg, ContactIntakeName, cfg.ContactRateLimit, deps.Redis, logger),
		Store:         store,
		Notifier:      notifier,
		DefaultSource: ContactDefaultSource,
		Logger:        logger,
		Metrics:       deps.Metrics,
	})

	logger.Info("lead pipeline ready",
		"store", cfg.LeadStore,
		"rate_limit_backend", cfg.RateLimitBackend,
		"email_provider", provider,
		"events_enabled", leadCfg.Publisher != nil,
	)
	return svc, nil
}

// Close releases resources opened by BuildServices.
func (s *Services) Close() {
	if s == nil {
		return
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
