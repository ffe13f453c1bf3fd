package api

import (
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/JaimeStill/addrsplit/internal/config"
	"github.com/JaimeStill/addrsplit/internal/models"
	"github.com/JaimeStill/addrsplit/internal/prompts"
	"github.com/JaimeStill/addrsplit/internal/submissions"
	"github.com/JaimeStill/addrsplit/internal/workflow"
	"github.com/JaimeStill/addrsplit/pkg/ratelimit"
)

const rateLimitPrefix = "addrsplit:ratelimit"

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Models      models.System
	Prompts     prompts.System
	Submissions submissions.System
}

// stores pairs the submission and settings stores of one driver.
type stores struct {
	submissions submissions.Store
	settings    prompts.Store
	sweeper     *submissions.PostgresStore
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, cfg *config.Config) *Domain {
	st := newStores(runtime, &cfg.Store)

	promptsSystem := prompts.New(st.settings, runtime.Logger)

	limiter := ratelimit.Unlimited()
	var cache models.Cache
	if runtime.Redis != nil {
		limiter = ratelimit.New(
			runtime.Redis,
			rateLimitPrefix,
			cfg.Redis.RateLimitRequests,
			cfg.Redis.RateLimitWindowDuration(),
		)
		cache = runtime.Redis
	}

	submissionsSystem := submissions.New(
		st.submissions,
		&workflow.Runtime{Registry: runtime.Registry, Logger: runtime.Logger},
		promptsSystem,
		runtime.Catalog,
		limiter,
		cfg.Store.RetentionDuration(),
		runtime.Pagination,
		runtime.Logger,
	)

	modelsSystem := models.New(
		bedrock.NewFromConfig(runtime.AWS),
		cache,
		cfg.Redis.ModelCacheTTLDuration(),
		runtime.Logger,
	)

	if st.sweeper != nil {
		startSweeper(runtime, st.sweeper, cfg.Store.SweepIntervalDuration())
	}

	return &Domain{
		Models:      modelsSystem,
		Prompts:     promptsSystem,
		Submissions: submissionsSystem,
	}
}

func newStores(runtime *Runtime, cfg *config.StoreConfig) stores {
	switch cfg.Driver {
	case config.DriverPostgres:
		db := runtime.Database.Connection()
		pg := submissions.NewPostgresStore(db)
		return stores{
			submissions: pg,
			settings:    prompts.NewPostgresStore(db),
			sweeper:     pg,
		}
	case config.DriverDynamoDB:
		client := dynamodb.NewFromConfig(runtime.AWS)
		return stores{
			submissions: submissions.NewDynamoStore(client, cfg.SubmissionsTable),
			settings:    prompts.NewDynamoStore(client, cfg.SettingsTable),
		}
	default:
		return stores{
			submissions: submissions.NewMemoryStore(),
			settings:    prompts.NewMemoryStore(),
		}
	}
}
