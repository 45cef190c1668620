package cli

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"study-engine/internal/app"
	"study-engine/internal/config"
	"study-engine/internal/domain"
	"study-engine/internal/infra/memory"
	pgstore "study-engine/internal/infra/postgres"
	redisstore "study-engine/internal/infra/redis"
	"study-engine/internal/infra/sqlite"
	"study-engine/internal/mastery"
	"study-engine/internal/progress"
	"study-engine/internal/schedule"
)

// runtime owns every connection a command opens.
type runtime struct {
	svc       *app.StudyService
	kv        *sqlite.KVStore
	progress  *progress.Manager
	completed completionChecker
	attempts  attemptLister
	closers   []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// newRuntime wires stores from config. Without Redis, progress lives in
// memory for the process; without Postgres, built-in sample content is used.
func newRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	rt := &runtime{}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
	}

	var loader memory.ContentLoader = memory.NewStaticContentLoader(sampleDecks(), sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewContentLoader(pool)
	}

	contentTTL := config.Duration(cfg.Content.TTL, 10*time.Minute)
	var content app.ContentRepository
	if redisClient != nil {
		content = redisstore.NewContentRepository(redisClient, loader, contentTTL)
	} else {
		content = memory.NewContentRepository(loader, contentTTL)
	}

	if redisClient != nil {
		store := redisstore.NewProgressStore(redisClient)
		rt.progress, rt.completed = progress.NewManager(store), store
	} else {
		log.Printf("redis not configured: progress is kept in memory for this run")
		store := memory.NewProgressStore()
		rt.progress, rt.completed = progress.NewManager(store), store
	}

	if pool != nil {
		rt.attempts = pgstore.NewAttemptStore(pool)
	} else {
		rt.attempts = memory.NewAttemptStore()
	}

	kv, err := sqlite.Open(cfg.MasteryPath("data"))
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.kv = kv
	rt.closers = append(rt.closers, func() { _ = kv.Close() })

	scheduler := schedule.New()
	rt.closers = append(rt.closers, scheduler.Stop)

	rt.svc = app.NewStudyService(app.Deps{
		Content:   content,
		Progress:  rt.progress,
		Mastery:   mastery.NewTracker(kv),
		Attempts:  rt.attempts,
		Scheduler: scheduler,
		Speaker:   domain.NoopSpeaker{},
	}, app.Config{
		SaveInterval: config.Duration(cfg.Session.SaveInterval, app.DefaultSaveInterval),
		TickInterval: config.Duration(cfg.Session.TickInterval, app.DefaultTickInterval),
	})
	return rt, nil
}
