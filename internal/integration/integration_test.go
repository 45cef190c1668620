package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"study-engine/internal/app"
	"study-engine/internal/domain"
	"study-engine/internal/infra/memory"
	pgstore "study-engine/internal/infra/postgres"
	pgmigrations "study-engine/internal/infra/postgres/migrations"
	infraredis "study-engine/internal/infra/redis"
	"study-engine/internal/mastery"
	"study-engine/internal/progress"
)

func TestQuizAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedContent(t, ctx, pgURL, sampleDeck(), sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	attempts := pgstore.NewAttemptStore(pool)
	service := app.NewStudyService(app.Deps{
		Content:  infraredis.NewContentRepository(redisClient, pgstore.NewContentLoader(pool), 5*time.Minute),
		Progress: progress.NewManager(infraredis.NewProgressStore(redisClient)),
		Mastery:  mastery.NewTracker(memory.NewKVStore()),
		Attempts: attempts,
	}, app.Config{Seed: func() int64 { return 1 }})

	opening, err := service.OpenQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("open quiz: %v", err)
	}
	c, err := service.StartQuiz(ctx, opening, false)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	defer c.Close(ctx)

	if _, err := c.Select(ctx, c.State().Maps[0].Shuffled(1)); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := c.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	result, err := c.Finish(ctx)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Score != 100 {
		t.Fatalf("expected score 100, got %+v", result)
	}

	stored, err := attempts.Attempts(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(stored) != 1 || stored[0].Score != 100 {
		t.Fatalf("expected one attempt with score 100, got %+v", stored)
	}

	reopened, err := service.OpenQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("reopen quiz: %v", err)
	}
	if reopened.OfferResume || !reopened.Snapshot.IsCompleted {
		t.Fatalf("expected completed-and-reset snapshot, got %+v", reopened.Snapshot)
	}
}

func TestDeckProgressSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedContent(t, ctx, pgURL, sampleDeck(), sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	newService := func() *app.StudyService {
		return app.NewStudyService(app.Deps{
			Content:  infraredis.NewContentRepository(redisClient, pgstore.NewContentLoader(pool), 5*time.Minute),
			Progress: progress.NewManager(infraredis.NewProgressStore(redisClient)),
			Mastery:  mastery.NewTracker(memory.NewKVStore()),
		}, app.Config{})
	}

	first := newService()
	opening, err := first.OpenDeck(ctx, "deck-1")
	if err != nil {
		t.Fatalf("open deck: %v", err)
	}
	c, err := first.StartDeck(ctx, opening, false)
	if err != nil {
		t.Fatalf("start deck: %v", err)
	}
	if _, err := c.Mark(ctx, true); err != nil {
		t.Fatalf("mark: %v", err)
	}
	c.Close(ctx)

	second := newService()
	opening, err = second.OpenDeck(ctx, "deck-1")
	if err != nil {
		t.Fatalf("reopen deck: %v", err)
	}
	if !opening.OfferResume {
		t.Fatalf("expected resume offer after teardown save")
	}
	resumed, err := second.StartDeck(ctx, opening, true)
	if err != nil {
		t.Fatalf("resume deck: %v", err)
	}
	defer resumed.Close(ctx)
	if card, ok := resumed.Current(); !ok || card.ID != "c2" {
		t.Fatalf("expected to resume at c2, got %+v", card)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "study", "POSTGRES_PASSWORD": "studypass", "POSTGRES_DB": "studydb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://study:studypass@%s:%s/studydb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedContent(t *testing.T, ctx context.Context, dsn string, deck domain.Deck, quiz domain.Quiz) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	deckData, err := json.Marshal(deck)
	if err != nil {
		t.Fatalf("marshal deck: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO decks (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, deck.ID, string(deckData)); err != nil {
		t.Fatalf("insert deck: %v", err)
	}
	quizData, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(quizData)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleDeck() domain.Deck {
	return domain.Deck{
		ID:    "deck-1",
		Title: "Capitals",
		Cards: []domain.Card{
			{ID: "c1", Front: "France", Back: "Paris"},
			{ID: "c2", Front: "Japan", Back: "Tokyo"},
			{ID: "c3", Front: "Peru", Back: "Lima"},
		},
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "What is 2 + 2?",
				Answers: []domain.Answer{
					{Text: "3", IsCorrect: false},
					{Text: "4", IsCorrect: true},
					{Text: "5", IsCorrect: false},
				},
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
