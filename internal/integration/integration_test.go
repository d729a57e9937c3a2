package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"quiz-funnel/internal/app"
	"quiz-funnel/internal/content"
	"quiz-funnel/internal/domain"
	pgloader "quiz-funnel/internal/infra/postgres"
	infraredis "quiz-funnel/internal/infra/redis"
	"quiz-funnel/internal/infra/sheets"
)

func TestFunnelEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	funnel, err := content.Default()
	if err != nil {
		t.Fatalf("default content: %v", err)
	}
	seedFunnel(t, ctx, pgURL, funnel)

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

	rows := &sheet{}
	hook := httptest.NewServer(rows)
	defer hook.Close()
	sink, ok := sheets.New(hook.URL, 5*time.Second)
	if !ok {
		t.Fatalf("expected sheets client for %s", hook.URL)
	}

	newService := func() *app.FunnelService {
		loader := pgloader.NewFunnelLoader(pool)
		repo := infraredis.NewFunnelRepository(redisClient, loader, 5*time.Minute)
		store := infraredis.NewSessionStore(redisClient, 5*time.Minute)
		return app.NewFunnelService(store, repo, sink, app.ServiceConfig{FunnelID: funnel.ID})
	}
	service := newService()

	p, err := service.Start(ctx, "visitor-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	interstitials := 0
	for p.View == domain.ViewQuiz {
		if p.ShowingInterstitial() {
			interstitials++
			if p, err = service.Continue(ctx, "visitor-1"); err != nil {
				t.Fatalf("continue: %v", err)
			}
			continue
		}
		last := funnel.Questions[p.Index].Options
		if p, err = service.Answer(ctx, "visitor-1", last[len(last)-1].ID); err != nil {
			t.Fatalf("answer %d: %v", p.Index, err)
		}
	}
	if p.View != domain.ViewResultGate || interstitials != len(funnel.Quotes) {
		t.Fatalf("expected gate after %d quotes, got view=%s quotes=%d", len(funnel.Quotes), p.View, interstitials)
	}

	country := funnel.Countries[0].Countries[0].Code
	form := domain.LeadForm{Name: "سارة علي", Email: "sara@example.com", Phone: "0501234567", Country: country}
	if p, err = service.SubmitLead(ctx, "visitor-1", form); err != nil || p.View != domain.ViewResult {
		t.Fatalf("submit lead: view=%s err=%v", p.View, err)
	}
	if err := service.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := rows.all()
	if len(got) != 1 {
		t.Fatalf("expected one sheet row, got %d", len(got))
	}
	if got[0].Name != form.Name || got[0].Country != country || got[0].Score != p.Score {
		t.Fatalf("unexpected sheet row %+v", got[0])
	}

	// progress and content survive a process restart through redis
	restarted := newService()
	again, err := restarted.Current(ctx, "visitor-1")
	if err != nil {
		t.Fatalf("current after restart: %v", err)
	}
	if again.View != domain.ViewResult || again.Score != p.Score {
		t.Fatalf("expected persisted result, got %+v", again)
	}
	if n, err := redisClient.Exists(ctx, fmt.Sprintf("funnel:%s:content", funnel.ID)).Result(); err != nil || n != 1 {
		t.Fatalf("expected cached content in redis, got %d (%v)", n, err)
	}
}

type sheet struct {
	mu   sync.Mutex
	rows []domain.LeadRecord
}

func (s *sheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var rec domain.LeadRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.rows = append(s.rows, rec)
	s.mu.Unlock()
	w.Write([]byte(`{"result":"success"}`))
}

func (s *sheet) all() []domain.LeadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LeadRecord(nil), s.rows...)
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "funnel", "POSTGRES_PASSWORD": "funnelpass", "POSTGRES_DB": "funneldb"},
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
	dsn := fmt.Sprintf("postgres://funnel:funnelpass@%s:%s/funneldb?sslmode=disable", host, port.Port())
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

func seedFunnel(t *testing.T, ctx context.Context, dsn string, funnel domain.Funnel) {
	t.Helper()
	db := pgloader.OpenBun(dsn)
	defer db.Close()

	if _, err := pgloader.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := pgloader.SeedFunnel(ctx, db, funnel); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
