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
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
	"quizdeck/internal/infra/memory"
	"quizdeck/internal/infra/postgres"
	pgmigrations "quizdeck/internal/infra/postgres/migrations"
)

func TestEndedQuizIsArchivedEndToEnd(t *testing.T) {
	ctx := context.Background()

	pgURL, cleanup := startPostgres(t, ctx)
	defer cleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	archive := postgres.NewResultArchive(pool)
	service := app.NewGameService(memory.NewCatalog(), memory.NewSessionStore(), archive)

	quiz, err := service.CreateQuiz(ctx, "Integration", []domain.Question{
		{Text: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectIndex: 1, TimerSeconds: 20},
	}, "Dana")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	if _, _, err := service.JoinPlayer(ctx, quiz.Code, "p1", "Ann"); err != nil {
		t.Fatalf("join: %v", err)
	}
	host := domain.Role{Kind: domain.RoleHost, Code: quiz.Code}
	if err := service.Start(ctx, quiz.Code, host); err != nil {
		t.Fatalf("start: %v", err)
	}
	player := domain.Role{Kind: domain.RolePlayer, Code: quiz.Code, PlayerID: "p1"}
	if _, err := service.SubmitAnswer(ctx, quiz.Code, player, 0, 1, 20); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := service.End(ctx, quiz.Code, host); err != nil {
		t.Fatalf("end: %v", err)
	}

	var raw []byte
	err = pool.QueryRow(ctx, `SELECT leaderboard FROM quiz_results WHERE code=$1`, quiz.Code).Scan(&raw)
	if err != nil {
		t.Fatalf("read archived result: %v", err)
	}
	var rows []domain.FinalLeaderboardRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("unmarshal leaderboard: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Ann" || rows[0].Score != 1000 || rows[0].TotalQuestions != 1 {
		t.Fatalf("unexpected archived leaderboard %+v", rows)
	}
}

func applyMigrations(t *testing.T, ctx context.Context, pgURL string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgURL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("init migrator: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}
