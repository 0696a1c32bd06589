package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizdeck/internal/domain"
)

// ResultArchive persists final leaderboards of ended quizzes.
type ResultArchive struct {
	pool *pgxpool.Pool
}

func NewResultArchive(pool *pgxpool.Pool) *ResultArchive {
	return &ResultArchive{pool: pool}
}

func (a *ResultArchive) Archive(ctx context.Context, result domain.QuizResult) error {
	leaderboard, err := json.Marshal(result.Leaderboard)
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO quiz_results (quiz_id, code, title, leaderboard, ended_at) VALUES ($1, $2, $3, $4, $5)`,
		result.QuizID, result.Code, result.Title, leaderboard, result.EndedAt)
	if err != nil {
		return fmt.Errorf("insert quiz result: %w", err)
	}
	return nil
}
