package memory

import (
	"context"
	"strings"
	"sync"

	"quizdeck/internal/domain"
)

// Catalog is the in-memory quiz catalog: immutable definitions keyed by
// room code for the lifetime of the process.
type Catalog struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewCatalog() *Catalog {
	return &Catalog{quizzes: make(map[string]domain.Quiz)}
}

func (c *Catalog) Put(_ context.Context, quiz domain.Quiz) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quizzes[strings.ToUpper(quiz.Code)] = quiz
	return nil
}

func (c *Catalog) Get(_ context.Context, code string) (domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	quiz, ok := c.quizzes[strings.ToUpper(code)]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}
