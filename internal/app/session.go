package app

import (
	"sync"
	"time"

	"quizdeck/internal/domain"
)

// Session is the live, mutable state for one room: roster, question pointer,
// per-question answer ledger, and the subscriber channels for fan-out. Every
// operation for a room runs under the session mutex, so message handling for
// one code is serialized while rooms stay independent.
type Session struct {
	code string
	now  func() time.Time

	mu              sync.Mutex
	status          domain.Status
	players         map[string]*domain.Player
	currentQuestion int
	answers         map[string]domain.Answer
	startTime       time.Time
	subscribers     map[string]chan domain.Event
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(code string) *Session {
	return newSessionWithClock(code, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(code string, now func() time.Time) *Session {
	return newSessionWithClock(code, now)
}

func newSessionWithClock(code string, now func() time.Time) *Session {
	return &Session{
		code:            code,
		now:             now,
		status:          domain.StatusWaiting,
		players:         make(map[string]*domain.Player),
		currentQuestion: -1,
		answers:         make(map[string]domain.Answer),
		subscribers:     make(map[string]chan domain.Event),
	}
}

// Status returns the room's current lifecycle phase.
func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IsEmpty reports whether the session has no players and no subscribers.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players) == 0 && len(s.subscribers) == 0
}

// subscribe registers a connection for room events. The caller must invoke
// the returned cancel function to avoid leaks.
func (s *Session) subscribe(connID string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	s.mu.Lock()
	if old, ok := s.subscribers[connID]; ok {
		close(old)
	}
	s.subscribers[connID] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if existing, ok := s.subscribers[connID]; ok && existing == ch {
			delete(s.subscribers, connID)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) join(playerID, name string) (domain.PlayerWelcome, *domain.QuestionShow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[playerID]; !ok {
		s.players[playerID] = &domain.Player{
			ID:       playerID,
			Name:     name,
			JoinedAt: s.now().UnixMilli(),
		}
	}
	s.broadcastRosterLocked()

	welcome := domain.PlayerWelcome{
		Status:      s.status,
		PlayerCount: len(s.players),
	}
	return welcome, s.catchupLocked()
}

// catchupLocked returns the current question for late joiners, nil otherwise.
// The caller fills in question content; the session only knows the pointer.
func (s *Session) catchupLocked() *domain.QuestionShow {
	if s.status != domain.StatusActive || s.currentQuestion < 0 {
		return nil
	}
	return &domain.QuestionShow{QuestionIndex: s.currentQuestion}
}

func (s *Session) roster() []domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rosterLocked(s.players)
}

func (s *Session) start(quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusEnded:
		return domain.ErrQuizEnded
	case domain.StatusActive, domain.StatusPaused:
		return nil // already running
	}

	s.status = domain.StatusActive
	s.currentQuestion = 0
	s.answers = make(map[string]domain.Answer)
	s.startTime = s.now()

	s.broadcastLocked(domain.Event{
		Type:    domain.EventQuizStarted,
		Payload: map[string]int{"totalQuestions": len(quiz.Questions)},
	})
	s.broadcastQuestionLocked(quiz)
	return nil
}

func (s *Session) advance(quiz domain.Quiz) (*domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusEnded:
		return nil, domain.ErrQuizEnded
	case domain.StatusWaiting:
		return nil, domain.ErrNotStarted
	}

	next := s.currentQuestion + 1
	if next >= len(quiz.Questions) {
		return s.finishLocked(quiz), nil
	}

	s.currentQuestion = next
	s.answers = make(map[string]domain.Answer)
	s.broadcastQuestionLocked(quiz)
	return nil, nil
}

func (s *Session) pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusEnded {
		return domain.ErrQuizEnded
	}
	if s.status != domain.StatusActive {
		return nil
	}
	s.status = domain.StatusPaused
	s.broadcastLocked(domain.Event{Type: domain.EventQuizPaused})
	return nil
}

func (s *Session) resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusEnded {
		return domain.ErrQuizEnded
	}
	if s.status != domain.StatusPaused {
		return nil
	}
	s.status = domain.StatusActive
	s.broadcastLocked(domain.Event{Type: domain.EventQuizResumed})
	return nil
}

func (s *Session) end(quiz domain.Quiz) (*domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusEnded {
		return nil, domain.ErrQuizEnded
	}
	return s.finishLocked(quiz), nil
}

// finishLocked flips the room to its terminal state and broadcasts the final
// leaderboard. Ended is terminal: every mutating entry point checks status
// first, so nothing moves the room afterwards except reset.
func (s *Session) finishLocked(quiz domain.Quiz) *domain.QuizResult {
	s.status = domain.StatusEnded
	final := rankFinal(s.players, len(quiz.Questions))

	s.broadcastLocked(domain.Event{
		Type:    domain.EventQuizEnded,
		Payload: map[string]any{"leaderboard": final},
	})

	return &domain.QuizResult{
		QuizID:      quiz.ID,
		Code:        quiz.Code,
		Title:       quiz.Title,
		Leaderboard: final,
		EndedAt:     s.now(),
	}
}

func (s *Session) reveal(quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusEnded {
		return domain.ErrQuizEnded
	}
	if s.currentQuestion < 0 {
		return domain.ErrNotStarted
	}

	question := quiz.Questions[s.currentQuestion]
	s.broadcastLocked(domain.Event{
		Type: domain.EventAnswerRevealed,
		Payload: map[string]any{
			"correctAnswer": question.CorrectIndex,
			"explanation":   question.Explanation,
		},
	})
	return nil
}

func (s *Session) submit(quiz domain.Quiz, playerID string, questionIndex, answerIndex, timeRemaining int) (domain.AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusEnded {
		return domain.AnswerResult{}, domain.ErrQuizEnded
	}
	if s.currentQuestion < 0 {
		return domain.AnswerResult{}, domain.ErrNotStarted
	}
	player, ok := s.players[playerID]
	if !ok {
		return domain.AnswerResult{}, domain.ErrPlayerNotFound
	}
	if questionIndex != s.currentQuestion {
		return domain.AnswerResult{}, domain.ErrStaleSubmission
	}
	if _, answered := s.answers[playerID]; answered {
		return domain.AnswerResult{}, domain.ErrAlreadyAnswered
	}

	question := quiz.Questions[s.currentQuestion]
	answer := scoreAnswer(question, answerIndex, timeRemaining)

	if answer.IsCorrect {
		player.Score += answer.Points
		player.CorrectAnswers++
	}
	player.TotalTime += answer.TimeTaken
	s.answers[playerID] = answer

	s.broadcastLocked(domain.Event{
		Type: domain.EventAnswerCount,
		Payload: map[string]int{
			"answered": len(s.answers),
			"total":    len(s.players),
		},
	})
	s.broadcastLocked(domain.Event{
		Type:    domain.EventLeaderboard,
		Payload: map[string]any{"leaderboard": rankPlayers(s.players)},
	})

	return domain.AnswerResult{
		IsCorrect:     answer.IsCorrect,
		CorrectAnswer: question.CorrectIndex,
		Points:        answer.Points,
		TotalScore:    player.Score,
	}, nil
}

func (s *Session) kick(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.players, playerID)
	delete(s.answers, playerID)
	s.unicastLocked(playerID, domain.Event{Type: domain.EventPlayerKicked})
	s.broadcastRosterLocked()
}

func (s *Session) reset() []domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = domain.StatusWaiting
	s.currentQuestion = -1
	s.answers = make(map[string]domain.Answer)
	for _, player := range s.players {
		player.Score = 0
		player.CorrectAnswers = 0
		player.TotalTime = 0
	}

	roster := rosterLocked(s.players)
	s.broadcastLocked(domain.Event{
		Type:    domain.EventQuizReset,
		Payload: map[string]any{"players": roster},
	})
	return roster
}

// leave handles a player disconnect. Host disconnects leave the room alone.
func (s *Session) leave(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[playerID]; !ok {
		return
	}
	delete(s.players, playerID)
	delete(s.answers, playerID)
	s.broadcastRosterLocked()
}

func (s *Session) broadcastQuestionLocked(quiz domain.Quiz) {
	question := quiz.Questions[s.currentQuestion]
	s.broadcastLocked(domain.Event{
		Type: domain.EventQuestionShow,
		Payload: domain.QuestionShow{
			QuestionIndex:  s.currentQuestion,
			TotalQuestions: len(quiz.Questions),
			Question:       question.Text,
			Options:        question.Options,
			Timer:          question.TimerSeconds,
		},
	})
}

func (s *Session) broadcastRosterLocked() {
	s.broadcastLocked(domain.Event{
		Type:    domain.EventPlayerList,
		Payload: map[string]any{"players": rosterLocked(s.players)},
	})
}

// broadcastLocked fans an event out to every subscriber without blocking;
// a full channel drops its oldest pending event first.
func (s *Session) broadcastLocked(event domain.Event) {
	for _, ch := range s.subscribers {
		sendOrDropOldest(ch, event)
	}
}

func (s *Session) unicastLocked(connID string, event domain.Event) {
	if ch, ok := s.subscribers[connID]; ok {
		sendOrDropOldest(ch, event)
	}
}

func sendOrDropOldest(ch chan domain.Event, event domain.Event) {
	select {
	case ch <- event:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}
