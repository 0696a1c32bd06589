package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizdeck/internal/domain"
)

// SessionRepository abstracts how live sessions are stored (in-memory, with
// an optional Redis liveness layer).
type SessionRepository interface {
	Create(code string) *Session
	Get(code string) (*Session, bool)
}

// CatalogRepository stores quiz definitions keyed by room code.
type CatalogRepository interface {
	Put(ctx context.Context, quiz domain.Quiz) error
	Get(ctx context.Context, code string) (domain.Quiz, error)
}

// ResultArchiver persists final leaderboards for ended quizzes.
type ResultArchiver interface {
	Archive(ctx context.Context, result domain.QuizResult) error
}

// GameService drives the live quiz use cases: membership, progression,
// scoring, and ranking. All per-room mutation is serialized by the session.
type GameService struct {
	catalog  CatalogRepository
	sessions SessionRepository
	archive  ResultArchiver
}

func NewGameService(catalog CatalogRepository, sessions SessionRepository, archive ResultArchiver) *GameService {
	return &GameService{
		catalog:  catalog,
		sessions: sessions,
		archive:  archive,
	}
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 6

func generateCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// CreateQuiz validates and stores a quiz definition and creates its session
// atomically. Incomplete questions are dropped; a quiz with no complete
// question is rejected.
func (g *GameService) CreateQuiz(ctx context.Context, title string, questions []domain.Question, hostName string) (domain.Quiz, error) {
	if title == "" {
		title = "Untitled Quiz"
	}
	if hostName == "" {
		hostName = "Host"
	}

	complete := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.Complete() {
			complete = append(complete, q)
		}
	}
	if len(complete) == 0 {
		return domain.Quiz{}, domain.ErrValidation
	}

	quiz := domain.Quiz{
		ID:        uuid.NewString(),
		Title:     title,
		Questions: complete,
		HostName:  hostName,
		CreatedAt: time.Now(),
	}

	// Codes are random and short; retry on the rare collision with a live
	// room rather than orphaning its session.
	for attempt := 0; attempt < 5; attempt++ {
		code := generateCode()
		if _, err := g.catalog.Get(ctx, code); err == nil {
			continue
		}
		quiz.Code = code
		if err := g.catalog.Put(ctx, quiz); err != nil {
			return domain.Quiz{}, fmt.Errorf("store quiz: %w", err)
		}
		g.sessions.Create(code)
		return quiz, nil
	}
	return domain.Quiz{}, fmt.Errorf("could not allocate a room code")
}

// SafeQuizByCode returns the player projection (no answer keys).
func (g *GameService) SafeQuizByCode(ctx context.Context, code string) (domain.SafeQuiz, error) {
	quiz, session, err := g.room(ctx, code)
	if err != nil {
		return domain.SafeQuiz{}, err
	}
	return quiz.Safe(session.Status()), nil
}

// FullQuizByCode returns the host projection, answer keys included.
func (g *GameService) FullQuizByCode(ctx context.Context, code string) (domain.FullQuiz, error) {
	quiz, session, err := g.room(ctx, code)
	if err != nil {
		return domain.FullQuiz{}, err
	}
	return domain.FullQuiz{Quiz: quiz, Status: session.Status()}, nil
}

// JoinHost attaches a connection as the room's host and returns the full
// quiz plus the current roster. No roster entry is created for the host.
func (g *GameService) JoinHost(ctx context.Context, code string) (domain.FullQuiz, []domain.Player, error) {
	quiz, session, err := g.room(ctx, code)
	if err != nil {
		return domain.FullQuiz{}, nil, err
	}
	return domain.FullQuiz{Quiz: quiz, Status: session.Status()}, session.roster(), nil
}

// JoinPlayer adds a roster entry for the connection and broadcasts the
// updated roster. Joining an ended quiz is rejected. If the quiz is already
// active the current question is returned for a private catch-up send.
func (g *GameService) JoinPlayer(ctx context.Context, code, playerID, name string) (domain.PlayerWelcome, *domain.QuestionShow, error) {
	quiz, session, err := g.room(ctx, code)
	if err != nil {
		return domain.PlayerWelcome{}, nil, err
	}
	if session.Status() == domain.StatusEnded {
		return domain.PlayerWelcome{}, nil, domain.ErrQuizEnded
	}

	welcome, catchup := session.join(playerID, name)
	welcome.QuizTitle = quiz.Title
	if catchup != nil {
		question := quiz.Questions[catchup.QuestionIndex]
		catchup.TotalQuestions = len(quiz.Questions)
		catchup.Question = question.Text
		catchup.Options = question.Options
		catchup.Timer = question.TimerSeconds
	}
	return welcome, catchup, nil
}

// Subscribe registers a connection for the room's event stream. The caller
// must invoke the returned cancel function to avoid leaks.
func (g *GameService) Subscribe(ctx context.Context, code, connID string) (<-chan domain.Event, func(), error) {
	_, session, err := g.room(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe(connID)
	return ch, cancel, nil
}

// Start moves a waiting room to active and broadcasts the first question.
func (g *GameService) Start(ctx context.Context, code string, actor domain.Role) error {
	quiz, session, err := g.hostRoom(ctx, code, actor)
	if err != nil {
		return err
	}
	return session.start(quiz)
}

// Advance shows the next question, or ends the quiz past the last one.
func (g *GameService) Advance(ctx context.Context, code string, actor domain.Role) error {
	quiz, session, err := g.hostRoom(ctx, code, actor)
	if err != nil {
		return err
	}
	result, err := session.advance(quiz)
	if err != nil {
		return err
	}
	if result != nil {
		g.archiveResult(ctx, *result)
	}
	return nil
}

// Pause suspends an active room; the question and ledger are untouched.
func (g *GameService) Pause(ctx context.Context, code string, actor domain.Role) error {
	_, session, err := g.hostRoom(ctx, code, actor)
	if err != nil {
		return err
	}
	return session.pause()
}

// Resume returns a paused room to active.
func (g *GameService) Resume(ctx context.Context, code string, actor domain.Role) error {
	_, session, err := g.hostRoom(ctx, code, actor)
	if err != nil {
		return err
	}
	return session.resume()
}

// End terminates the quiz early and broadcasts the final leaderboard.
func (g *GameService) End(ctx context.Context, code string, actor domain.Role) error {
	quiz, session, err := g.hostRoom(ctx, code, actor)
	if err != nil {
		return err
	}
	result, err := session.end(quiz)
	if err != nil {
		return err
	}
	g.archiveResult(ctx, *result)
	return nil
}

// Reveal broadcasts the current question's answer key and explanation
// without altering session state.
func (g *GameService) Reveal(ctx context.Context, code string, actor domain.Role) error {
	quiz, session, err := g.hostRoom(ctx, code, actor)
	if err != nil {
		return err
	}
	return session.reveal(quiz)
}

// Reset returns the room to waiting and zeroes every player's stats while
// keeping the roster intact.
func (g *GameService) Reset(ctx context.Context, code string, actor domain.Role) error {
	_, session, err := g.hostRoom(ctx, code, actor)
	if err != nil {
		return err
	}
	session.reset()
	return nil
}

// Kick removes a player, notifies only that connection, and broadcasts the
// updated roster.
func (g *GameService) Kick(ctx context.Context, code string, actor domain.Role, playerID string) error {
	_, session, err := g.hostRoom(ctx, code, actor)
	if err != nil {
		return err
	}
	session.kick(playerID)
	return nil
}

// SubmitAnswer scores one submission against the room's current question.
// The result goes back to the submitter only; the room sees aggregate
// counts and the recomputed leaderboard.
func (g *GameService) SubmitAnswer(ctx context.Context, code string, actor domain.Role, questionIndex, answerIndex, timeRemaining int) (domain.AnswerResult, error) {
	if !actor.IsPlayer(strings.ToUpper(code)) {
		return domain.AnswerResult{}, domain.ErrUnauthorized
	}
	quiz, session, err := g.room(ctx, code)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	return session.submit(quiz, actor.PlayerID, questionIndex, answerIndex, timeRemaining)
}

// Leave handles a disconnect: players are removed from the roster, hosts
// leave the room state alone.
func (g *GameService) Leave(ctx context.Context, actor domain.Role) {
	if actor.Kind != domain.RolePlayer {
		return
	}
	session, ok := g.sessions.Get(strings.ToUpper(actor.Code))
	if !ok {
		return
	}
	session.leave(actor.PlayerID)
}

func (g *GameService) room(ctx context.Context, code string) (domain.Quiz, *Session, error) {
	code = strings.ToUpper(code)
	quiz, err := g.catalog.Get(ctx, code)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	session, ok := g.sessions.Get(code)
	if !ok {
		// Quiz definitions can outlive the process in the Redis mirror;
		// recreate the session lazily so the code is joinable again.
		session = g.sessions.Create(code)
	}
	return quiz, session, nil
}

func (g *GameService) hostRoom(ctx context.Context, code string, actor domain.Role) (domain.Quiz, *Session, error) {
	if !actor.IsHost(strings.ToUpper(code)) {
		return domain.Quiz{}, nil, domain.ErrUnauthorized
	}
	return g.room(ctx, code)
}

func (g *GameService) archiveResult(ctx context.Context, result domain.QuizResult) {
	if g.archive == nil {
		return
	}
	if err := g.archive.Archive(ctx, result); err != nil {
		log.Printf("archive result for %s: %v", result.Code, err)
	}
}
