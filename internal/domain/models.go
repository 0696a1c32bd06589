package domain

import "time"

// Status is the lifecycle phase of a quiz room.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// Question is a single timed multiple-choice question.
type Question struct {
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctAnswer"`
	TimerSeconds int      `json:"timer"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Complete reports whether the question is fully specified: four options,
// a correct index pointing at one of them, and a positive timer.
func (q Question) Complete() bool {
	return q.Text != "" &&
		len(q.Options) == OptionCount &&
		q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options) &&
		q.TimerSeconds > 0
}

// Quiz is an immutable quiz definition keyed by its room code. The live
// status is owned by the session; projections merge it back in.
type Quiz struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	HostName  string     `json:"hostName"`
	CreatedAt time.Time  `json:"createdAt"`
}

// SafeQuestion is the player-facing projection of a question: no answer key.
type SafeQuestion struct {
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	TimerSeconds int      `json:"timer"`
}

// SafeQuiz is the player-facing projection of a quiz.
type SafeQuiz struct {
	ID        string         `json:"id"`
	Code      string         `json:"code"`
	Title     string         `json:"title"`
	Questions []SafeQuestion `json:"questions"`
	HostName  string         `json:"hostName"`
	Status    Status         `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Safe strips answer keys and explanations for player consumption.
func (q Quiz) Safe(status Status) SafeQuiz {
	questions := make([]SafeQuestion, len(q.Questions))
	for i, question := range q.Questions {
		questions[i] = SafeQuestion{
			Text:         question.Text,
			Options:      question.Options,
			TimerSeconds: question.TimerSeconds,
		}
	}
	return SafeQuiz{
		ID:        q.ID,
		Code:      q.Code,
		Title:     q.Title,
		Questions: questions,
		HostName:  q.HostName,
		Status:    status,
		CreatedAt: q.CreatedAt,
	}
}

// FullQuiz is the host-facing projection: answer keys included.
type FullQuiz struct {
	Quiz
	Status Status `json:"status"`
}

// Player is one roster entry with cumulative stats.
type Player struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalTime      int    `json:"totalTime"`
	JoinedAt       int64  `json:"joinedAt"`
}

// Answer is one scored submission; at most one per player per question.
type Answer struct {
	AnswerIndex int  `json:"answerIndex"`
	IsCorrect   bool `json:"isCorrect"`
	Points      int  `json:"points"`
	TimeTaken   int  `json:"timeTaken"`
}

// AnswerResult is the private feedback sent to the submitting player.
type AnswerResult struct {
	IsCorrect     bool `json:"isCorrect"`
	CorrectAnswer int  `json:"correctAnswer"`
	Points        int  `json:"points"`
	TotalScore    int  `json:"totalScore"`
}

// LeaderboardRow is the live ranking view broadcast after each score.
type LeaderboardRow struct {
	Rank           int    `json:"rank"`
	Name           string `json:"name"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
}

// FinalLeaderboardRow additionally carries the question total for the
// "X of Y correct" summary shown at quiz end.
type FinalLeaderboardRow struct {
	Rank           int    `json:"rank"`
	Name           string `json:"name"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalQuestions int    `json:"totalQuestions"`
}

// QuizResult is the archived outcome of one ended quiz.
type QuizResult struct {
	QuizID      string                `json:"quizId"`
	Code        string                `json:"code"`
	Title       string                `json:"title"`
	Leaderboard []FinalLeaderboardRow `json:"leaderboard"`
	EndedAt     time.Time             `json:"endedAt"`
}
