package domain

// Event kinds carried over the realtime channel, server to client.
const (
	EventPlayerJoined   = "player:joined"
	EventPlayerList     = "player:list"
	EventPlayerKicked   = "player:kicked"
	EventQuizStarted    = "quiz:started"
	EventQuestionShow   = "question:show"
	EventQuizPaused     = "quiz:paused"
	EventQuizResumed    = "quiz:resumed"
	EventQuizEnded      = "quiz:ended"
	EventQuizReset      = "quiz:reset"
	EventAnswerResult   = "answer:result"
	EventAnswerCount    = "answer:count"
	EventAnswerRevealed = "answer:revealed"
	EventLeaderboard    = "leaderboard:update"
	EventHostJoined     = "host:joined"
	EventError          = "error"
)

// Event is one realtime message fanned out by the broadcast gateway.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// PlayerWelcome is the private payload confirming a player join.
type PlayerWelcome struct {
	QuizTitle   string `json:"quizTitle"`
	Status      Status `json:"status"`
	PlayerCount int    `json:"playerCount"`
}

// QuestionShow is the payload broadcast when a question becomes current.
type QuestionShow struct {
	QuestionIndex  int      `json:"questionIndex"`
	TotalQuestions int      `json:"totalQuestions"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	Timer          int      `json:"timer"`
}

// RoleKind tags what a connection is attached as.
type RoleKind int

const (
	RoleUnattached RoleKind = iota
	RoleHost
	RolePlayer
)

// Role is the explicit per-connection authorization context. Host-only
// handlers check it instead of trusting anything client-supplied.
type Role struct {
	Kind     RoleKind
	Code     string
	PlayerID string
}

// IsHost reports whether the role is the host of the given room.
func (r Role) IsHost(code string) bool {
	return r.Kind == RoleHost && r.Code == code
}

// IsPlayer reports whether the role is a player in the given room.
func (r Role) IsPlayer(code string) bool {
	return r.Kind == RolePlayer && r.Code == code
}
