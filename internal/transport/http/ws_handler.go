package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
)

// WSHandler attaches websocket connections to quiz rooms and translates
// between wire messages and the game use cases.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	QuizCode   string `json:"quizCode"`
	HostName   string `json:"hostName"`
	PlayerName string `json:"playerName"`
}

type commandPayload struct {
	QuizCode string `json:"quizCode"`
	PlayerID string `json:"playerId"`
}

type answerPayload struct {
	QuizCode      string `json:"quizCode"`
	QuestionIndex int    `json:"questionIndex"`
	AnswerIndex   int    `json:"answerIndex"`
	TimeRemaining int    `json:"timeRemaining"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var (
	errInvalidPayload     = errors.New("invalid message payload")
	errAlreadyAttached    = errors.New("connection already attached to a room")
	errUnsupportedMessage = errors.New("unsupported message type")
)

func roomCode(code string) string {
	return strings.ToUpper(code)
}

// ServeWS upgrades the request and runs the connection's message loop. Each
// connection carries an explicit role; host-only commands are checked in the
// service and rejections come back as error events to this connection only.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	role := domain.Role{Kind: domain.RoleUnattached}
	ctx := r.Context()

	send := make(chan domain.Event, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for event := range send {
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var cancel func()
	var forwardDone chan struct{}
	closeSignals := make(chan struct{})

	attach := func(code string) error {
		updates, cancelFn, err := h.service.Subscribe(ctx, code, connID)
		if err != nil {
			return err
		}
		cancel = cancelFn
		forwardDone = make(chan struct{})
		go func() {
			defer close(forwardDone)
			for {
				select {
				case event, ok := <-updates:
					if !ok {
						return
					}
					select {
					case send <- event:
					case <-closeSignals:
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
		return nil
	}

	detach := func() {
		if cancel != nil {
			cancel()
			<-forwardDone
			cancel = nil
		}
	}

	fail := func(err error) {
		send <- domain.Event{Type: domain.EventError, Payload: errorPayload{Message: err.Error()}}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(ctx, inbound, &role, connID, attach, detach, fail, send)
	}

	close(closeSignals)
	detach()
	h.service.Leave(ctx, role)
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, inbound inboundMessage, role *domain.Role, connID string, attach func(string) error, detach func(), fail func(error), send chan domain.Event) {
	switch inbound.Type {
	case "host:join":
		var payload joinPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizCode == "" {
			fail(errInvalidPayload)
			return
		}
		if role.Kind != domain.RoleUnattached {
			fail(errAlreadyAttached)
			return
		}
		full, roster, err := h.service.JoinHost(ctx, payload.QuizCode)
		if err != nil {
			fail(err)
			return
		}
		if err := attach(payload.QuizCode); err != nil {
			fail(err)
			return
		}
		*role = domain.Role{Kind: domain.RoleHost, Code: full.Code}
		send <- domain.Event{Type: domain.EventHostJoined, Payload: map[string]any{
			"quiz":    full,
			"players": roster,
		}}

	case "player:join":
		var payload joinPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizCode == "" {
			fail(errInvalidPayload)
			return
		}
		if role.Kind != domain.RoleUnattached {
			fail(errAlreadyAttached)
			return
		}
		// Subscribe before joining so the roster broadcast triggered by the
		// join reaches this connection as well.
		if err := attach(payload.QuizCode); err != nil {
			fail(err)
			return
		}
		welcome, catchup, err := h.service.JoinPlayer(ctx, payload.QuizCode, connID, payload.PlayerName)
		if err != nil {
			detach()
			fail(err)
			return
		}
		*role = domain.Role{Kind: domain.RolePlayer, Code: roomCode(payload.QuizCode), PlayerID: connID}
		send <- domain.Event{Type: domain.EventPlayerJoined, Payload: welcome}
		if catchup != nil {
			send <- domain.Event{Type: domain.EventQuestionShow, Payload: *catchup}
		}

	case "quiz:start", "question:next", "quiz:pause", "quiz:resume", "quiz:end", "answer:reveal", "quiz:reset":
		var payload commandPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizCode == "" {
			fail(errInvalidPayload)
			return
		}
		if err := h.hostCommand(ctx, inbound.Type, payload.QuizCode, *role); err != nil {
			fail(err)
		}

	case "player:kick":
		var payload commandPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizCode == "" {
			fail(errInvalidPayload)
			return
		}
		if err := h.service.Kick(ctx, payload.QuizCode, *role, payload.PlayerID); err != nil {
			fail(err)
		}

	case "answer:submit":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizCode == "" {
			fail(errInvalidPayload)
			return
		}
		result, err := h.service.SubmitAnswer(ctx, payload.QuizCode, *role, payload.QuestionIndex, payload.AnswerIndex, payload.TimeRemaining)
		if err != nil {
			fail(err)
			return
		}
		send <- domain.Event{Type: domain.EventAnswerResult, Payload: result}

	default:
		fail(errUnsupportedMessage)
	}
}

func (h *WSHandler) hostCommand(ctx context.Context, kind, code string, role domain.Role) error {
	switch kind {
	case "quiz:start":
		return h.service.Start(ctx, code, role)
	case "question:next":
		return h.service.Advance(ctx, code, role)
	case "quiz:pause":
		return h.service.Pause(ctx, code, role)
	case "quiz:resume":
		return h.service.Resume(ctx, code, role)
	case "quiz:end":
		return h.service.End(ctx, code, role)
	case "answer:reveal":
		return h.service.Reveal(ctx, code, role)
	case "quiz:reset":
		return h.service.Reset(ctx, code, role)
	}
	return errUnsupportedMessage
}
