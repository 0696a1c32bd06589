package domain

import "errors"

var (
	// ErrQuizNotFound indicates an unknown room code.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizEnded is returned for actions against a terminated quiz.
	ErrQuizEnded = errors.New("quiz has ended")
	// ErrAlreadyAnswered rejects a second submission for the same question.
	ErrAlreadyAnswered = errors.New("answer already submitted")
	// ErrUnauthorized rejects a host-only command from a non-host connection.
	ErrUnauthorized = errors.New("not authorized for this room")
	// ErrValidation is returned when quiz creation has no complete questions.
	ErrValidation = errors.New("quiz needs at least one complete question")
	// ErrPlayerNotFound indicates an action by a connection with no roster entry.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrStaleSubmission rejects an answer for a question the room has moved past.
	ErrStaleSubmission = errors.New("answer is for a stale question")
	// ErrNotStarted is returned when a question-scoped action arrives before start.
	ErrNotStarted = errors.New("quiz has not started")
)
