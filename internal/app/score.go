package app

import (
	"math"

	"quizdeck/internal/domain"
)

const (
	maxPoints = 1000
	minPoints = 100
)

// scoreAnswer grades one submission against the current question. The
// remaining time is client-reported (a documented trust boundary) but is
// clamped into [0, timer] so a hostile client cannot mint extra points or
// negative elapsed time.
func scoreAnswer(question domain.Question, answerIndex, timeRemaining int) domain.Answer {
	if timeRemaining < 0 {
		timeRemaining = 0
	}
	if timeRemaining > question.TimerSeconds {
		timeRemaining = question.TimerSeconds
	}

	correct := answerIndex == question.CorrectIndex
	points := 0
	if correct {
		points = int(math.Round(maxPoints * float64(timeRemaining) / float64(question.TimerSeconds)))
		if points < minPoints {
			points = minPoints
		}
	}

	return domain.Answer{
		AnswerIndex: answerIndex,
		IsCorrect:   correct,
		Points:      points,
		TimeTaken:   question.TimerSeconds - timeRemaining,
	}
}
