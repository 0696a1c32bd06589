package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
)

// APIHandler serves the synchronous quiz create/lookup endpoints.
type APIHandler struct {
	service *app.GameService
}

func NewAPIHandler(service *app.GameService) *APIHandler {
	return &APIHandler{service: service}
}

// Register mounts the REST routes on the router.
func (h *APIHandler) Register(router *httprouter.Router) {
	router.POST("/api/quiz/create", h.createQuiz)
	router.GET("/api/quiz/:code", h.getQuiz)
	router.GET("/api/quiz/:code/full", h.getFullQuiz)
}

type createQuizRequest struct {
	Title     string            `json:"title"`
	Questions []domain.Question `json:"questions"`
	HostName  string            `json:"hostName"`
}

type createQuizResponse struct {
	Success bool        `json:"success"`
	Quiz    quizSummary `json:"quiz"`
}

type quizSummary struct {
	ID            string        `json:"id"`
	Code          string        `json:"code"`
	Title         string        `json:"title"`
	HostName      string        `json:"hostName"`
	Status        domain.Status `json:"status"`
	QuestionCount int           `json:"questionCount"`
}

func (h *APIHandler) createQuiz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quiz, err := h.service.CreateQuiz(r.Context(), req.Title, req.Questions, req.HostName)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("create quiz: %v", err)
		writeError(w, http.StatusInternalServerError, "could not create quiz")
		return
	}

	writeJSON(w, http.StatusOK, createQuizResponse{
		Success: true,
		Quiz: quizSummary{
			ID:            quiz.ID,
			Code:          quiz.Code,
			Title:         quiz.Title,
			HostName:      quiz.HostName,
			Status:        domain.StatusWaiting,
			QuestionCount: len(quiz.Questions),
		},
	})
}

func (h *APIHandler) getQuiz(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	quiz, err := h.service.SafeQuizByCode(r.Context(), params.ByName("code"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "quiz": quiz})
}

func (h *APIHandler) getFullQuiz(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	quiz, err := h.service.FullQuizByCode(r.Context(), params.ByName("code"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "quiz": quiz})
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrQuizNotFound) {
		writeError(w, http.StatusNotFound, "Quiz not found")
		return
	}
	log.Printf("quiz lookup: %v", err)
	writeError(w, http.StatusInternalServerError, "could not load quiz")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
