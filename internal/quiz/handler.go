package quiz

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/quizgenius/backend/internal/analytics"
	"github.com/quizgenius/backend/internal/document"
	"github.com/quizgenius/backend/internal/models"
	"github.com/quizgenius/backend/internal/session"
	"github.com/quizgenius/backend/internal/store"
)

type Handler struct {
	service *Service
	stores  store.Factory
}

func NewHandler(service *Service, stores store.Factory) *Handler {
	return &Handler{service: service, stores: stores}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

// identity resolves the caller to a storage key and leaderboard profile.
// Unauthenticated callers share the anonymous bucket.
func (h *Handler) identity(r *http.Request) (string, models.Profile) {
	uid, ok := getUserID(r)
	if !ok {
		return "anonymous", models.Profile{Username: "guest"}
	}
	key := strconv.FormatInt(uid, 10)
	st := h.stores.ForUser(key)
	profile, found, err := st.LoadProfile()
	if err != nil || !found {
		profile = models.Profile{Username: "user-" + key}
	}
	return key, profile
}

// ── Quiz lifecycle ────────────────────────────────────────

type startTopicRequest struct {
	TopicID           string               `json:"topic_id"`
	AdditionalDetails string               `json:"additional_details,omitempty"`
	Settings          *models.QuizSettings `json:"settings,omitempty"`
}

func (h *Handler) StartFromTopic(w http.ResponseWriter, r *http.Request) {
	var req startTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.TopicID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "topic_id is required"})
		return
	}
	settings := normalizeSettings(req.Settings)
	if settings.Title == "" {
		settings.Title = topicName(req.TopicID) + " Quiz"
	}

	userID, profile := h.identity(r)
	sess, err := h.service.StartFromTopic(profile, userID, req.TopicID, req.AdditionalDetails, settings)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to start quiz"})
		return
	}
	writeJSON(w, http.StatusCreated, sessionView(sess))
}

func (h *Handler) StartFromDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "file is required"})
		return
	}
	defer file.Close()

	doc, err := document.Parse(file, header.Filename)
	if err != nil {
		if errors.Is(err, document.ErrUnsupportedDocument) {
			writeJSON(w, http.StatusUnsupportedMediaType, models.ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to read document"})
		return
	}

	var settings *models.QuizSettings
	if raw := r.FormValue("settings"); raw != "" {
		settings = &models.QuizSettings{}
		if err := json.Unmarshal([]byte(raw), settings); err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid settings"})
			return
		}
	}

	userID, profile := h.identity(r)
	sess, err := h.service.StartFromDocument(profile, userID, doc, normalizeSettings(settings))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to start quiz"})
		return
	}
	writeJSON(w, http.StatusCreated, sessionView(sess))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

func (h *Handler) GetCurrentQuestion(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}
	q, ok := sess.CurrentQuestion()
	if !ok {
		if sess.Streaming() {
			// Producer still running: the next question has not arrived yet.
			writeJSON(w, http.StatusAccepted, map[string]interface{}{
				"status": "generating",
			})
			return
		}
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No question available"})
		return
	}
	writeJSON(w, http.StatusOK, serveQuestion(q, sess.Settings()))
}

type answerRequest struct {
	Answer           models.AnswerValue `json:"answer"`
	TimeSpentSeconds float64            `json:"time_spent_seconds"`
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if len(req.Answer) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "answer is required"})
		return
	}

	ans, accepted, err := h.service.Answer(mux.Vars(r)["id"], req.Answer, req.TimeSpentSeconds)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}
	if !accepted {
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Question is not open for answering"})
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.Advance(id); err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}
	sess, err := h.service.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

func (h *Handler) CompleteQuiz(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.Complete(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	h.service.End(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// ── Sharing ───────────────────────────────────────────────

func (h *Handler) ShareResult(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}
	if sess.State() != session.StateCompleted {
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Quiz is not completed"})
		return
	}

	_, profile := h.identity(r)
	result := sess.Result()
	shareID, err := h.service.shares.Publish(profile.Username, result)
	if err != nil {
		log.Printf("[quiz] publishing result failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to share result"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"share_id": shareID})
}

func (h *Handler) GetSharedResult(w http.ResponseWriter, r *http.Request) {
	shared, err := h.service.shares.Fetch(mux.Vars(r)["shareId"])
	if err != nil {
		if errors.Is(err, ErrShareNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Shared result not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load shared result"})
		return
	}
	writeJSON(w, http.StatusOK, shared)
}

// ── Topics, history, stats ────────────────────────────────

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.DefaultTopics)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.identity(r)
	history, err := h.stores.ForUser(userID).LoadHistory()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load history"})
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.identity(r)
	st := h.stores.ForUser(userID)

	history, err := st.LoadHistory()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load history"})
		return
	}
	cards, err := st.LoadFlashCards()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load flashcards"})
		return
	}
	notes, err := st.LoadStudyNotes()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load study notes"})
		return
	}
	streak, err := st.LoadStreak()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load streak"})
		return
	}

	writeJSON(w, http.StatusOK, analytics.ComputeStats(history, len(cards), len(notes), streak))
}

// ── Study data ────────────────────────────────────────────

func (h *Handler) GetFlashCards(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.identity(r)
	cards, err := h.stores.ForUser(userID).LoadFlashCards()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load flashcards"})
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *Handler) PutFlashCards(w http.ResponseWriter, r *http.Request) {
	var cards []models.FlashCard
	if err := json.NewDecoder(r.Body).Decode(&cards); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	userID, _ := h.identity(r)
	if err := h.stores.ForUser(userID).SaveFlashCards(cards); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save flashcards"})
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *Handler) GetStudyNotes(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.identity(r)
	notes, err := h.stores.ForUser(userID).LoadStudyNotes()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load study notes"})
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) PutStudyNotes(w http.ResponseWriter, r *http.Request) {
	var notes []models.StudyNote
	if err := json.NewDecoder(r.Body).Decode(&notes); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	userID, _ := h.identity(r)
	if err := h.stores.ForUser(userID).SaveStudyNotes(notes); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save study notes"})
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.identity(r)
	prefs, found, err := h.stores.ForUser(userID).LoadPreferences()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load preferences"})
		return
	}
	if !found {
		prefs = models.Preferences{
			DefaultDifficulty:    models.DifficultyMedium,
			DefaultQuestionTypes: []models.QuestionType{models.TypeMultipleChoice},
		}
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	userID, _ := h.identity(r)
	if err := h.stores.ForUser(userID).SavePreferences(prefs); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save preferences"})
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// ── Views ─────────────────────────────────────────────────

// servedQuestion is the client-facing question shape. The correct answer and
// explanation are withheld outside study mode; they are revealed by the
// answer response instead.
type servedQuestion struct {
	ID            string             `json:"id"`
	Type          models.QuestionType `json:"type"`
	Text          string             `json:"text"`
	Options       []string           `json:"options,omitempty"`
	Hint          string             `json:"hint,omitempty"`
	Difficulty    models.Difficulty  `json:"difficulty"`
	CorrectAnswer models.AnswerValue `json:"correct_answer,omitempty"`
	Explanation   string             `json:"explanation,omitempty"`
}

func serveQuestion(q models.Question, settings models.QuizSettings) servedQuestion {
	sq := servedQuestion{
		ID:         q.ID,
		Type:       q.Type,
		Text:       q.Text,
		Options:    q.Options,
		Difficulty: q.Difficulty,
	}
	if settings.ShowHints {
		sq.Hint = q.Hint
	}
	if settings.StudyMode {
		sq.CorrectAnswer = q.CorrectAnswer
		sq.Explanation = q.Explanation
	}
	return sq
}

type sessionState struct {
	SessionID     string        `json:"session_id"`
	State         session.State `json:"state"`
	CurrentIndex  int           `json:"current_index"`
	QuestionCount int           `json:"question_count"`
	Streaming     bool          `json:"streaming"`
	Settings      models.QuizSettings `json:"settings"`
}

func sessionView(sess *session.Session) sessionState {
	return sessionState{
		SessionID:     sess.ID(),
		State:         sess.State(),
		CurrentIndex:  sess.CurrentIndex(),
		QuestionCount: sess.QuestionCount(),
		Streaming:     sess.Streaming(),
		Settings:      sess.Settings(),
	}
}

func normalizeSettings(s *models.QuizSettings) models.QuizSettings {
	if s == nil {
		return models.DefaultQuizSettings()
	}
	out := *s
	if out.NumQuestions <= 0 {
		out.NumQuestions = 5
	}
	if out.Difficulty == "" {
		out.Difficulty = models.DifficultyMedium
	}
	if len(out.QuestionTypes) == 0 {
		out.QuestionTypes = []models.QuestionType{models.TypeMultipleChoice}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
