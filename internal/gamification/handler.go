package gamification

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/quizgenius/backend/internal/models"
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

// GetAchievements returns the caller's achievement list, seeding the
// defaults on first access.
func (h *Handler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	uid, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	st := h.stores.ForUser(strconv.FormatInt(uid, 10))
	achievements, err := st.LoadAchievements()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load achievements"})
		return
	}
	if len(achievements) == 0 {
		achievements = DefaultAchievements()
	}
	writeJSON(w, http.StatusOK, achievements)
}

// GetStreak returns the caller's current daily streak.
func (h *Handler) GetStreak(w http.ResponseWriter, r *http.Request) {
	uid, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	st := h.stores.ForUser(strconv.FormatInt(uid, 10))
	streak, err := st.LoadStreak()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load streak"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"streak": streak})
}

// GetLeaderboard returns the top entries for one topic. No auth required.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	topicID := mux.Vars(r)["topicId"]

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 || n > maxLeaderboardEntries {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	entries := h.service.Leaderboard(topicID, limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topic_id": topicID,
		"entries":  entries,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
