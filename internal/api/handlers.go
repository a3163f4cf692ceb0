package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"transport": s.transport}))
}

// userIDParam reads {userID}; on failure it writes a 400 and returns false.
func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		slog.Warn("Server: invalid user id", "userID", raw, "path", r.URL.Path)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid user id"))
		return 0, false
	}
	return id, true
}

func (s *Server) userAchievementsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	list, err := s.st.ListAchievements(r.Context(), userID)
	if err != nil {
		slog.Error("Server.userAchievementsHandler: failed to list achievements", "error", err, "userID", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch achievements"))
		return
	}
	if list == nil {
		list = []models.Achievement{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(list))
}

func (s *Server) userTasksHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	tasks, err := s.st.ListTasks(r.Context(), userID)
	if err != nil {
		slog.Error("Server.userTasksHandler: failed to list tasks", "error", err, "userID", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch tasks"))
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(tasks))
}

func (s *Server) userSummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	summary, err := s.st.GetSummary(r.Context(), userID)
	if err != nil {
		slog.Error("Server.userSummaryHandler: failed to build summary", "error", err, "userID", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch summary"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(summary))
}
