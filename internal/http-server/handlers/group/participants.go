package group

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"CrewChat/internal/lib/api/cont"
	"CrewChat/internal/lib/api/response"
)

type AddParticipantsRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1"`
}

// AddParticipants adds users to an existing group.
func AddParticipants(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.User(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		conversationID := chi.URLParam(r, "id")

		var req AddParticipantsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		if err := handler.AddParticipants(r.Context(), conversationID, user, req.UserIDs); err != nil {
			log.Error("Failed to add participants", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Failed to add participants"))
			return
		}

		render.JSON(w, r, response.OK())
	}
}

// RemoveParticipant removes a single user from a group.
func RemoveParticipant(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.User(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		conversationID := chi.URLParam(r, "id")
		userID := chi.URLParam(r, "userID")

		if err := handler.RemoveParticipant(r.Context(), conversationID, user, userID); err != nil {
			log.Error("Failed to remove participant", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Failed to remove participant"))
			return
		}

		render.JSON(w, r, response.OK())
	}
}
