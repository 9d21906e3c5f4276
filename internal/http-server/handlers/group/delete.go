package group

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"CrewChat/internal/lib/api/cont"
	"CrewChat/internal/lib/api/response"
)

// Delete removes a conversation and its message log.
func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.User(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		conversationID := chi.URLParam(r, "id")

		if err := handler.DeleteConversation(r.Context(), conversationID, user); err != nil {
			log.Error("Failed to delete conversation", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Failed to delete conversation"))
			return
		}

		render.JSON(w, r, response.OK())
	}
}
