package conversation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"CrewChat/internal/lib/api/cont"
	"CrewChat/internal/lib/api/response"
)

// MarkRead zeroes the caller's unread counter for the conversation.
func MarkRead(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.User(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		conversationID := chi.URLParam(r, "id")
		if conversationID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Conversation id required"))
			return
		}

		if err := handler.MarkRead(r.Context(), conversationID, user.UserID); err != nil {
			log.Error("Failed to mark read", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Failed to mark read"))
			return
		}

		render.JSON(w, r, response.OK())
	}
}
