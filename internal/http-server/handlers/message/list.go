package message

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"CrewChat/internal/lib/api/cont"
	"CrewChat/internal/lib/api/response"
)

// List serves message pages. Without a cursor it returns the newest
// window; with before_at/before_seq it returns the strictly older page.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.User(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		conversationID := chi.URLParam(r, "id")

		var beforeAt time.Time
		var beforeSeq int64
		if raw := r.URL.Query().Get("before_at"); raw != "" {
			parsed, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Invalid before_at cursor"))
				return
			}
			beforeAt = parsed
			beforeSeq, _ = strconv.ParseInt(r.URL.Query().Get("before_seq"), 10, 64)
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		messages, err := handler.Messages(r.Context(), conversationID, user.UserID, beforeAt, beforeSeq, limit)
		if err != nil {
			log.Error("Failed to list messages", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Failed to list messages"))
			return
		}

		render.JSON(w, r, messages)
	}
}
