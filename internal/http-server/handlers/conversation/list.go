package conversation

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"CrewChat/internal/lib/api/cont"
	"CrewChat/internal/lib/api/response"
)

// List returns the caller's reconciled conversation list. Live updates
// flow over the websocket; this endpoint serves the initial snapshot.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.User(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		entries, err := handler.Conversations(r.Context(), user.UserID)
		if err != nil {
			log.Error("Failed to list conversations", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Failed to list conversations"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}
