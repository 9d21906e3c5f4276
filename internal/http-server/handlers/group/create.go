package group

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"CrewChat/internal/lib/api/cont"
	"CrewChat/internal/lib/api/response"
)

type CreateRequest struct {
	Name           string   `json:"name" validate:"required"`
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1"`
}

var validate = validator.New()

// Create creates a group conversation.
func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.User(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		var req CreateRequest
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

		conv, err := handler.CreateGroup(r.Context(), user, req.Name, req.ParticipantIDs)
		if err != nil {
			log.Error("Failed to create group", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Failed to create group"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conv)
	}
}
