package conversation

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"CrewChat/internal/lib/api/cont"
	"CrewChat/internal/lib/api/response"
)

type StartRequest struct {
	TargetUserID string `json:"target_user_id" validate:"required"`
}

var validate = validator.New()

// Start ensures the 1:1 thread with the target user exists and returns it.
func Start(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.User(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		var req StartRequest
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

		conv, err := handler.StartDirect(r.Context(), user.UserID, req.TargetUserID)
		if err != nil {
			log.Error("Failed to start conversation", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Failed to start conversation"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conv)
	}
}
