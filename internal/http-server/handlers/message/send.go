package message

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"CrewChat/entity"
	"CrewChat/internal/lib/api/cont"
	"CrewChat/internal/lib/api/response"
)

type SendRequest struct {
	Text        string              `json:"text" validate:"required_without=Attachments"`
	Attachments []entity.Attachment `json:"attachments" validate:"omitempty,dive"`
}

var validate = validator.New()

// Send appends a message to the conversation.
func Send(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.User(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		conversationID := chi.URLParam(r, "id")

		var req SendRequest
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

		msg, err := handler.Send(r.Context(), conversationID, user.UserID, req.Text, req.Attachments)
		if err != nil {
			log.Error("Failed to send message", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Failed to send message"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(msg)
	}
}
