package attachment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"CrewChat/entity"
	"CrewChat/internal/lib/api/cont"
	"CrewChat/internal/lib/api/response"
)

// Upload accepts a multipart attachment bound for a conversation and
// returns the stored attachment with its signed URL.
func Upload(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.User(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, entity.MaxFileSize+4096)
		if err := r.ParseMultipartForm(entity.MaxFileSize); err != nil {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("File too large"))
			return
		}

		conversationID := r.FormValue("conversation_id")
		if conversationID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("conversation_id required"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("file field required"))
			return
		}
		defer file.Close()

		if header.Size > entity.MaxFileSize {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error(entity.FileTooLargeError(header.Filename, header.Size).Error()))
			return
		}

		att, err := handler.UploadAttachment(
			user.UserID,
			conversationID,
			header.Filename,
			header.Header.Get("Content-Type"),
			header.Size,
			file,
		)
		if err != nil {
			log.Error("Failed to upload attachment", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Failed to upload attachment"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(att)
	}
}
