package attachment

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"CrewChat/internal/lib/api/response"
)

// Download streams an attachment addressed by a signed, expiring URL. The
// signature is the authorization; no bearer token is required.
func Download(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileID := chi.URLParam(r, "id")
		expires := r.URL.Query().Get("expires")
		sig := r.URL.Query().Get("sig")

		filename, mimeType, reader, err := handler.OpenAttachment(fileID, expires, sig)
		if err != nil {
			log.Warn("Attachment download rejected", slog.Any("error", err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Attachment not available"))
			return
		}
		defer reader.Close()

		if mimeType != "" {
			w.Header().Set("Content-Type", mimeType)
		}
		w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
		if _, err := io.Copy(w, reader); err != nil {
			log.Warn("Attachment stream interrupted", slog.Any("error", err))
		}
	}
}
