package attachment

import (
	"io"

	"CrewChat/entity"
)

// Core is the application surface the attachment handlers depend on.
type Core interface {
	// UploadAttachment stores the file and returns the attachment record
	// with a signed, expiring download URL.
	UploadAttachment(userID, conversationID, filename, mimeType string, size int64, file io.Reader) (*entity.Attachment, error)
	// OpenAttachment verifies the signed URL parameters and opens the file
	// for streaming. The caller must close the reader.
	OpenAttachment(fileID, expires, sig string) (string, string, io.ReadCloser, error)
}
