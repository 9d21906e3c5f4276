package entity

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxFileSize is the maximum allowed attachment size (2 MB).
const MaxFileSize = 2 << 20

// ErrFileTooLarge is returned when an uploaded attachment exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("file too large")

// FileTooLargeError wraps ErrFileTooLarge with details about the offending file.
func FileTooLargeError(filename string, size int64) error {
	return fmt.Errorf("%w: %q is %d bytes, limit is %d MB", ErrFileTooLarge, filename, size, MaxFileSize>>20)
}

// Attachment is a file attached to a Message. The URL is signed at
// read-time and not stored in MongoDB.
type Attachment struct {
	FileID   primitive.ObjectID `json:"fileId" bson:"file_id"`
	Name     string             `json:"name" bson:"name"`
	MIMEType string             `json:"type" bson:"mime_type"`
	Size     int64              `json:"size" bson:"size"`
	URL      string             `json:"url,omitempty" bson:"-"`
}

// FileMetadata holds GridFS metadata for an uploaded attachment.
type FileMetadata struct {
	MIMEType       string `bson:"mime_type"`
	ConversationID string `bson:"conversation_id"`
	UploaderID     string `bson:"uploader_id"`
}
