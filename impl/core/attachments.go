package core

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"CrewChat/entity"
	"CrewChat/internal/lib/fileurl"
)

// UploadAttachment stores a file in the blob store and returns the
// attachment record with its signed download URL. Only participants of
// the conversation may upload into it.
func (c *Core) UploadAttachment(userID, conversationID, filename, mimeType string, size int64, file io.Reader) (*entity.Attachment, error) {
	if size > entity.MaxFileSize {
		return nil, entity.FileTooLargeError(filename, size)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conv, err := c.repository.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, entity.NotFoundError("conversation %s", conversationID)
	}
	if !conv.HasParticipant(userID) {
		return nil, entity.PermissionError("user %s is not a participant of %s", userID, conversationID)
	}

	fileID, stored, err := c.repository.UploadFile(filename, io.LimitReader(file, entity.MaxFileSize), entity.FileMetadata{
		MIMEType:       mimeType,
		ConversationID: conversationID,
		UploaderID:     userID,
	})
	if err != nil {
		return nil, err
	}

	att := &entity.Attachment{
		FileID:   fileID,
		Name:     filename,
		MIMEType: mimeType,
		Size:     stored,
	}
	if c.fileSecret != "" {
		att.URL = fileurl.SignURL(fileID.Hex(), c.fileSecret, c.fileTTL)
	}
	return att, nil
}

// OpenAttachment verifies the signed URL and opens the file for
// streaming.
func (c *Core) OpenAttachment(fileID, expires, sig string) (string, string, io.ReadCloser, error) {
	if !fileurl.Verify(fileID, expires, sig, c.fileSecret) {
		return "", "", nil, entity.PermissionError("invalid or expired attachment url")
	}

	oid, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return "", "", nil, entity.ValidationError("malformed file id")
	}

	filename, meta, reader, err := c.repository.DownloadFile(oid)
	if err != nil {
		return "", "", nil, err
	}
	return filename, meta.MIMEType, reader, nil
}
