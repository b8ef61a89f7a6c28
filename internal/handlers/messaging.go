package handlers

import (
	"context"
	"encoding/base64"

	"github.com/chatapp-labs/chatapp-backend/internal/metrics"
	"github.com/chatapp-labs/chatapp-backend/internal/models"
	"github.com/chatapp-labs/chatapp-backend/internal/protocol"
)

// text echoes the frame back to the sender, forwards it to the receiver if
// online, appends the record to the chat log and bumps the receiver's unread
// counter. Fan-out may reach the receiver before the append lands; persistence
// is not an ack.
func (r *Router) text(ctx context.Context, c Client, p protocol.TextPayload) {
	frame := protocol.TextFrame{
		Type:    "text",
		Message: p.Message,
		ChatID:  p.ChatID,
		Time:    p.Time,
	}
	r.send(c, frame)
	r.sendToPhone(p.Receiver, frame)

	r.persistChatMessage(ctx, p.ChatID, p.Receiver, models.ChatMessage{
		Sender:  c.Phone(),
		Time:    p.Time,
		Message: p.Message,
	})
}

// file uploads the decoded payload to the blob store, then proceeds as text
// with a file_url record. A failed upload aborts before anything is persisted.
func (r *Router) file(ctx context.Context, c Client, p protocol.FilePayload) {
	url, ok := r.uploadMedia(ctx, p.FileName, p.FileData)
	if !ok {
		return
	}

	frame := protocol.MediaFrame{
		Type:    "file",
		ChatID:  p.ChatID,
		FileURL: url,
		Time:    p.Time,
	}
	r.send(c, frame)
	r.sendToPhone(p.Receiver, frame)

	r.persistChatMessage(ctx, p.ChatID, p.Receiver, models.ChatMessage{
		Sender:  c.Phone(),
		Time:    p.Time,
		FileURL: url,
	})
}

// audio mirrors file with an audio_url record.
func (r *Router) audio(ctx context.Context, c Client, p protocol.AudioPayload) {
	url, ok := r.uploadMedia(ctx, p.AudioName, p.AudioData)
	if !ok {
		return
	}

	frame := protocol.MediaFrame{
		Type:     "audio",
		ChatID:   p.ChatID,
		AudioURL: url,
		Time:     p.Time,
	}
	r.send(c, frame)
	r.sendToPhone(p.Receiver, frame)

	r.persistChatMessage(ctx, p.ChatID, p.Receiver, models.ChatMessage{
		Sender:   c.Phone(),
		Time:     p.Time,
		AudioURL: url,
	})
}

// persistChatMessage appends the record and bumps the receiver's unread
// counter for the chat.
func (r *Router) persistChatMessage(ctx context.Context, chatID int32, receiver int64, msg models.ChatMessage) {
	if err := r.store.AppendChatMessage(ctx, chatID, msg); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("chat", chatID).Msg("failed to append chat message")
	}

	if err := r.store.IncrementUnread(ctx, receiver, chatID); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", receiver).Int32("chat", chatID).
			Msg("failed to increment unread counter")
	}
}

// uploadMedia decodes a base64 payload and stores it under name. On any
// failure the handler is expected to abort without persisting a record.
func (r *Router) uploadMedia(ctx context.Context, name, data string) (string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		r.log.Warn().Err(err).Str("name", name).Msg("dropping media frame with invalid base64 payload")
		return "", false
	}

	url, err := r.blob.Put(ctx, name, decoded)
	if err != nil {
		metrics.BlobErrors.Inc()
		r.log.Error().Err(err).Str("name", name).Msg("failed to upload media")
		return "", false
	}

	return url, true
}
