package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/chatapp-labs/chatapp-backend/internal/metrics"
	"github.com/chatapp-labs/chatapp-backend/internal/models"
	"github.com/chatapp-labs/chatapp-backend/internal/protocol"
	"github.com/chatapp-labs/chatapp-backend/internal/store"
)

func contactInfoOf(acc *models.Account) models.ContactInfo {
	return models.ContactInfo{
		PhoneNumber: acc.PhoneNumber,
		FirstName:   acc.FirstName,
		LastName:    acc.LastName,
		Status:      acc.Status,
		ImageURL:    acc.ImageURL,
	}
}

// lookupFriend starts a 1:1 conversation: a fresh chat document with one
// server-authored message, symmetric contact entries on both accounts, an
// added_you push to the target if online, and a succeeded reply to the sender.
func (r *Router) lookupFriend(ctx context.Context, c Client, p protocol.LookupFriendRequest) {
	requester := c.Phone()

	target, err := r.store.FindAccount(ctx, p.PhoneNumber)
	if err != nil {
		if err != store.ErrNotFound {
			metrics.StoreErrors.Inc()
			r.log.Error().Err(err).Int64("phone", p.PhoneNumber).Msg("lookup_friend find failed")
		}
		r.send(c, protocol.LookupFriendReply{
			Type:    "lookup_friend",
			Status:  "failed",
			Message: "The Account: " + strconv.FormatInt(p.PhoneNumber, 10) + " doesn't exist in our Database",
		})
		return
	}

	firstMessage := models.ChatMessage{
		Message: "Server: New Conversation",
		Time:    time.Now().Format("15:04"),
	}
	chatID, err := r.store.CreateChat(ctx, firstMessage)
	if err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Msg("failed to create chat")
		r.send(c, protocol.LookupFriendReply{
			Type:    "lookup_friend",
			Status:  "failed",
			Message: "Failed to start the conversation, try again",
		})
		return
	}

	chatMessages := []models.ChatMessage{firstMessage}

	if requester != p.PhoneNumber {
		if err := r.store.PushContact(ctx, p.PhoneNumber, models.ContactRef{
			ContactID:      requester,
			ChatID:         chatID,
			UnreadMessages: 1,
		}); err != nil {
			metrics.StoreErrors.Inc()
			r.log.Error().Err(err).Int64("phone", p.PhoneNumber).Msg("failed to push contact entry")
		}

		if _, online := r.reg.Get(p.PhoneNumber); online {
			if me, err := r.store.FindAccount(ctx, requester); err == nil {
				r.sendToPhone(p.PhoneNumber, protocol.AddedYou{
					Type:    "added_you",
					Message: strconv.FormatInt(requester, 10) + " added You",
					JSONArray: []protocol.ContactEntry{{
						ContactInfo:  contactInfoOf(me),
						ChatID:       chatID,
						ChatMessages: chatMessages,
					}},
				})
			}
		}
	}

	if err := r.store.PushContact(ctx, requester, models.ContactRef{
		ContactID:      p.PhoneNumber,
		ChatID:         chatID,
		UnreadMessages: 1,
	}); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", requester).Msg("failed to push contact entry")
	}

	r.send(c, protocol.LookupFriendReply{
		Type:    "lookup_friend",
		Status:  "succeeded",
		Message: strconv.FormatInt(p.PhoneNumber, 10) + " also known as " + target.FirstName + " is now Your friend",
		JSONArray: []protocol.ContactEntry{{
			ContactInfo:  contactInfoOf(target),
			ChatID:       chatID,
			ChatMessages: chatMessages,
		}},
	})
}

// isTyping forwards a typing notification; nothing is persisted.
func (r *Router) isTyping(_ context.Context, c Client, p protocol.IsTypingPayload) {
	r.sendToPhone(p.Receiver, protocol.TypingFrame{
		Type:        "is_typing",
		PhoneNumber: c.Phone(),
	})
}

// deleteMessage removes the message whose time matches full_time from the chat
// log and tells both ends.
func (r *Router) deleteMessage(ctx context.Context, c Client, p protocol.DeleteMessagePayload) {
	frame := protocol.DeleteMessageFrame{
		Type:     "delete_message",
		ChatID:   p.ChatID,
		FullTime: p.FullTime,
	}
	r.send(c, frame)
	r.sendToPhone(p.Receiver, frame)

	if err := r.store.PullChatMessage(ctx, p.ChatID, p.FullTime); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("chat", p.ChatID).Msg("failed to delete message")
	}
}

// updateUnread zeroes the sender's unread counter for one chat. Re-running it
// is a no-op.
func (r *Router) updateUnread(ctx context.Context, c Client, p protocol.UpdateUnreadPayload) {
	if err := r.store.ResetUnread(ctx, c.Phone(), p.ChatID); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("chat", p.ChatID).Msg("failed to reset unread counter")
	}
}
