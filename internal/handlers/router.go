// Package handlers owns the WebSocket sessions and the frame router: every
// inbound frame is decoded, dispatched by its type discriminator, applied to
// the stores and fanned out to the live sockets in the registry.
package handlers

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/chatapp-labs/chatapp-backend/internal/blob"
	"github.com/chatapp-labs/chatapp-backend/internal/metrics"
	"github.com/chatapp-labs/chatapp-backend/internal/protocol"
	"github.com/chatapp-labs/chatapp-backend/internal/registry"
	"github.com/chatapp-labs/chatapp-backend/internal/store"
)

// Client is one connected socket as the router sees it. Session implements it;
// tests substitute fakes.
type Client interface {
	registry.Conn

	// Phone returns the authenticated phone number, 0 before login.
	Phone() int64

	// Authenticate attaches the identity to the socket after a successful
	// login. The identity lives on the session; the registry is never
	// reverse-scanned.
	Authenticate(phone int64)
}

// Router holds the process-wide dependencies and dispatches frames to their
// handlers. Handler errors never propagate: they are logged and absorbed, and
// a failed delivery to one recipient does not stop fan-out to the rest.
type Router struct {
	store store.Store
	blob  blob.Store
	reg   *registry.Registry
	log   zerolog.Logger

	defaultContactImage string
	defaultGroupImage   string
}

func NewRouter(st store.Store, bl blob.Store, reg *registry.Registry, log zerolog.Logger, defaultContactImage, defaultGroupImage string) *Router {
	return &Router{
		store:               st,
		blob:                bl,
		reg:                 reg,
		log:                 log.With().Str("component", "router").Logger(),
		defaultContactImage: defaultContactImage,
		defaultGroupImage:   defaultGroupImage,
	}
}

// Registry exposes the live-connection registry, used by the server for
// health reporting.
func (r *Router) Registry() *registry.Registry {
	return r.reg
}

// Dispatch decodes one frame and runs its handler on the calling goroutine.
// Each session dispatches sequentially, so a sender's frames keep their order.
func (r *Router) Dispatch(ctx context.Context, c Client, data []byte) {
	t, name, ok := protocol.Discriminate(data)
	if !ok {
		r.log.Warn().Str("type", name).Msg("dropping frame with unknown type")
		return
	}

	metrics.FramesIn.WithLabelValues(name).Inc()

	if c.Phone() == 0 && !t.AuthExempt() {
		r.log.Warn().Str("type", name).Msg("dropping frame from unauthenticated socket")
		return
	}

	switch t {
	case protocol.SignUp:
		decodeAnd(ctx, r, c, data, r.signUp)
	case protocol.LoginRequest:
		decodeAnd(ctx, r, c, data, func(ctx context.Context, c Client, p protocol.LoginPayload) {
			r.login(ctx, c, p)
		})
	case protocol.LookupFriend:
		decodeAnd(ctx, r, c, data, r.lookupFriend)
	case protocol.ProfileImage:
		decodeAnd(ctx, r, c, data, r.profileImage)
	case protocol.GroupProfileImage:
		decodeAnd(ctx, r, c, data, r.groupProfileImage)
	case protocol.ProfileImageDeleted:
		r.profileImageDeleted(ctx, c)
	case protocol.Text:
		decodeAnd(ctx, r, c, data, r.text)
	case protocol.NewGroup:
		decodeAnd(ctx, r, c, data, r.newGroup)
	case protocol.GroupText:
		decodeAnd(ctx, r, c, data, r.groupText)
	case protocol.File:
		decodeAnd(ctx, r, c, data, r.file)
	case protocol.GroupFile:
		decodeAnd(ctx, r, c, data, r.groupFile)
	case protocol.Audio:
		decodeAnd(ctx, r, c, data, r.audio)
	case protocol.GroupAudio:
		decodeAnd(ctx, r, c, data, r.groupAudio)
	case protocol.IsTyping:
		decodeAnd(ctx, r, c, data, r.isTyping)
	case protocol.GroupIsTyping:
		decodeAnd(ctx, r, c, data, r.groupIsTyping)
	case protocol.UpdateInfo:
		decodeAnd(ctx, r, c, data, r.updateInfo)
	case protocol.UpdatePassword:
		decodeAnd(ctx, r, c, data, r.updatePassword)
	case protocol.NewPasswordRequest:
		// Accepted for wire compatibility; the recovery flow goes through
		// retrieve_question and update_password.
		r.log.Debug().Msg("new_password_request frame ignored")
	case protocol.RetrieveQuestion:
		decodeAnd(ctx, r, c, data, r.retrieveQuestion)
	case protocol.RemoveGroupMember:
		decodeAnd(ctx, r, c, data, r.removeGroupMember)
	case protocol.AddGroupMember:
		decodeAnd(ctx, r, c, data, r.addGroupMember)
	case protocol.DeleteMessage:
		decodeAnd(ctx, r, c, data, r.deleteMessage)
	case protocol.DeleteGroupMessage:
		decodeAnd(ctx, r, c, data, r.deleteGroupMessage)
	case protocol.UpdateUnreadMessage:
		decodeAnd(ctx, r, c, data, r.updateUnread)
	case protocol.UpdateGroupUnreadMessage:
		decodeAnd(ctx, r, c, data, r.updateGroupUnread)
	case protocol.DeleteAccount:
		r.deleteAccount(ctx, c)
	}
}

// decodeAnd unmarshals the frame into the handler's payload type and invokes
// it. Malformed payloads are logged and dropped.
func decodeAnd[P any](ctx context.Context, r *Router, c Client, data []byte, handler func(context.Context, Client, P)) {
	var payload P
	if err := json.Unmarshal(data, &payload); err != nil {
		r.log.Warn().Err(err).Msg("dropping malformed frame")
		return
	}
	handler(ctx, c, payload)
}

// Disconnect tears down a session's presence: the registry entry is removed,
// the account is marked offline, and every online contact is told. A stale
// socket whose phone has already re-logged-in skips the teardown entirely,
// otherwise it would mark the live replacement session offline.
func (r *Router) Disconnect(ctx context.Context, c Client) {
	phone := c.Phone()
	if phone == 0 {
		return
	}

	if !r.reg.Remove(phone, c) {
		r.log.Debug().Int64("phone", phone).Msg("stale session closed, newer session still registered")
		return
	}
	r.log.Info().Int64("phone", phone).Msg("client disconnected")

	if err := r.store.SetStatus(ctx, phone, false); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", phone).Msg("failed to mark account offline")
	}

	r.fanOutToContacts(ctx, phone, protocol.PresenceEvent{
		Type:        "client_disconnected",
		PhoneNumber: phone,
	})
}

// send delivers one frame to a connection; failures are logged and absorbed.
func (r *Router) send(conn registry.Conn, v interface{}) {
	if err := conn.Send(v); err != nil {
		r.log.Warn().Err(err).Msg("failed to write frame")
	}
}

// sendToPhone delivers a frame to the given phone if it is online.
func (r *Router) sendToPhone(phone int64, v interface{}) {
	conn, ok := r.reg.Get(phone)
	if !ok {
		return
	}
	metrics.FanOut.Inc()
	r.send(conn, v)
}

// fanOutToContacts delivers a frame to every one of phone's contacts that is
// currently online.
func (r *Router) fanOutToContacts(ctx context.Context, phone int64, v interface{}) {
	contactIDs, err := r.store.FetchContactIDs(ctx, phone)
	if err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", phone).Msg("failed to fetch contact IDs for fan-out")
		return
	}

	for _, id := range contactIDs {
		r.sendToPhone(id, v)
	}
}

// fanOutToGroup delivers a frame to every online member of the group, skipping
// the phones in except.
func (r *Router) fanOutToGroup(members []int64, v interface{}, except ...int64) {
	skip := make(map[int64]struct{}, len(except))
	for _, p := range except {
		skip[p] = struct{}{}
	}
	for _, member := range members {
		if _, skipped := skip[member]; skipped {
			continue
		}
		r.sendToPhone(member, v)
	}
}
