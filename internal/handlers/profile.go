package handlers

import (
	"context"

	"github.com/chatapp-labs/chatapp-backend/internal/metrics"
	"github.com/chatapp-labs/chatapp-backend/internal/protocol"
)

// profileImage uploads the new avatar, stores its URL on the account, echoes
// it back to the sender and pushes it to every online contact.
func (r *Router) profileImage(ctx context.Context, c Client, p protocol.ProfileImagePayload) {
	url, ok := r.uploadMedia(ctx, p.FileName, p.FileData)
	if !ok {
		return
	}

	phone := c.Phone()
	if err := r.store.SetProfileImage(ctx, phone, url); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", phone).Msg("failed to store profile image URL")
		return
	}

	r.send(c, protocol.ProfileImageReply{
		Type:     "profile_image",
		ImageURL: url,
	})

	r.fanOutToContacts(ctx, phone, protocol.ClientProfileImage{
		Type:        "client_profile_image",
		PhoneNumber: phone,
		ImageURL:    url,
	})
}

// profileImageDeleted resets the avatar to the stock contact image. The sender
// already switched locally, so only the contacts are told.
func (r *Router) profileImageDeleted(ctx context.Context, c Client) {
	phone := c.Phone()

	if err := r.store.SetProfileImage(ctx, phone, r.defaultContactImage); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", phone).Msg("failed to reset profile image URL")
		return
	}

	r.fanOutToContacts(ctx, phone, protocol.ClientProfileImage{
		Type:        "client_profile_image",
		PhoneNumber: phone,
		ImageURL:    r.defaultContactImage,
	})
}

// groupProfileImage uploads the new group avatar, stores it on the group and
// fans it out to all online members, sender included.
func (r *Router) groupProfileImage(ctx context.Context, c Client, p protocol.GroupProfileImagePayload) {
	url, ok := r.uploadMedia(ctx, p.FileName, p.FileData)
	if !ok {
		return
	}

	if err := r.store.SetGroupImage(ctx, p.GroupID, url); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("group", p.GroupID).Msg("failed to store group image URL")
		return
	}

	group, err := r.store.FindGroup(ctx, p.GroupID)
	if err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("group", p.GroupID).Msg("failed to load group after image update")
		return
	}

	r.fanOutToGroup(group.GroupMembers, protocol.GroupProfileImageFrame{
		Type:          "group_profile_image",
		GroupID:       p.GroupID,
		GroupImageURL: url,
	})
}
