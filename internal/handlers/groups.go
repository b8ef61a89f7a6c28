package handlers

import (
	"context"
	"time"

	"github.com/chatapp-labs/chatapp-backend/internal/metrics"
	"github.com/chatapp-labs/chatapp-backend/internal/models"
	"github.com/chatapp-labs/chatapp-backend/internal/protocol"
	"github.com/chatapp-labs/chatapp-backend/internal/store"
)

// newGroup creates the group document with the sender as admin, pushes a
// group entry onto every member's account and notifies the online ones.
// The member list is stored flat, exactly as provided.
func (r *Router) newGroup(ctx context.Context, c Client, p protocol.NewGroupRequest) {
	admin := c.Phone()

	firstMessage := models.GroupMessage{
		SenderName: "Server",
		Message:    "Server: New Group",
		Time:       time.Now().Format("15:04"),
	}

	group := &models.Group{
		GroupName:     p.GroupName,
		GroupImageURL: r.defaultGroupImage,
		GroupAdmin:    admin,
		GroupMembers:  p.GroupMembers,
		GroupMessages: []models.GroupMessage{firstMessage},
	}

	groupID, err := r.store.CreateGroup(ctx, group)
	if err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Msg("failed to create group")
		return
	}

	record := models.GroupWithUnread{
		ID:             groupID,
		GroupName:      p.GroupName,
		UnreadMessages: 1,
		GroupImageURL:  r.defaultGroupImage,
		GroupAdmin:     admin,
		GroupMembers:   p.GroupMembers,
		GroupMessages:  group.GroupMessages,
	}

	for _, member := range p.GroupMembers {
		if err := r.store.PushGroupRef(ctx, member, models.GroupRef{
			GroupID:        groupID,
			UnreadMessages: 1,
		}); err != nil {
			metrics.StoreErrors.Inc()
			r.log.Error().Err(err).Int64("phone", member).Int32("group", groupID).
				Msg("failed to push group entry")
			continue
		}

		r.sendToPhone(member, protocol.AddedToGroup{
			Type:   "added_to_group",
			Groups: []models.GroupWithUnread{record},
		})
	}
}

// groupText appends the record to the group log, bumps every other member's
// unread counter and fans the frame out to all online members, sender
// included.
func (r *Router) groupText(ctx context.Context, c Client, p protocol.GroupTextPayload) {
	r.deliverGroupMessage(ctx, c, p.GroupID, protocol.GroupMessageFrame{
		Type:       "group_text",
		GroupID:    p.GroupID,
		SenderName: p.SenderName,
		Message:    p.Message,
		Time:       p.Time,
	}, models.GroupMessage{
		SenderID:   c.Phone(),
		SenderName: p.SenderName,
		Time:       p.Time,
		Message:    p.Message,
	})
}

func (r *Router) groupFile(ctx context.Context, c Client, p protocol.GroupFilePayload) {
	url, ok := r.uploadMedia(ctx, p.FileName, p.FileData)
	if !ok {
		return
	}

	r.deliverGroupMessage(ctx, c, p.GroupID, protocol.GroupMessageFrame{
		Type:       "group_file",
		GroupID:    p.GroupID,
		SenderName: p.SenderName,
		FileURL:    url,
		Time:       p.Time,
	}, models.GroupMessage{
		SenderID:   c.Phone(),
		SenderName: p.SenderName,
		Time:       p.Time,
		FileURL:    url,
	})
}

func (r *Router) groupAudio(ctx context.Context, c Client, p protocol.GroupAudioPayload) {
	url, ok := r.uploadMedia(ctx, p.AudioName, p.AudioData)
	if !ok {
		return
	}

	r.deliverGroupMessage(ctx, c, p.GroupID, protocol.GroupMessageFrame{
		Type:       "group_audio",
		GroupID:    p.GroupID,
		SenderName: p.SenderName,
		AudioURL:   url,
		Time:       p.Time,
	}, models.GroupMessage{
		SenderID:   c.Phone(),
		SenderName: p.SenderName,
		Time:       p.Time,
		AudioURL:   url,
	})
}

func (r *Router) deliverGroupMessage(ctx context.Context, c Client, groupID int32, frame protocol.GroupMessageFrame, msg models.GroupMessage) {
	group, err := r.store.FindGroup(ctx, groupID)
	if err != nil {
		if err != store.ErrNotFound {
			metrics.StoreErrors.Inc()
		}
		r.log.Warn().Err(err).Int32("group", groupID).Msg("group message for unknown group")
		return
	}

	if err := r.store.AppendGroupMessage(ctx, groupID, msg); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("group", groupID).Msg("failed to append group message")
	}

	sender := c.Phone()
	for _, member := range group.GroupMembers {
		if member != sender {
			if err := r.store.IncrementGroupUnread(ctx, member, groupID); err != nil {
				metrics.StoreErrors.Inc()
				r.log.Error().Err(err).Int64("phone", member).Int32("group", groupID).
					Msg("failed to increment group unread counter")
			}
		}
		r.sendToPhone(member, frame)
	}
}

// groupIsTyping fans a typing notification out to the other online members;
// nothing is persisted.
func (r *Router) groupIsTyping(ctx context.Context, c Client, p protocol.GroupIsTypingPayload) {
	group, err := r.store.FindGroup(ctx, p.GroupID)
	if err != nil {
		return
	}

	r.fanOutToGroup(group.GroupMembers, protocol.GroupTypingFrame{
		Type:       "group_is_typing",
		GroupID:    p.GroupID,
		SenderName: p.SenderName,
	}, c.Phone())
}

// addGroupMember extends the member set, pushes group entries onto the new
// members' accounts, welcomes them with the full group record and tells the
// existing members.
func (r *Router) addGroupMember(ctx context.Context, c Client, p protocol.GroupMemberPayload) {
	if len(p.MemberList) == 0 {
		return
	}

	if err := r.store.AddGroupMembers(ctx, p.GroupID, p.MemberList); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("group", p.GroupID).Msg("failed to add group members")
		return
	}

	group, err := r.store.FindGroup(ctx, p.GroupID)
	if err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("group", p.GroupID).Msg("failed to load group after member add")
		return
	}

	added := make(map[int64]struct{}, len(p.MemberList))
	for _, member := range p.MemberList {
		added[member] = struct{}{}

		if err := r.store.PushGroupRef(ctx, member, models.GroupRef{
			GroupID:        p.GroupID,
			UnreadMessages: 1,
		}); err != nil {
			metrics.StoreErrors.Inc()
			r.log.Error().Err(err).Int64("phone", member).Int32("group", p.GroupID).
				Msg("failed to push group entry")
			continue
		}

		r.sendToPhone(member, protocol.AddedToGroup{
			Type: "added_to_group",
			Groups: []models.GroupWithUnread{{
				ID:             group.ID,
				GroupName:      group.GroupName,
				UnreadMessages: 1,
				GroupImageURL:  group.GroupImageURL,
				GroupAdmin:     group.GroupAdmin,
				GroupMembers:   group.GroupMembers,
				GroupMessages:  group.GroupMessages,
			}},
		})
	}

	frame := protocol.GroupMembershipFrame{
		Type:       "add_group_member",
		GroupID:    p.GroupID,
		MemberList: p.MemberList,
	}
	for _, member := range group.GroupMembers {
		if _, isNew := added[member]; isNew {
			continue
		}
		r.sendToPhone(member, frame)
	}
}

// removeGroupMember shrinks the member set, pulls the group entry from the
// removed accounts and notifies everyone affected.
func (r *Router) removeGroupMember(ctx context.Context, c Client, p protocol.GroupMemberPayload) {
	if len(p.MemberList) == 0 {
		return
	}

	if err := r.store.RemoveGroupMembers(ctx, p.GroupID, p.MemberList); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("group", p.GroupID).Msg("failed to remove group members")
		return
	}

	for _, member := range p.MemberList {
		if err := r.store.PullGroupRef(ctx, member, p.GroupID); err != nil {
			metrics.StoreErrors.Inc()
			r.log.Error().Err(err).Int64("phone", member).Int32("group", p.GroupID).
				Msg("failed to pull group entry")
		}

		r.sendToPhone(member, protocol.RemovedFromGroup{
			Type:    "removed_from_group",
			GroupID: p.GroupID,
		})
	}

	group, err := r.store.FindGroup(ctx, p.GroupID)
	if err != nil {
		return
	}

	r.fanOutToGroup(group.GroupMembers, protocol.GroupMembershipFrame{
		Type:       "remove_group_member",
		GroupID:    p.GroupID,
		MemberList: p.MemberList,
	})
}

// deleteGroupMessage pulls the matching record from the group log and fans the
// deletion out to all online members.
func (r *Router) deleteGroupMessage(ctx context.Context, c Client, p protocol.DeleteGroupMessagePayload) {
	group, err := r.store.FindGroup(ctx, p.GroupID)
	if err != nil {
		if err != store.ErrNotFound {
			metrics.StoreErrors.Inc()
		}
		return
	}

	r.fanOutToGroup(group.GroupMembers, protocol.DeleteGroupMessageFrame{
		Type:     "delete_group_message",
		GroupID:  p.GroupID,
		FullTime: p.FullTime,
	})

	if err := r.store.PullGroupMessage(ctx, p.GroupID, p.FullTime); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("group", p.GroupID).Msg("failed to delete group message")
	}
}

// updateGroupUnread zeroes the sender's unread counter for one group.
func (r *Router) updateGroupUnread(ctx context.Context, c Client, p protocol.UpdateGroupUnreadPayload) {
	if err := r.store.ResetGroupUnread(ctx, c.Phone(), p.GroupID); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int32("group", p.GroupID).Msg("failed to reset group unread counter")
	}
}
