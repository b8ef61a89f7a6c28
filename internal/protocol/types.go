// Package protocol defines the JSON wire protocol spoken over the WebSocket:
// one JSON object per text frame, discriminated by its "type" field.
package protocol

import "encoding/json"

// Type is the closed set of frame discriminators. Inbound frames carrying a
// string that is not in the table are dropped by the dispatcher.
type Type int

const (
	Invalid Type = iota
	SignUp
	LoginRequest
	LookupFriend
	ProfileImage
	GroupProfileImage
	ProfileImageDeleted
	Text
	NewGroup
	GroupText
	File
	GroupFile
	Audio
	GroupAudio
	IsTyping
	GroupIsTyping
	UpdateInfo
	UpdatePassword
	NewPasswordRequest
	RetrieveQuestion
	RemoveGroupMember
	AddGroupMember
	DeleteMessage
	DeleteGroupMessage
	UpdateUnreadMessage
	UpdateGroupUnreadMessage
	DeleteAccount
)

var typeNames = map[Type]string{
	SignUp:                   "sign_up",
	LoginRequest:             "login_request",
	LookupFriend:             "lookup_friend",
	ProfileImage:             "profile_image",
	GroupProfileImage:        "group_profile_image",
	ProfileImageDeleted:      "profile_image_deleted",
	Text:                     "text",
	NewGroup:                 "new_group",
	GroupText:                "group_text",
	File:                     "file",
	GroupFile:                "group_file",
	Audio:                    "audio",
	GroupAudio:               "group_audio",
	IsTyping:                 "is_typing",
	GroupIsTyping:            "group_is_typing",
	UpdateInfo:               "contact_info_updated",
	UpdatePassword:           "update_password",
	NewPasswordRequest:       "new_password_request",
	RetrieveQuestion:         "retrieve_question",
	RemoveGroupMember:        "remove_group_member",
	AddGroupMember:           "add_group_member",
	DeleteMessage:            "delete_message",
	DeleteGroupMessage:       "delete_group_message",
	UpdateUnreadMessage:      "update_unread_message",
	UpdateGroupUnreadMessage: "update_group_unread_message",
	DeleteAccount:            "delete_account",
}

var stringToType = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, s := range typeNames {
		m[s] = t
	}
	return m
}()

// TypeOf maps a wire discriminator to its Type. The second return is false for
// unknown discriminators.
func TypeOf(s string) (Type, bool) {
	t, ok := stringToType[s]
	return t, ok
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "invalid_type"
}

// envelope is used to peek at the discriminator before the frame is decoded
// into its typed payload.
type envelope struct {
	Type string `json:"type"`
}

// Discriminate returns the Type of a raw frame. It fails on non-JSON frames,
// frames without a string "type" field, and unknown discriminators.
func Discriminate(data []byte) (Type, string, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Invalid, "", false
	}
	t, ok := stringToType[env.Type]
	return t, env.Type, ok
}

// AuthExempt reports whether a frame type is accepted on a socket that has not
// authenticated yet. Everything else is ignored until login succeeds.
func (t Type) AuthExempt() bool {
	switch t {
	case SignUp, LoginRequest, RetrieveQuestion, UpdatePassword, NewPasswordRequest:
		return true
	}
	return false
}
