package protocol

import "github.com/chatapp-labs/chatapp-backend/internal/models"

// Inbound payloads. Each struct mirrors the fields of one frame type; the
// dispatcher decodes the raw frame into the matching struct after reading the
// discriminator. IDs are JSON numbers: phones 64-bit, chat/group IDs 32-bit.

type SignUpRequest struct {
	PhoneNumber    int64  `json:"phone_number"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Password       string `json:"password"`
	SecretQuestion string `json:"secret_question"`
	SecretAnswer   string `json:"secret_answer"`
}

type LoginPayload struct {
	PhoneNumber int64  `json:"phone_number"`
	Password    string `json:"password"`
	TimeZone    string `json:"time_zone"`
}

type LookupFriendRequest struct {
	PhoneNumber int64 `json:"phone_number"`
}

type TextPayload struct {
	Receiver int64  `json:"receiver"`
	Message  string `json:"message"`
	Time     string `json:"time"`
	ChatID   int32  `json:"chatID"`
}

type FilePayload struct {
	Receiver int64  `json:"receiver"`
	ChatID   int32  `json:"chatID"`
	FileName string `json:"file_name"`
	FileData string `json:"file_data"` // base64
	Time     string `json:"time"`
}

type AudioPayload struct {
	Receiver  int64  `json:"receiver"`
	ChatID    int32  `json:"chatID"`
	AudioName string `json:"audio_name"`
	AudioData string `json:"audio_data"` // base64
	Time      string `json:"time"`
}

type GroupTextPayload struct {
	GroupID    int32  `json:"groupID"`
	SenderName string `json:"sender_name"`
	Message    string `json:"message"`
	Time       string `json:"time"`
}

type GroupFilePayload struct {
	GroupID    int32  `json:"groupID"`
	SenderName string `json:"sender_name"`
	FileName   string `json:"file_name"`
	FileData   string `json:"file_data"` // base64
	Time       string `json:"time"`
}

type GroupAudioPayload struct {
	GroupID    int32  `json:"groupID"`
	SenderName string `json:"sender_name"`
	AudioName  string `json:"audio_name"`
	AudioData  string `json:"audio_data"` // base64
	Time       string `json:"time"`
}

type IsTypingPayload struct {
	Receiver int64 `json:"receiver"`
}

type GroupIsTypingPayload struct {
	GroupID    int32  `json:"groupID"`
	SenderName string `json:"sender_name"`
}

type ProfileImagePayload struct {
	FileName string `json:"file_name"`
	FileData string `json:"file_data"` // base64
}

type GroupProfileImagePayload struct {
	GroupID  int32  `json:"groupID"`
	FileName string `json:"file_name"`
	FileData string `json:"file_data"` // base64
}

type NewGroupRequest struct {
	GroupName    string  `json:"group_name"`
	GroupMembers []int64 `json:"group_members"`
}

type GroupMemberPayload struct {
	GroupID    int32   `json:"groupID"`
	MemberList []int64 `json:"member_list"`
}

type DeleteMessagePayload struct {
	Receiver int64  `json:"receiver"`
	ChatID   int32  `json:"chatID"`
	FullTime string `json:"full_time"`
}

type DeleteGroupMessagePayload struct {
	GroupID  int32  `json:"groupID"`
	FullTime string `json:"full_time"`
}

type UpdateUnreadPayload struct {
	ChatID int32 `json:"chatID"`
}

type UpdateGroupUnreadPayload struct {
	GroupID int32 `json:"groupID"`
}

type UpdateInfoPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type UpdatePasswordPayload struct {
	PhoneNumber int64  `json:"phone_number"`
	Password    string `json:"password"`
}

type RetrieveQuestionRequest struct {
	PhoneNumber int64 `json:"phone_number"`
}

// Outbound frames.
//
// Reply status conventions, kept deliberately uneven for wire compatibility:
// sign_up and login_request report a boolean status, lookup_friend reports the
// strings "succeeded"/"failed".

type SignUpReply struct {
	Type    string `json:"type"` // "sign_up"
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

type LoginReply struct {
	Type     string                   `json:"type"` // "login_request"
	Status   bool                     `json:"status"`
	Message  string                   `json:"message"`
	MyInfo   *models.Account          `json:"my_info,omitempty"`
	Contacts []models.ContactWithChat `json:"contacts,omitempty"`
	Groups   []models.GroupWithUnread `json:"groups,omitempty"`
}

// ContactEntry is one element of the json_array carried by lookup_friend and
// added_you frames.
type ContactEntry struct {
	ContactInfo  models.ContactInfo   `json:"contactInfo"`
	ChatID       int32                `json:"chatID"`
	ChatMessages []models.ChatMessage `json:"chatMessages"`
}

type LookupFriendReply struct {
	Type      string         `json:"type"` // "lookup_friend"
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	JSONArray []ContactEntry `json:"json_array,omitempty"`
}

type AddedYou struct {
	Type      string         `json:"type"` // "added_you"
	Message   string         `json:"message"`
	JSONArray []ContactEntry `json:"json_array"`
}

type PresenceEvent struct {
	Type        string `json:"type"` // "client_connected" | "client_disconnected"
	PhoneNumber int64  `json:"phone_number"`
}

type TextFrame struct {
	Type    string `json:"type"` // "text"
	Message string `json:"message"`
	ChatID  int32  `json:"chatID"`
	Time    string `json:"time"`
}

type MediaFrame struct {
	Type     string `json:"type"` // "file" | "audio"
	ChatID   int32  `json:"chatID"`
	FileURL  string `json:"file_url,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	Time     string `json:"time"`
}

type GroupMessageFrame struct {
	Type       string `json:"type"` // "group_text" | "group_file" | "group_audio"
	GroupID    int32  `json:"groupID"`
	SenderName string `json:"sender_name"`
	Message    string `json:"message,omitempty"`
	FileURL    string `json:"file_url,omitempty"`
	AudioURL   string `json:"audio_url,omitempty"`
	Time       string `json:"time"`
}

type TypingFrame struct {
	Type        string `json:"type"` // "is_typing"
	PhoneNumber int64  `json:"phone_number"`
}

type GroupTypingFrame struct {
	Type       string `json:"type"` // "group_is_typing"
	GroupID    int32  `json:"groupID"`
	SenderName string `json:"sender_name"`
}

type ProfileImageReply struct {
	Type     string `json:"type"` // "profile_image"
	ImageURL string `json:"image_url"`
}

type ClientProfileImage struct {
	Type        string `json:"type"` // "client_profile_image"
	PhoneNumber int64  `json:"phone_number"`
	ImageURL    string `json:"image_url"`
}

type GroupProfileImageFrame struct {
	Type          string `json:"type"` // "group_profile_image"
	GroupID       int32  `json:"groupID"`
	GroupImageURL string `json:"group_image_url"`
}

type AddedToGroup struct {
	Type   string                   `json:"type"` // "added_to_group"
	Groups []models.GroupWithUnread `json:"groups"`
}

type RemovedFromGroup struct {
	Type    string `json:"type"` // "removed_from_group"
	GroupID int32  `json:"groupID"`
}

type GroupMembershipFrame struct {
	Type       string  `json:"type"` // "add_group_member" | "remove_group_member"
	GroupID    int32   `json:"groupID"`
	MemberList []int64 `json:"member_list"`
}

type DeleteMessageFrame struct {
	Type     string `json:"type"` // "delete_message"
	ChatID   int32  `json:"chatID"`
	FullTime string `json:"full_time"`
}

type DeleteGroupMessageFrame struct {
	Type     string `json:"type"` // "delete_group_message"
	GroupID  int32  `json:"groupID"`
	FullTime string `json:"full_time"`
}

type ContactInfoUpdated struct {
	Type        string `json:"type"` // "contact_info_updated"
	PhoneNumber int64  `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

type QuestionAnswer struct {
	Type           string `json:"type"` // "question_answer"
	SecretQuestion string `json:"secret_question"`
	SecretAnswer   string `json:"secret_answer"`
}
