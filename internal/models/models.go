package models

// The three logical collections: accounts, chats, groups. All cross-collection
// references are scalar IDs; phone numbers are 64-bit, chat and group IDs are
// positive 32-bit values allocated at creation time.

// ContactRef is one entry of an account's contacts array.
type ContactRef struct {
	ContactID      int64 `bson:"contactID" json:"contactID"`
	ChatID         int32 `bson:"chatID" json:"chatID"`
	UnreadMessages int   `bson:"unread_messages" json:"unread_messages"`
}

// GroupRef is one entry of an account's groups array.
type GroupRef struct {
	GroupID        int32 `bson:"groupID" json:"groupID"`
	UnreadMessages int   `bson:"group_unread_messages" json:"group_unread_messages"`
}

// Account is a document of the accounts collection, keyed by phone number.
type Account struct {
	PhoneNumber    int64        `bson:"_id" json:"_id"`
	FirstName      string       `bson:"first_name" json:"first_name"`
	LastName       string       `bson:"last_name" json:"last_name"`
	ImageURL       string       `bson:"image_url" json:"image_url"`
	Status         bool         `bson:"status" json:"status"`
	HashedPassword string       `bson:"hashed_password" json:"-"` // Don't return password hash in JSON
	SecretQuestion string       `bson:"secret_question" json:"secret_question,omitempty"`
	SecretAnswer   string       `bson:"secret_answer" json:"secret_answer,omitempty"`
	Contacts       []ContactRef `bson:"contacts" json:"contacts"`
	Groups         []GroupRef   `bson:"groups" json:"groups"`
}

// ChatMessage is one record of a chat's message log. Exactly one of Message,
// FileURL or AudioURL is set. Time is an opaque client-chosen string; the
// server only compares it verbatim when deleting a message.
type ChatMessage struct {
	Sender   int64  `bson:"sender" json:"sender"`
	Time     string `bson:"time" json:"time"`
	Message  string `bson:"message,omitempty" json:"message,omitempty"`
	FileURL  string `bson:"file_url,omitempty" json:"file_url,omitempty"`
	AudioURL string `bson:"audio_url,omitempty" json:"audio_url,omitempty"`
}

// Chat is a 1:1 conversation document of the chats collection.
type Chat struct {
	ID       int32         `bson:"_id" json:"_id"`
	Messages []ChatMessage `bson:"messages" json:"messages"`
}

// GroupMessage is one record of a group's message log.
type GroupMessage struct {
	SenderID   int64  `bson:"sender_ID" json:"sender_ID"`
	SenderName string `bson:"sender_name" json:"sender_name"`
	Time       string `bson:"time" json:"time"`
	Message    string `bson:"message,omitempty" json:"message,omitempty"`
	FileURL    string `bson:"file_url,omitempty" json:"file_url,omitempty"`
	AudioURL   string `bson:"audio_url,omitempty" json:"audio_url,omitempty"`
}

// Group is a document of the groups collection.
type Group struct {
	ID            int32          `bson:"_id" json:"_id"`
	GroupName     string         `bson:"group_name" json:"group_name"`
	GroupImageURL string         `bson:"group_image_url" json:"group_image_url"`
	GroupAdmin    int64          `bson:"group_admin" json:"group_admin"`
	GroupMembers  []int64        `bson:"group_members" json:"group_members"`
	GroupMessages []GroupMessage `bson:"group_messages" json:"group_messages"`
}

// ContactInfo is the projected view of a contact's account sent to clients.
type ContactInfo struct {
	PhoneNumber int64  `bson:"_id" json:"_id"`
	FirstName   string `bson:"first_name" json:"first_name"`
	LastName    string `bson:"last_name" json:"last_name"`
	Status      bool   `bson:"status" json:"status"`
	ImageURL    string `bson:"image_url" json:"image_url"`
}

// ContactWithChat is one element of the contacts-and-chats join: the contact's
// projected account, the shared chat ID and unread counter, and the full chat
// transcript in stored order.
type ContactWithChat struct {
	ContactInfo    ContactInfo   `bson:"contactInfo" json:"contactInfo"`
	ChatID         int32         `bson:"chatID" json:"chatID"`
	UnreadMessages int           `bson:"unread_messages" json:"unread_messages"`
	ChatMessages   []ChatMessage `bson:"chatMessages" json:"chatMessages"`
}

// GroupWithUnread is one element of the groups-and-chats join: the full group
// document flattened together with the account's per-group unread counter.
type GroupWithUnread struct {
	ID             int32          `bson:"_id" json:"_id"`
	GroupName      string         `bson:"group_name" json:"group_name"`
	UnreadMessages int            `bson:"group_unread_messages" json:"group_unread_messages"`
	GroupImageURL  string         `bson:"group_image_url" json:"group_image_url"`
	GroupAdmin     int64          `bson:"group_admin" json:"group_admin"`
	GroupMembers   []int64        `bson:"group_members" json:"group_members"`
	GroupMessages  []GroupMessage `bson:"group_messages" json:"group_messages"`
}
