// Package store is the persistence layer over the accounts, chats and groups
// collections.
package store

import (
	"context"
	"errors"

	"github.com/chatapp-labs/chatapp-backend/internal/models"
)

var (
	// ErrDuplicateAccount is returned when a sign-up reuses a phone number.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrNotFound is returned when a referenced account, chat or group does
	// not exist.
	ErrNotFound = errors.New("document not found")
)

// Store is the document-store contract the message handlers run against. The
// Mongo implementation is the production backend; MemoryStore backs the tests.
// All implementations must be safe for concurrent use.
type Store interface {
	// Accounts
	InsertAccount(ctx context.Context, acc *models.Account) error
	FindAccount(ctx context.Context, phone int64) (*models.Account, error)
	SetStatus(ctx context.Context, phone int64, online bool) error
	SetProfileImage(ctx context.Context, phone int64, url string) error
	UpdateInfo(ctx context.Context, phone int64, firstName, lastName, hashedPassword string) error
	SetPassword(ctx context.Context, phone int64, hashedPassword string) error

	// Contacts and 1:1 chats
	PushContact(ctx context.Context, phone int64, ref models.ContactRef) error
	FetchContactIDs(ctx context.Context, phone int64) ([]int64, error)
	FetchContactsAndChats(ctx context.Context, phone int64) ([]models.ContactWithChat, error)
	IncrementUnread(ctx context.Context, phone int64, chatID int32) error
	ResetUnread(ctx context.Context, phone int64, chatID int32) error
	CreateChat(ctx context.Context, first models.ChatMessage) (int32, error)
	FindChat(ctx context.Context, chatID int32) (*models.Chat, error)
	AppendChatMessage(ctx context.Context, chatID int32, msg models.ChatMessage) error
	PullChatMessage(ctx context.Context, chatID int32, fullTime string) error

	// Groups
	CreateGroup(ctx context.Context, group *models.Group) (int32, error)
	FindGroup(ctx context.Context, groupID int32) (*models.Group, error)
	SetGroupImage(ctx context.Context, groupID int32, url string) error
	AddGroupMembers(ctx context.Context, groupID int32, members []int64) error
	RemoveGroupMembers(ctx context.Context, groupID int32, members []int64) error
	PushGroupRef(ctx context.Context, phone int64, ref models.GroupRef) error
	PullGroupRef(ctx context.Context, phone int64, groupID int32) error
	FetchGroupsAndChats(ctx context.Context, phone int64) ([]models.GroupWithUnread, error)
	IncrementGroupUnread(ctx context.Context, phone int64, groupID int32) error
	ResetGroupUnread(ctx context.Context, phone int64, groupID int32) error
	AppendGroupMessage(ctx context.Context, groupID int32, msg models.GroupMessage) error
	PullGroupMessage(ctx context.Context, groupID int32, fullTime string) error

	// DeleteAccount runs the best-effort cascade: pull the account from every
	// group it belongs to, strip its chats from all counterparties, delete
	// those chats, then delete the account itself. Safe to re-run after a
	// partial failure.
	DeleteAccount(ctx context.Context, phone int64) error
}
