package store

import (
	"context"
	"testing"

	"github.com/chatapp-labs/chatapp-backend/internal/models"
)

func newAccount(phone int64, first string) *models.Account {
	return &models.Account{
		PhoneNumber: phone,
		FirstName:   first,
		LastName:    "Tester",
		Contacts:    []models.ContactRef{},
		Groups:      []models.GroupRef{},
	}
}

func TestInsertAccountDuplicate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.InsertAccount(ctx, newAccount(100, "Ana")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := s.InsertAccount(ctx, newAccount(100, "Ana")); err != ErrDuplicateAccount {
		t.Fatalf("second insert err = %v, want ErrDuplicateAccount", err)
	}
}

func TestFindAccountNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.FindAccount(context.Background(), 42); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUnreadCounterLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.InsertAccount(ctx, newAccount(100, "Ana")); err != nil {
		t.Fatal(err)
	}
	chatID, err := s.CreateChat(ctx, models.ChatMessage{Message: "Server: New Conversation", Time: "12:00"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PushContact(ctx, 100, models.ContactRef{ContactID: 200, ChatID: chatID, UnreadMessages: 1}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := s.IncrementUnread(ctx, 100, chatID); err != nil {
			t.Fatal(err)
		}
	}

	acc, err := s.FindAccount(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if got := acc.Contacts[0].UnreadMessages; got != 4 {
		t.Fatalf("unread = %d, want 4", got)
	}

	// Reset is idempotent.
	for i := 0; i < 2; i++ {
		if err := s.ResetUnread(ctx, 100, chatID); err != nil {
			t.Fatal(err)
		}
	}
	acc, _ = s.FindAccount(ctx, 100)
	if got := acc.Contacts[0].UnreadMessages; got != 0 {
		t.Fatalf("unread after reset = %d, want 0", got)
	}
}

func TestChatMessageAppendAndPull(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	chatID, err := s.CreateChat(ctx, models.ChatMessage{Message: "Server: New Conversation", Time: "12:00"})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.AppendChatMessage(ctx, chatID, models.ChatMessage{Sender: 100, Message: "hi", Time: "2026-01-02 12:01:00"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendChatMessage(ctx, chatID, models.ChatMessage{Sender: 200, Message: "hey", Time: "2026-01-02 12:02:00"}); err != nil {
		t.Fatal(err)
	}

	if err := s.PullChatMessage(ctx, chatID, "2026-01-02 12:01:00"); err != nil {
		t.Fatal(err)
	}

	chat, err := s.FindChat(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chat.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(chat.Messages))
	}
	for _, m := range chat.Messages {
		if m.Time == "2026-01-02 12:01:00" {
			t.Fatal("pulled message still present")
		}
	}
}

func TestFetchContactsAndChatsSkipsDanglingRefs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.InsertAccount(ctx, newAccount(100, "Ana")); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertAccount(ctx, newAccount(200, "Ben")); err != nil {
		t.Fatal(err)
	}
	chatID, _ := s.CreateChat(ctx, models.ChatMessage{Message: "Server: New Conversation", Time: "12:00"})

	// One live contact, one pointing at a vanished account, one at a vanished chat.
	s.PushContact(ctx, 100, models.ContactRef{ContactID: 200, ChatID: chatID, UnreadMessages: 2})
	s.PushContact(ctx, 100, models.ContactRef{ContactID: 999, ChatID: chatID})
	s.PushContact(ctx, 100, models.ContactRef{ContactID: 200, ChatID: 555555})

	contacts, err := s.FetchContactsAndChats(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}
	got := contacts[0]
	if got.ContactInfo.PhoneNumber != 200 || got.ChatID != chatID || got.UnreadMessages != 2 {
		t.Fatalf("unexpected joined contact: %+v", got)
	}
	if len(got.ChatMessages) != 1 || got.ChatMessages[0].Message != "Server: New Conversation" {
		t.Fatalf("unexpected chat log: %+v", got.ChatMessages)
	}
}

func TestGroupMembershipAndUnread(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, phone := range []int64{100, 200, 300} {
		if err := s.InsertAccount(ctx, newAccount(phone, "member")); err != nil {
			t.Fatal(err)
		}
	}

	groupID, err := s.CreateGroup(ctx, &models.Group{
		GroupName:    "weekend plans",
		GroupAdmin:   100,
		GroupMembers: []int64{100, 200},
		GroupMessages: []models.GroupMessage{
			{SenderName: "Server", Message: "Server: New Group", Time: "12:00"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, phone := range []int64{100, 200} {
		s.PushGroupRef(ctx, phone, models.GroupRef{GroupID: groupID, UnreadMessages: 1})
	}

	if err := s.AddGroupMembers(ctx, groupID, []int64{300}); err != nil {
		t.Fatal(err)
	}
	s.PushGroupRef(ctx, 300, models.GroupRef{GroupID: groupID, UnreadMessages: 1})

	g, err := s.FindGroup(ctx, groupID)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.GroupMembers) != 3 {
		t.Fatalf("members = %v", g.GroupMembers)
	}

	s.IncrementGroupUnread(ctx, 200, groupID)
	groups, err := s.FetchGroupsAndChats(ctx, 200)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].UnreadMessages != 2 {
		t.Fatalf("unexpected group join: %+v", groups)
	}

	if err := s.RemoveGroupMembers(ctx, groupID, []int64{300}); err != nil {
		t.Fatal(err)
	}
	if err := s.PullGroupRef(ctx, 300, groupID); err != nil {
		t.Fatal(err)
	}
	g, _ = s.FindGroup(ctx, groupID)
	for _, m := range g.GroupMembers {
		if m == 300 {
			t.Fatal("removed member still in group")
		}
	}
	if groups, _ := s.FetchGroupsAndChats(ctx, 300); len(groups) != 0 {
		t.Fatalf("removed member still joined to group: %+v", groups)
	}
}

func TestDeleteAccountCascade(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.InsertAccount(ctx, newAccount(100, "Ana"))
	s.InsertAccount(ctx, newAccount(200, "Ben"))

	chatID, _ := s.CreateChat(ctx, models.ChatMessage{Message: "Server: New Conversation", Time: "12:00"})
	s.PushContact(ctx, 100, models.ContactRef{ContactID: 200, ChatID: chatID, UnreadMessages: 1})
	s.PushContact(ctx, 200, models.ContactRef{ContactID: 100, ChatID: chatID, UnreadMessages: 1})

	groupID, _ := s.CreateGroup(ctx, &models.Group{
		GroupName:    "g",
		GroupAdmin:   100,
		GroupMembers: []int64{100, 200},
	})
	s.PushGroupRef(ctx, 100, models.GroupRef{GroupID: groupID, UnreadMessages: 1})
	s.PushGroupRef(ctx, 200, models.GroupRef{GroupID: groupID, UnreadMessages: 1})

	if err := s.DeleteAccount(ctx, 100); err != nil {
		t.Fatal(err)
	}

	if _, err := s.FindAccount(ctx, 100); err != ErrNotFound {
		t.Fatal("account survived delete")
	}
	if _, err := s.FindChat(ctx, chatID); err != ErrNotFound {
		t.Fatal("chat survived the cascade")
	}

	ben, err := s.FindAccount(ctx, 200)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range ben.Contacts {
		if c.ChatID == chatID {
			t.Fatal("counterparty still holds a contact entry for the deleted chat")
		}
	}

	g, err := s.FindGroup(ctx, groupID)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range g.GroupMembers {
		if m == 100 {
			t.Fatal("deleted account still a group member")
		}
	}

	// Deleting an unknown account is a no-op.
	if err := s.DeleteAccount(ctx, 12345); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteAccountCascadeManyContacts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.InsertAccount(ctx, newAccount(100, "Ana"))
	counterparties := []int64{200, 300, 400}
	for _, phone := range counterparties {
		s.InsertAccount(ctx, newAccount(phone, "friend"))
	}

	chatIDs := make(map[int64]int32, len(counterparties))
	for _, phone := range counterparties {
		chatID, err := s.CreateChat(ctx, models.ChatMessage{Message: "Server: New Conversation", Time: "12:00"})
		if err != nil {
			t.Fatal(err)
		}
		chatIDs[phone] = chatID
		s.PushContact(ctx, 100, models.ContactRef{ContactID: phone, ChatID: chatID, UnreadMessages: 1})
		s.PushContact(ctx, phone, models.ContactRef{ContactID: 100, ChatID: chatID, UnreadMessages: 1})
	}

	if err := s.DeleteAccount(ctx, 100); err != nil {
		t.Fatal(err)
	}

	// Every chat goes, and every counterparty loses its entry.
	for _, phone := range counterparties {
		if _, err := s.FindChat(ctx, chatIDs[phone]); err != ErrNotFound {
			t.Fatalf("chat %d (with %d) survived the cascade", chatIDs[phone], phone)
		}
		acc, err := s.FindAccount(ctx, phone)
		if err != nil {
			t.Fatal(err)
		}
		if len(acc.Contacts) != 0 {
			t.Fatalf("account %d still holds contact entries: %+v", phone, acc.Contacts)
		}
	}
}

func TestCreateChatAllocatesDistinctPositiveIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	seen := map[int32]bool{}
	for i := 0; i < 50; i++ {
		id, err := s.CreateChat(ctx, models.ChatMessage{Time: "12:00"})
		if err != nil {
			t.Fatal(err)
		}
		if id <= 0 {
			t.Fatalf("chat ID %d is not positive", id)
		}
		if seen[id] {
			t.Fatalf("chat ID %d allocated twice", id)
		}
		seen[id] = true
	}
}
