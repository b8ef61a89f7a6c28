package store

import (
	"context"
	"sync"

	"github.com/chatapp-labs/chatapp-backend/internal/models"
)

// MemoryStore is an in-memory Store used by the tests and for local
// development without a MongoDB instance. It mirrors the Mongo semantics the
// handlers rely on: positional updates hit the first matching array entry, and
// the join aggregations drop contacts whose account or chat no longer exists.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[int64]*models.Account
	chats    map[int32]*models.Chat
	groups   map[int32]*models.Group
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[int64]*models.Account),
		chats:    make(map[int32]*models.Chat),
		groups:   make(map[int32]*models.Group),
	}
}

func cloneAccount(acc *models.Account) *models.Account {
	c := *acc
	c.Contacts = append([]models.ContactRef(nil), acc.Contacts...)
	c.Groups = append([]models.GroupRef(nil), acc.Groups...)
	return &c
}

func cloneGroup(g *models.Group) *models.Group {
	c := *g
	c.GroupMembers = append([]int64(nil), g.GroupMembers...)
	c.GroupMessages = append([]models.GroupMessage(nil), g.GroupMessages...)
	return &c
}

// Accounts

func (s *MemoryStore) InsertAccount(_ context.Context, acc *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acc.PhoneNumber]; exists {
		return ErrDuplicateAccount
	}
	s.accounts[acc.PhoneNumber] = cloneAccount(acc)
	return nil
}

func (s *MemoryStore) FindAccount(_ context.Context, phone int64) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(acc), nil
}

func (s *MemoryStore) mutateAccount(phone int64, fn func(*models.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[phone]
	if !ok {
		return ErrNotFound
	}
	fn(acc)
	return nil
}

func (s *MemoryStore) SetStatus(_ context.Context, phone int64, online bool) error {
	return s.mutateAccount(phone, func(a *models.Account) { a.Status = online })
}

func (s *MemoryStore) SetProfileImage(_ context.Context, phone int64, url string) error {
	return s.mutateAccount(phone, func(a *models.Account) { a.ImageURL = url })
}

func (s *MemoryStore) UpdateInfo(_ context.Context, phone int64, firstName, lastName, hashedPassword string) error {
	return s.mutateAccount(phone, func(a *models.Account) {
		a.FirstName = firstName
		a.LastName = lastName
		a.HashedPassword = hashedPassword
	})
}

func (s *MemoryStore) SetPassword(_ context.Context, phone int64, hashedPassword string) error {
	return s.mutateAccount(phone, func(a *models.Account) { a.HashedPassword = hashedPassword })
}

// Contacts and 1:1 chats

func (s *MemoryStore) PushContact(_ context.Context, phone int64, ref models.ContactRef) error {
	return s.mutateAccount(phone, func(a *models.Account) {
		a.Contacts = append(a.Contacts, ref)
	})
}

func (s *MemoryStore) FetchContactIDs(_ context.Context, phone int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[phone]
	if !ok {
		return nil, ErrNotFound
	}

	seen := make(map[int64]struct{}, len(acc.Contacts))
	ids := make([]int64, 0, len(acc.Contacts))
	for _, c := range acc.Contacts {
		if _, dup := seen[c.ContactID]; dup {
			continue
		}
		seen[c.ContactID] = struct{}{}
		ids = append(ids, c.ContactID)
	}
	return ids, nil
}

func (s *MemoryStore) FetchContactsAndChats(_ context.Context, phone int64) ([]models.ContactWithChat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[phone]
	if !ok {
		return nil, nil
	}

	var results []models.ContactWithChat
	for _, ref := range acc.Contacts {
		contact, ok := s.accounts[ref.ContactID]
		if !ok {
			continue
		}
		chat, ok := s.chats[ref.ChatID]
		if !ok {
			continue
		}
		results = append(results, models.ContactWithChat{
			ContactInfo: models.ContactInfo{
				PhoneNumber: contact.PhoneNumber,
				FirstName:   contact.FirstName,
				LastName:    contact.LastName,
				Status:      contact.Status,
				ImageURL:    contact.ImageURL,
			},
			ChatID:         ref.ChatID,
			UnreadMessages: ref.UnreadMessages,
			ChatMessages:   append([]models.ChatMessage(nil), chat.Messages...),
		})
	}
	return results, nil
}

func (s *MemoryStore) IncrementUnread(_ context.Context, phone int64, chatID int32) error {
	return s.mutateAccount(phone, func(a *models.Account) {
		for i := range a.Contacts {
			if a.Contacts[i].ChatID == chatID {
				a.Contacts[i].UnreadMessages++
				return
			}
		}
	})
}

func (s *MemoryStore) ResetUnread(_ context.Context, phone int64, chatID int32) error {
	return s.mutateAccount(phone, func(a *models.Account) {
		for i := range a.Contacts {
			if a.Contacts[i].ChatID == chatID {
				a.Contacts[i].UnreadMessages = 0
				return
			}
		}
	})
}

func (s *MemoryStore) CreateChat(_ context.Context, first models.ChatMessage) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	for {
		if _, taken := s.chats[id]; !taken {
			break
		}
		id = newID()
	}
	s.chats[id] = &models.Chat{ID: id, Messages: []models.ChatMessage{first}}
	return id, nil
}

func (s *MemoryStore) FindChat(_ context.Context, chatID int32) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *chat
	c.Messages = append([]models.ChatMessage(nil), chat.Messages...)
	return &c, nil
}

func (s *MemoryStore) AppendChatMessage(_ context.Context, chatID int32, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return ErrNotFound
	}
	chat.Messages = append(chat.Messages, msg)
	return nil
}

func (s *MemoryStore) PullChatMessage(_ context.Context, chatID int32, fullTime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return ErrNotFound
	}
	kept := chat.Messages[:0]
	for _, m := range chat.Messages {
		if m.Time != fullTime {
			kept = append(kept, m)
		}
	}
	chat.Messages = kept
	return nil
}

// Groups

func (s *MemoryStore) CreateGroup(_ context.Context, group *models.Group) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	for {
		if _, taken := s.groups[id]; !taken {
			break
		}
		id = newID()
	}
	group.ID = id
	s.groups[id] = cloneGroup(group)
	return id, nil
}

func (s *MemoryStore) FindGroup(_ context.Context, groupID int32) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneGroup(g), nil
}

func (s *MemoryStore) mutateGroup(groupID int32, fn func(*models.Group)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ErrNotFound
	}
	fn(g)
	return nil
}

func (s *MemoryStore) SetGroupImage(_ context.Context, groupID int32, url string) error {
	return s.mutateGroup(groupID, func(g *models.Group) { g.GroupImageURL = url })
}

func (s *MemoryStore) AddGroupMembers(_ context.Context, groupID int32, members []int64) error {
	return s.mutateGroup(groupID, func(g *models.Group) {
		g.GroupMembers = append(g.GroupMembers, members...)
	})
}

func (s *MemoryStore) RemoveGroupMembers(_ context.Context, groupID int32, members []int64) error {
	drop := make(map[int64]struct{}, len(members))
	for _, m := range members {
		drop[m] = struct{}{}
	}
	return s.mutateGroup(groupID, func(g *models.Group) {
		kept := g.GroupMembers[:0]
		for _, m := range g.GroupMembers {
			if _, gone := drop[m]; !gone {
				kept = append(kept, m)
			}
		}
		g.GroupMembers = kept
	})
}

func (s *MemoryStore) PushGroupRef(_ context.Context, phone int64, ref models.GroupRef) error {
	return s.mutateAccount(phone, func(a *models.Account) {
		a.Groups = append(a.Groups, ref)
	})
}

func (s *MemoryStore) PullGroupRef(_ context.Context, phone int64, groupID int32) error {
	return s.mutateAccount(phone, func(a *models.Account) {
		kept := a.Groups[:0]
		for _, g := range a.Groups {
			if g.GroupID != groupID {
				kept = append(kept, g)
			}
		}
		a.Groups = kept
	})
}

func (s *MemoryStore) FetchGroupsAndChats(_ context.Context, phone int64) ([]models.GroupWithUnread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[phone]
	if !ok {
		return nil, nil
	}

	var results []models.GroupWithUnread
	for _, ref := range acc.Groups {
		g, ok := s.groups[ref.GroupID]
		if !ok {
			continue
		}
		results = append(results, models.GroupWithUnread{
			ID:             g.ID,
			GroupName:      g.GroupName,
			UnreadMessages: ref.UnreadMessages,
			GroupImageURL:  g.GroupImageURL,
			GroupAdmin:     g.GroupAdmin,
			GroupMembers:   append([]int64(nil), g.GroupMembers...),
			GroupMessages:  append([]models.GroupMessage(nil), g.GroupMessages...),
		})
	}
	return results, nil
}

func (s *MemoryStore) IncrementGroupUnread(_ context.Context, phone int64, groupID int32) error {
	return s.mutateAccount(phone, func(a *models.Account) {
		for i := range a.Groups {
			if a.Groups[i].GroupID == groupID {
				a.Groups[i].UnreadMessages++
				return
			}
		}
	})
}

func (s *MemoryStore) ResetGroupUnread(_ context.Context, phone int64, groupID int32) error {
	return s.mutateAccount(phone, func(a *models.Account) {
		for i := range a.Groups {
			if a.Groups[i].GroupID == groupID {
				a.Groups[i].UnreadMessages = 0
				return
			}
		}
	})
}

func (s *MemoryStore) AppendGroupMessage(_ context.Context, groupID int32, msg models.GroupMessage) error {
	return s.mutateGroup(groupID, func(g *models.Group) {
		g.GroupMessages = append(g.GroupMessages, msg)
	})
}

func (s *MemoryStore) PullGroupMessage(_ context.Context, groupID int32, fullTime string) error {
	return s.mutateGroup(groupID, func(g *models.Group) {
		kept := g.GroupMessages[:0]
		for _, m := range g.GroupMessages {
			if m.Time != fullTime {
				kept = append(kept, m)
			}
		}
		g.GroupMessages = kept
	})
}

// DeleteAccount mirrors the Mongo cascade: pull the account from its groups,
// strip its chats from every counterparty, delete those chats, then delete the
// account.
func (s *MemoryStore) DeleteAccount(_ context.Context, phone int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[phone]
	if !ok {
		return nil
	}

	for _, ref := range acc.Groups {
		if g, ok := s.groups[ref.GroupID]; ok {
			kept := g.GroupMembers[:0]
			for _, m := range g.GroupMembers {
				if m != phone {
					kept = append(kept, m)
				}
			}
			g.GroupMembers = kept
		}
	}

	// Snapshot the contact list first: the compaction below rewrites
	// acc.Contacts in place when it reaches the account being deleted.
	refs := append([]models.ContactRef(nil), acc.Contacts...)
	for _, ref := range refs {
		for _, other := range s.accounts {
			kept := other.Contacts[:0]
			for _, c := range other.Contacts {
				if c.ChatID != ref.ChatID {
					kept = append(kept, c)
				}
			}
			other.Contacts = kept
		}
		delete(s.chats, ref.ChatID)
	}

	delete(s.accounts, phone)
	return nil
}
