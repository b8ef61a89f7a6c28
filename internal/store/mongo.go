package store

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chatapp-labs/chatapp-backend/internal/models"
)

const (
	accountsCollection = "accounts"
	chatsCollection    = "chats"
	groupsCollection   = "groups"

	opTimeout = 10 * time.Second

	// idAllocRetries bounds the number of fresh random IDs tried when an
	// insert hits a duplicate key.
	idAllocRetries = 5
)

// MongoStore implements Store on top of the accounts/chats/groups collections.
type MongoStore struct {
	db  *mongo.Database
	log zerolog.Logger
}

func NewMongoStore(db *mongo.Database, log zerolog.Logger) *MongoStore {
	return &MongoStore{db: db, log: log.With().Str("component", "store").Logger()}
}

// EnsureIndexes creates the secondary indexes the handlers rely on. Called on
// startup after Mongo has connected.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	accounts := s.db.Collection(accountsCollection)

	// contacts.chatID backs the counterparty pull in the delete cascade and
	// the positional unread updates.
	idx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "contacts.chatID", Value: 1}},
			Options: options.Index().SetName("idx_contacts_chatid"),
		},
	}

	for _, m := range idx {
		if _, err := accounts.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// newID draws a uniform positive 32-bit identifier.
func newID() int32 {
	return rand.Int31n(math.MaxInt32) + 1
}

func (s *MongoStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// Accounts

func (s *MongoStore) InsertAccount(ctx context.Context, acc *models.Account) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.Collection(accountsCollection).InsertOne(ctx, acc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("error inserting account: %w", err)
	}
	return nil
}

func (s *MongoStore) FindAccount(ctx context.Context, phone int64) (*models.Account, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var acc models.Account
	err := s.db.Collection(accountsCollection).FindOne(ctx, bson.M{"_id": phone}).Decode(&acc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding account: %w", err)
	}
	return &acc, nil
}

func (s *MongoStore) updateAccount(ctx context.Context, filter, update bson.M) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.Collection(accountsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating account: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetStatus(ctx context.Context, phone int64, online bool) error {
	return s.updateAccount(ctx, bson.M{"_id": phone}, bson.M{"$set": bson.M{"status": online}})
}

func (s *MongoStore) SetProfileImage(ctx context.Context, phone int64, url string) error {
	return s.updateAccount(ctx, bson.M{"_id": phone}, bson.M{"$set": bson.M{"image_url": url}})
}

func (s *MongoStore) UpdateInfo(ctx context.Context, phone int64, firstName, lastName, hashedPassword string) error {
	return s.updateAccount(ctx, bson.M{"_id": phone}, bson.M{"$set": bson.M{
		"first_name":      firstName,
		"last_name":       lastName,
		"hashed_password": hashedPassword,
	}})
}

func (s *MongoStore) SetPassword(ctx context.Context, phone int64, hashedPassword string) error {
	return s.updateAccount(ctx, bson.M{"_id": phone}, bson.M{"$set": bson.M{"hashed_password": hashedPassword}})
}

// Contacts and 1:1 chats

func (s *MongoStore) PushContact(ctx context.Context, phone int64, ref models.ContactRef) error {
	return s.updateAccount(ctx, bson.M{"_id": phone}, bson.M{"$push": bson.M{"contacts": ref}})
}

func (s *MongoStore) FetchContactIDs(ctx context.Context, phone int64) ([]int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var doc struct {
		Contacts []models.ContactRef `bson:"contacts"`
	}
	opts := options.FindOne().SetProjection(bson.M{"contacts.contactID": 1})
	err := s.db.Collection(accountsCollection).FindOne(ctx, bson.M{"_id": phone}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching contact IDs: %w", err)
	}

	seen := make(map[int64]struct{}, len(doc.Contacts))
	ids := make([]int64, 0, len(doc.Contacts))
	for _, c := range doc.Contacts {
		if _, dup := seen[c.ContactID]; dup {
			continue
		}
		seen[c.ContactID] = struct{}{}
		ids = append(ids, c.ContactID)
	}
	return ids, nil
}

// FetchContactsAndChats joins the account's contacts against accounts and
// chats and returns one record per contact with the full transcript embedded.
// The chat document is looked up whole rather than unwound per message; the
// output shape is unchanged.
func (s *MongoStore) FetchContactsAndChats(ctx context.Context, phone int64) ([]models.ContactWithChat, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": phone}}},
		bson.D{{Key: "$unwind", Value: "$contacts"}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         accountsCollection,
			"localField":   "contacts.contactID",
			"foreignField": "_id",
			"as":           "contactInfo",
		}}},
		bson.D{{Key: "$unwind", Value: "$contactInfo"}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         chatsCollection,
			"localField":   "contacts.chatID",
			"foreignField": "_id",
			"as":           "chat",
		}}},
		bson.D{{Key: "$unwind", Value: "$chat"}},
		bson.D{{Key: "$project", Value: bson.M{
			"_id": 0,
			"contactInfo": bson.M{
				"_id":        "$contactInfo._id",
				"first_name": "$contactInfo.first_name",
				"last_name":  "$contactInfo.last_name",
				"status":     "$contactInfo.status",
				"image_url":  "$contactInfo.image_url",
			},
			"chatID":          "$contacts.chatID",
			"unread_messages": "$contacts.unread_messages",
			"chatMessages":    "$chat.messages",
		}}},
	}

	cursor, err := s.db.Collection(accountsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating contacts and chats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.ContactWithChat
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("error decoding contacts and chats: %w", err)
	}
	return results, nil
}

func (s *MongoStore) IncrementUnread(ctx context.Context, phone int64, chatID int32) error {
	return s.updateAccount(ctx,
		bson.M{"_id": phone, "contacts.chatID": chatID},
		bson.M{"$inc": bson.M{"contacts.$.unread_messages": 1}})
}

func (s *MongoStore) ResetUnread(ctx context.Context, phone int64, chatID int32) error {
	return s.updateAccount(ctx,
		bson.M{"_id": phone, "contacts.chatID": chatID},
		bson.M{"$set": bson.M{"contacts.$.unread_messages": 0}})
}

func (s *MongoStore) CreateChat(ctx context.Context, first models.ChatMessage) (int32, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	chats := s.db.Collection(chatsCollection)
	for i := 0; i < idAllocRetries; i++ {
		chat := models.Chat{ID: newID(), Messages: []models.ChatMessage{first}}
		_, err := chats.InsertOne(ctx, chat)
		if err == nil {
			return chat.ID, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("error inserting chat: %w", err)
		}
	}
	return 0, fmt.Errorf("error inserting chat: exhausted %d ID allocation attempts", idAllocRetries)
}

func (s *MongoStore) FindChat(ctx context.Context, chatID int32) (*models.Chat, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var chat models.Chat
	err := s.db.Collection(chatsCollection).FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding chat: %w", err)
	}
	return &chat, nil
}

func (s *MongoStore) updateChat(ctx context.Context, chatID int32, update bson.M) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.Collection(chatsCollection).UpdateOne(ctx, bson.M{"_id": chatID}, update)
	if err != nil {
		return fmt.Errorf("error updating chat: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AppendChatMessage(ctx context.Context, chatID int32, msg models.ChatMessage) error {
	return s.updateChat(ctx, chatID, bson.M{"$push": bson.M{"messages": msg}})
}

func (s *MongoStore) PullChatMessage(ctx context.Context, chatID int32, fullTime string) error {
	return s.updateChat(ctx, chatID, bson.M{"$pull": bson.M{"messages": bson.M{"time": fullTime}}})
}

// Groups

func (s *MongoStore) CreateGroup(ctx context.Context, group *models.Group) (int32, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	groups := s.db.Collection(groupsCollection)
	for i := 0; i < idAllocRetries; i++ {
		group.ID = newID()
		_, err := groups.InsertOne(ctx, group)
		if err == nil {
			return group.ID, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("error inserting group: %w", err)
		}
	}
	return 0, fmt.Errorf("error inserting group: exhausted %d ID allocation attempts", idAllocRetries)
}

func (s *MongoStore) FindGroup(ctx context.Context, groupID int32) (*models.Group, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var group models.Group
	err := s.db.Collection(groupsCollection).FindOne(ctx, bson.M{"_id": groupID}).Decode(&group)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding group: %w", err)
	}
	return &group, nil
}

func (s *MongoStore) updateGroup(ctx context.Context, groupID int32, update bson.M) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.Collection(groupsCollection).UpdateOne(ctx, bson.M{"_id": groupID}, update)
	if err != nil {
		return fmt.Errorf("error updating group: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetGroupImage(ctx context.Context, groupID int32, url string) error {
	return s.updateGroup(ctx, groupID, bson.M{"$set": bson.M{"group_image_url": url}})
}

func (s *MongoStore) AddGroupMembers(ctx context.Context, groupID int32, members []int64) error {
	return s.updateGroup(ctx, groupID, bson.M{"$push": bson.M{"group_members": bson.M{"$each": members}}})
}

func (s *MongoStore) RemoveGroupMembers(ctx context.Context, groupID int32, members []int64) error {
	return s.updateGroup(ctx, groupID, bson.M{"$pull": bson.M{"group_members": bson.M{"$in": members}}})
}

func (s *MongoStore) PushGroupRef(ctx context.Context, phone int64, ref models.GroupRef) error {
	return s.updateAccount(ctx, bson.M{"_id": phone}, bson.M{"$push": bson.M{"groups": ref}})
}

func (s *MongoStore) PullGroupRef(ctx context.Context, phone int64, groupID int32) error {
	return s.updateAccount(ctx, bson.M{"_id": phone}, bson.M{"$pull": bson.M{"groups": bson.M{"groupID": groupID}}})
}

func (s *MongoStore) FetchGroupsAndChats(ctx context.Context, phone int64) ([]models.GroupWithUnread, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": phone}}},
		bson.D{{Key: "$unwind", Value: "$groups"}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         groupsCollection,
			"localField":   "groups.groupID",
			"foreignField": "_id",
			"as":           "groupInfo",
		}}},
		bson.D{{Key: "$unwind", Value: "$groupInfo"}},
		bson.D{{Key: "$project", Value: bson.M{
			"_id":                   "$groupInfo._id",
			"group_name":            "$groupInfo.group_name",
			"group_unread_messages": "$groups.group_unread_messages",
			"group_image_url":       "$groupInfo.group_image_url",
			"group_admin":           "$groupInfo.group_admin",
			"group_members":         "$groupInfo.group_members",
			"group_messages":        "$groupInfo.group_messages",
		}}},
	}

	cursor, err := s.db.Collection(accountsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating groups and chats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.GroupWithUnread
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("error decoding groups and chats: %w", err)
	}
	return results, nil
}

func (s *MongoStore) IncrementGroupUnread(ctx context.Context, phone int64, groupID int32) error {
	return s.updateAccount(ctx,
		bson.M{"_id": phone, "groups.groupID": groupID},
		bson.M{"$inc": bson.M{"groups.$.group_unread_messages": 1}})
}

func (s *MongoStore) ResetGroupUnread(ctx context.Context, phone int64, groupID int32) error {
	return s.updateAccount(ctx,
		bson.M{"_id": phone, "groups.groupID": groupID},
		bson.M{"$set": bson.M{"groups.$.group_unread_messages": 0}})
}

func (s *MongoStore) AppendGroupMessage(ctx context.Context, groupID int32, msg models.GroupMessage) error {
	return s.updateGroup(ctx, groupID, bson.M{"$push": bson.M{"group_messages": msg}})
}

func (s *MongoStore) PullGroupMessage(ctx context.Context, groupID int32, fullTime string) error {
	return s.updateGroup(ctx, groupID, bson.M{"$pull": bson.M{"group_messages": bson.M{"time": fullTime}}})
}

// DeleteAccount runs the cascade without a transaction. Each step is
// best-effort: failures are logged and the remaining steps still run, so a
// re-run after a partial failure completes the delete.
func (s *MongoStore) DeleteAccount(ctx context.Context, phone int64) error {
	acc, err := s.FindAccount(ctx, phone)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}

	accounts := s.db.Collection(accountsCollection)
	groups := s.db.Collection(groupsCollection)
	chats := s.db.Collection(chatsCollection)

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	for _, ref := range acc.Groups {
		_, err := groups.UpdateOne(opCtx,
			bson.M{"_id": ref.GroupID},
			bson.M{"$pull": bson.M{"group_members": phone}})
		if err != nil {
			s.log.Error().Err(err).Int32("group", ref.GroupID).Int64("phone", phone).
				Msg("delete cascade: failed to pull account from group")
		}
	}

	for _, ref := range acc.Contacts {
		_, err := accounts.UpdateMany(opCtx,
			bson.M{"contacts.chatID": ref.ChatID},
			bson.M{"$pull": bson.M{"contacts": bson.M{"chatID": ref.ChatID}}})
		if err != nil {
			s.log.Error().Err(err).Int32("chat", ref.ChatID).
				Msg("delete cascade: failed to pull contact entries")
			continue
		}

		if _, err := chats.DeleteOne(opCtx, bson.M{"_id": ref.ChatID}); err != nil {
			s.log.Error().Err(err).Int32("chat", ref.ChatID).
				Msg("delete cascade: failed to delete chat")
		}
	}

	if _, err := accounts.DeleteOne(opCtx, bson.M{"_id": phone}); err != nil {
		return fmt.Errorf("error deleting account: %w", err)
	}

	return nil
}
