package collab

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/odontoforense/case-api/api"
	"github.com/odontoforense/case-api/databases"
	"github.com/odontoforense/case-api/models"
)

const (
	// MaxContentLength is the longest chat message accepted, in runes
	MaxContentLength = 4000
	// DefaultHistoryLimit is the page size used when a caller does not ask for one
	DefaultHistoryLimit = 50
	// MaxHistoryLimit caps the page size of a single history query
	MaxHistoryLimit = 200
)

// ErrInvalidContent is returned for messages that are empty or too long
var ErrInvalidContent = errors.New("invalid message content")

// MessageStore appends chat messages and pages through a case history
type MessageStore struct {
	Messages databases.MessageDatabase
	Users    databases.UserDatabase

	now func() time.Time
}

// NewMessageStore returns a store over the messages and users collections
func NewMessageStore(messages databases.MessageDatabase, users databases.UserDatabase) *MessageStore {
	return &MessageStore{
		Messages: messages,
		Users:    users,
		now:      time.Now,
	}
}

// Append validates and persists a message from senderID to caseID
func (ms *MessageStore) Append(ctx context.Context, caseID, senderID, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > MaxContentLength {
		return models.Message{}, ErrInvalidContent
	}

	msg := models.Message{
		ID:        primitive.NewObjectID(),
		CaseID:    caseID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: ms.timestamp(),
	}

	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()

	if _, err := ms.Messages.InsertOne(ctx, msg); err != nil {
		return models.Message{}, fmt.Errorf("failed to insert message: %w", err)
	}
	persistedTotal.Inc()
	return msg, nil
}

// History returns up to limit messages of caseID, oldest first, after skipping the skip
// most recent ones
func (ms *MessageStore) History(ctx context.Context, caseID string, limit, skip int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()

	messages, err := ms.Messages.Find(ctx, bson.M{"caseId": caseID}, databases.NewestFirst(limit, skip))
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// Views populates the sender of each message. Senders that cannot be resolved keep
// only their id.
func (ms *MessageStore) Views(ctx context.Context, messages []models.Message) []models.MessageView {
	senders := make(map[string]models.MessageSender)
	views := make([]models.MessageView, 0, len(messages))
	for _, m := range messages {
		sender, ok := senders[m.SenderID]
		if !ok {
			sender = ms.lookupSender(ctx, m.SenderID)
			senders[m.SenderID] = sender
		}
		views = append(views, m.View(sender))
	}
	return views
}

func (ms *MessageStore) lookupSender(ctx context.Context, senderID string) models.MessageSender {
	sender := models.MessageSender{ID: senderID}
	if ms.Users == nil {
		return sender
	}
	uID, err := primitive.ObjectIDFromHex(senderID)
	if err != nil {
		return sender
	}

	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()

	user, err := ms.Users.FindOne(ctx, bson.M{"_id": uID})
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			zap.S().Warnw("failed to populate message sender",
				"senderId", senderID,
				"error", err)
		}
		return sender
	}
	sender.Nome = user.Nome
	sender.Role = user.Role
	return sender
}

// timestamp is truncated to the millisecond precision mongo stores
func (ms *MessageStore) timestamp() time.Time {
	now := time.Now
	if ms.now != nil {
		now = ms.now
	}
	return now().UTC().Truncate(time.Millisecond)
}
