package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message holds the structure for the messages collection in mongo
type Message struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	CaseID    string             `json:"caseId" bson:"caseId"`
	SenderID  string             `json:"sender" bson:"sender"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// MessageSender is the populated sender of a chat message
type MessageSender struct {
	ID   string `json:"_id"`
	Nome string `json:"nome,omitempty"`
	Role string `json:"role,omitempty"`
}

// MessageView is a chat message as delivered to clients, with the sender populated
type MessageView struct {
	ID        primitive.ObjectID `json:"_id"`
	CaseID    string             `json:"caseId"`
	Sender    MessageSender      `json:"sender"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"createdAt"`
}

// View populates the message sender with the given identity fields
func (m Message) View(sender MessageSender) MessageView {
	sender.ID = m.SenderID
	return MessageView{
		ID:        m.ID,
		CaseID:    m.CaseID,
		Sender:    sender,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
