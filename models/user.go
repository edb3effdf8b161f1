package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RolePerito     = "perito"
	RoleAdmin      = "admin"
	RoleAssistente = "assistente"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id"`
	Nome            string              `json:"nome" bson:"nome"`
	Email           string              `json:"email" bson:"email"`
	Senha           string              `json:"-" bson:"senha"`
	Role            string              `json:"role" bson:"role"`
	PeritoAfiliado  *primitive.ObjectID `json:"peritoAfiliado,omitempty" bson:"peritoAfiliado,omitempty"`
	ProfileImageURL string              `json:"profileImageUrl,omitempty" bson:"profileImageUrl,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Identity is the authenticated user behind a request or a live connection
type Identity struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"nome"`
}

// Identity returns the identity of the user
func (u User) Identity() Identity {
	return Identity{UserID: u.ID.Hex(), Role: u.Role, Name: u.Nome}
}

// CanUpdateStatus reports whether the identity may broadcast case status changes
func (i Identity) CanUpdateStatus() bool {
	return i.Role == RolePerito || i.Role == RoleAdmin
}
