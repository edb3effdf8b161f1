package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/odontoforense/case-api/databases"
	"github.com/odontoforense/case-api/models"
)

var (
	// ErrInvalidToken is returned for missing, malformed, badly signed or expired tokens
	ErrInvalidToken = errors.New("invalid_token")
	// ErrUserNotFound is returned when a valid token references a user that no longer exists
	ErrUserNotFound = errors.New("user_not_found")
)

// TokenVerifier resolves bearer tokens to the identity of an existing user
type TokenVerifier struct {
	Secret []byte
	TTL    time.Duration
	DB     databases.UserDatabase
}

// Verify validates the token and loads the user it was issued for
func (tv TokenVerifier) Verify(ctx context.Context, token string) (models.Identity, error) {
	if token == "" || len(tv.Secret) == 0 {
		return models.Identity{}, ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return tv.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return models.Identity{}, ErrInvalidToken
	}

	id, _ := claims["id"].(string)
	if id == "" {
		id, _ = claims.GetSubject()
	}
	uID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Identity{}, ErrInvalidToken
	}

	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	user, err := tv.DB.FindOne(ctx, bson.M{"_id": uID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Identity{}, ErrUserNotFound
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to find user: %w", err)
	}
	return user.Identity(), nil
}

// Issue signs a token for the user, valid for the verifier TTL
func (tv TokenVerifier) Issue(user models.User) (string, error) {
	if len(tv.Secret) == 0 {
		return "", errors.New("jwt secret is not set")
	}
	ttl := tv.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"id":   user.ID.Hex(),
		"sub":  user.ID.Hex(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tv.Secret)
}
