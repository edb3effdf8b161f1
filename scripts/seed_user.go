package main

import (
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/odontoforense/case-api/api"
	"github.com/odontoforense/case-api/models"
)

// Prints a users document with a bcrypt senha, plus a token for it when JWT_SECRET is set
// Usage: go run scripts/seed_user.go <email> <senha> [role]
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run scripts/seed_user.go <email> <senha> [perito|admin|assistente]")
		os.Exit(1)
	}

	role := models.RolePerito
	if len(os.Args) > 3 {
		role = os.Args[3]
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(os.Args[2]), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Nome:      os.Args[1],
		Email:     os.Args[1],
		Senha:     string(hashed),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	fmt.Printf("To create the user in MongoDB, run:\n")
	fmt.Printf("db.users.insertOne({\n")
	fmt.Printf("  _id: ObjectId(\"%s\"),\n", user.ID.Hex())
	fmt.Printf("  nome: \"%s\", email: \"%s\", role: \"%s\",\n", user.Nome, user.Email, user.Role)
	fmt.Printf("  senha: \"%s\",\n", user.Senha)
	fmt.Printf("  createdAt: new Date(), updatedAt: new Date()\n")
	fmt.Printf("})\n")

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return
	}
	token, err := api.TokenVerifier{Secret: []byte(secret), TTL: 24 * time.Hour}.Issue(user)
	if err != nil {
		fmt.Printf("Error issuing token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nToken (24h): %s\n", token)
	fmt.Printf("Connect with: ws://localhost:8080/ws?token=%s\n", token)
}
