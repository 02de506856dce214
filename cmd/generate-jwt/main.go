// Command generate-jwt mints a dashboard token for local testing:
//
//	JWT_SECRET_KEY=... go run ./cmd/generate-jwt -user u-1 -role ADMIN
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/logiflow/dispatch-backend/internal/auth"
	"github.com/logiflow/dispatch-backend/types"
)

func main() {
	userID := flag.String("user", "", "User ID placed in the sub claim")
	role := flag.String("role", string(types.RoleManager), "ADMIN, MANAGER or VIEWER")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("JWT_SECRET_KEY is not set")
	}

	token, err := auth.IssueToken(secret, *userID, types.Role(*role), *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
