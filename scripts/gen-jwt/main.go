// Mints a session token for a user id. Run: go run ./scripts/gen-jwt <user-id>
package main

import (
	"fmt"
	"os"

	"github.com/krishnaqnq/todo/internal/auth"
)

func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}
	userID := "test-user"
	if len(os.Args) > 1 {
		userID = os.Args[1]
	}

	sessions := auth.NewSessions(secret)
	signed, err := sessions.Issue(userID)
	if err != nil {
		panic(err)
	}

	fmt.Println(signed)
}
