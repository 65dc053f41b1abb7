// Seed registers a demo user and adds todos with items. Run from project
// root: go run ./scripts/seed
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/krishnaqnq/todo/internal/auth"
	"github.com/krishnaqnq/todo/internal/config"
	"github.com/krishnaqnq/todo/internal/database"
	"github.com/krishnaqnq/todo/internal/models"
	"github.com/krishnaqnq/todo/internal/repository"
)

const todoCount = 50

func main() {
	ctx := context.Background()
	cfg := config.Get()

	pool := database.NewPool(cfg.DatabaseURL, cfg.DBPoolSize)
	if _, err := pool.Get(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "DATABASE_URL not set or DB connection failed:", err)
		os.Exit(1)
	}
	if err := pool.Migrate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}

	users := repository.NewUserRepo(pool)
	todos := repository.NewTodoRepo(pool)
	hasher := auth.NewHasher()

	hash, err := hasher.Hash("seedpassword")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Hash failed:", err)
		os.Exit(1)
	}
	user, err := users.CreateUser(ctx, "Seed User", "seed@example.com", hash)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Create user failed (may already exist):", err)
		os.Exit(1)
	}

	start := time.Now()
	points := 3.0
	for n := 1; n <= todoCount; n++ {
		_, err := todos.Create(ctx, user.ID, repository.CreateTodoInput{
			Title: fmt.Sprintf("Todo %d", n),
			Items: []models.Item{
				{Name: fmt.Sprintf("Item %d.1", n), Status: models.StatusETS},
				{Name: fmt.Sprintf("Item %d.2", n), Status: models.StatusInProgress, Points: &points},
			},
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Create todo failed:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Seeded user %s with %d todos in %s\n", user.Email, todoCount, time.Since(start))
}
