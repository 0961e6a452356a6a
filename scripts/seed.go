package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"shareit/internal/clock"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// SeedConfig lists users together with the items they own.
type SeedConfig struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Name  string        `yaml:"name"`
	Email string        `yaml:"email"`
	Items []models.Item `yaml:"items"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("seed", "configs/seed.yaml", "path to seed.yaml")
		dbPath   = flag.String("db", "./data/shareit.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var cfg SeedConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if len(cfg.Users) == 0 {
		return fmt.Errorf("no users in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := service.NewUserService(db, &logger)
	items := service.NewItemService(db, nil, clock.NewSystem(), &logger)

	var createdUsers, createdItems, skipped int
	for _, u := range cfg.Users {
		user, err := users.RegisterUser(ctx, &models.User{Name: u.Name, Email: u.Email})
		if errors.Is(err, domain.ErrEmailTaken) {
			// Items of an existing user were seeded with it.
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("create user %s: %w", u.Email, err)
		}
		createdUsers++

		for i := range u.Items {
			if _, err := items.CreateItem(ctx, user.ID, &u.Items[i]); err != nil {
				return fmt.Errorf("create item %s: %w", u.Items[i].Name, err)
			}
			createdItems++
		}
	}

	fmt.Printf("done: users=%d items=%d skipped=%d\n", createdUsers, createdItems, skipped)
	return nil
}
