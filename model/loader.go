// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tarnhelm/bfme2rpt/web/auth"
)

type jsonUser struct {
	Handle   string   `json:"handle"`
	UserName string   `json:"user-name"`
	Email    string   `json:"email"`
	Timezone string   `json:"tz"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// LoadUsersFromJSON seeds the users table from a JSON file. Only users
// carrying the active role are loaded; passwords are hashed before
// storage.
func (s *Store) LoadUsersFromJSON(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read users file: %w", err)
	}

	var users []jsonUser
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("parse users json: %w", err)
	}

	now := time.Now()
	for _, ju := range users {
		if !hasRole(ju.Roles, "active") {
			continue
		}

		hash, err := auth.HashPassword(ju.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", ju.Handle, err)
		}

		u := &User{
			Handle:       ju.Handle,
			UserName:     ju.UserName,
			Email:        ju.Email,
			Timezone:     ju.Timezone,
			PasswordHash: hash,
			CreatedAt:    now,
			Roles:        ju.Roles,
		}

		if err := s.InsertUser(ctx, u); err != nil {
			return fmt.Errorf("insert user %s: %w", ju.Handle, err)
		}
	}

	return nil
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
