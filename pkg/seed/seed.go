// Package seed bootstraps accounts from a YAML file at startup.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// User is one account in the seed file. Password is plaintext and is hashed on apply.
type User struct {
	Email     string      `yaml:"email"`
	FirstName string      `yaml:"firstName"`
	LastName  string      `yaml:"lastName"`
	Password  string      `yaml:"password"`
	Role      models.Role `yaml:"role"`
}

// File is the parsed seed file.
type File struct {
	Users []User `yaml:"users"`
}

// UserStore creates users unless their email is already taken.
type UserStore interface {
	UpsertByEmail(ctx context.Context, user *models.User) (bool, error)
}

// Hasher hashes plaintext passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// Load reads and checks a seed file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	var errs []error
	for i := range f.Users {
		u := &f.Users[i]
		u.Email = models.NormalizeEmail(u.Email)
		if u.Role == "" {
			u.Role = models.RoleStudent
		}
		switch {
		case u.Email == "":
			errs = append(errs, fmt.Errorf("users[%d]: email is required", i))
		case u.Password == "":
			errs = append(errs, fmt.Errorf("users[%d] %s: password is required", i, u.Email))
		case !u.Role.IsValid():
			errs = append(errs, fmt.Errorf("users[%d] %s: invalid role %q", i, u.Email, u.Role))
		}
	}
	return errors.Join(errs...)
}

// Apply creates every seeded user that does not exist yet. Existing accounts
// are left untouched, so running it on every start is safe.
func Apply(ctx context.Context, store UserStore, hasher Hasher, f *File, logger *zap.Logger) (int, error) {
	created := 0
	for _, u := range f.Users {
		hash, err := hasher.Hash(u.Password)
		if err != nil {
			return created, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}

		ok, err := store.UpsertByEmail(ctx, &models.User{
			Email:     u.Email,
			Password:  hash,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.Role,
			IsActive:  true,
		})
		if err != nil {
			return created, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if ok {
			created++
			logger.Info("Seeded user", zap.String("email", u.Email), zap.String("role", string(u.Role)))
		}
	}
	return created, nil
}
