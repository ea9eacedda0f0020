// Package store holds the gorm-backed user and catalog repositories.
package store

import (
	"errors"
	"strconv"
)

var (
	// ErrNotFound is returned when a user or product does not exist for the caller.
	ErrNotFound = errors.New("store: not found")
	// ErrEmailTaken is returned by UserStore.Create for a registered email.
	ErrEmailTaken = errors.New("store: email already registered")
	// ErrDuplicate is returned when a unique column other than email collides.
	ErrDuplicate = errors.New("store: already exists")
	// ErrInvalidCredentials is returned by UserStore.Authenticate.
	ErrInvalidCredentials = errors.New("store: invalid email or password")
)

func catalogKey(userID uint) string {
	return "catalog:user:" + strconv.FormatUint(uint64(userID), 10)
}
