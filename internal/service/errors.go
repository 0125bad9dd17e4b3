package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotOwner           = errors.New("not the author")

	// Bookmark/subscription conflicts (spec'd as client errors, not 409s)
	ErrAlreadyExists = errors.New("already exists")
	ErrNotExists     = errors.New("does not exist")
	ErrSelfSubscribe = errors.New("cannot subscribe to yourself")
)

// FieldErrors carries validation failures keyed by request field, the way
// the API reports them.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	return fmt.Sprintf("validation failed: %v", map[string][]string(e))
}

func fieldError(field, msg string) FieldErrors {
	return FieldErrors{field: {msg}}
}

// translateConflict maps unique-index violations onto ErrAlreadyExists.
// Two concurrent identical inserts can both pass the existence check; the
// loser's constraint error must still surface as the same client error.
func translateConflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}
