// Package server issues credentials for new usernames; the issued secret is
// what a client presents in its handshake.
package server

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const maxUsernameLength = 64

var validate = validator.New()

// RegisterRequest carries a username to register.
type RegisterRequest struct {
	Username string `validate:"required,max=64,excludes=:"`
}

// ValidateRegister checks the username rules; the handshake delimiter is never
// allowed in a username.
func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidUsername, describeUsernameRule(verrs[0].Tag()))
		}
		return fmt.Errorf("%w: %v", ErrInvalidUsername, err)
	}
	return nil
}

func describeUsernameRule(tag string) string {
	switch tag {
	case "required":
		return "username is required"
	case "max":
		return fmt.Sprintf("username must be at most %d characters", maxUsernameLength)
	case "excludes":
		return "username cannot contain ':'"
	default:
		return "username contains invalid characters"
	}
}

// RegisterUser validates username and stores a fresh secret for it.
func RegisterUser(store CredentialStore, username string) (string, error) {
	if err := ValidateRegister(RegisterRequest{Username: username}); err != nil {
		return "", err
	}

	secret := NewSecret()
	if !store.TryInsert(username, secret) {
		return "", ErrUsernameTaken
	}
	return secret, nil
}
