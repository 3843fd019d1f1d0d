// Package server validates the one-shot `username:secret` handshake that gates
// every connection.
package server

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-metrics"
)

// handshakeDelimiter separates username from secret in the first message.
const handshakeDelimiter = ":"

// Validator authenticates the first message of a connection against a
// CredentialStore and rotates the secret on success, so at most one login per
// issued secret ever succeeds.
type Validator struct {
	store     CredentialStore
	newSecret func() string
	msink     metrics.MetricSink
}

// NewValidator creates a Validator that rotates secrets with NewSecret.
func NewValidator(store CredentialStore, msink metrics.MetricSink) *Validator {
	if msink == nil {
		msink = &metrics.BlackholeSink{}
	}
	return &Validator{
		store:     store,
		newSecret: NewSecret,
		msink:     msink,
	}
}

// ParseCredentials splits msg on the first delimiter. Anything after it,
// further delimiters included, belongs to the secret.
func ParseCredentials(msg string) (username, secret string, ok bool) {
	return strings.Cut(msg, handshakeDelimiter)
}

// Validate returns the authenticated username, or an error wrapping
// ErrHandshakeFailed. The wrapped reason is for logs only.
func (v *Validator) Validate(msg string) (string, error) {
	username, err := v.validate(msg)
	if err != nil {
		v.msink.IncrCounter(MetricHandshakeErrorCount, 1)
		return "", err
	}
	v.msink.IncrCounter(MetricHandshakeCount, 1)
	return username, nil
}

func (v *Validator) validate(msg string) (string, error) {
	if msg == "" {
		return "", fmt.Errorf("%w: empty message", ErrHandshakeFailed)
	}

	username, secret, ok := ParseCredentials(msg)
	if !ok {
		return "", fmt.Errorf("%w: missing delimiter", ErrHandshakeFailed)
	}

	stored, ok := v.store.TryGet(username)
	if !ok {
		return "", fmt.Errorf("%w: unknown user", ErrHandshakeFailed)
	}

	if secret != stored {
		return "", fmt.Errorf("%w: secret mismatch", ErrHandshakeFailed)
	}

	// Keyed on the value read above: a concurrent login that rotated first
	// makes this swap fail.
	if !v.store.TryCompareAndSwap(username, stored, v.newSecret()) {
		return "", fmt.Errorf("%w: secret already rotated", ErrHandshakeFailed)
	}

	return username, nil
}
