package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "exact match", allowed: []string{"http://localhost:8080"}, origin: "http://localhost:8080", want: true},
		{name: "case insensitive", allowed: []string{"HTTP://LocalHost:8080"}, origin: "http://localhost:8080", want: true},
		{name: "different port", allowed: []string{"http://localhost:8080"}, origin: "http://localhost:9090"},
		{name: "different scheme", allowed: []string{"http://localhost:8080"}, origin: "https://localhost:8080"},
		{name: "missing origin", allowed: []string{"http://localhost:8080"}, origin: ""},
		{name: "malformed origin", allowed: []string{"http://localhost:8080"}, origin: "not an origin"},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://anywhere.example", want: true},
		{name: "wildcard without origin", allowed: []string{"*"}, origin: "", want: true},
		{name: "wildcard with malformed origin", allowed: []string{"*"}, origin: "not an origin", want: true},
		{name: "invalid entries ignored", allowed: []string{"localhost", " ", "https://ok.example"}, origin: "https://ok.example", want: true},
		{name: "empty allow-list", allowed: nil, origin: "http://localhost:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := newOriginPolicy(tt.allowed, testLogger())

			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			require.Equal(t, tt.want, policy.allows(r))
			require.Equal(t, tt.want, policy.check(r))
		})
	}
}
