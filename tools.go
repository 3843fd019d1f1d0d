//go:build tools
// +build tools

// Package chatrelay declares tool dependencies for this module.
//
// These imports are not used at runtime. They keep mockgen, invoked via
// `go generate ./...`, tracked in go.mod so generated mocks can be refreshed
// on a fresh checkout.
package chatrelay

import (
	_ "go.uber.org/mock/mockgen"
)
