//go:build tools
// +build tools

// Package tools declares tool dependencies for this module.
//
// These imports are not used at runtime. They pin mockgen, invoked through
// `go generate` on contract/contract.go, so go.mod and go.sum stay in sync.
package cine_chat

import (
	_ "go.uber.org/mock/mockgen"
)
