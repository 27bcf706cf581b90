// SPDX-License-Identifier: MPL-2.0

// Package side carries the logical execution side (client or server) of a
// call through its context.
package side

import (
	"context"
	"fmt"
	"strings"
)

const (
	// Client is the default side.
	Client Side = "CLIENT"
	// Server is the dedicated or integrated server side.
	Server Side = "SERVER"
)

type (
	// Side is a logical execution side.
	Side string

	ctxKey struct{}
)

// Parse converts a side name, case-insensitively.
func Parse(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case Client:
		return Client, nil
	case Server:
		return Server, nil
	default:
		return "", fmt.Errorf("invalid side %q (expected client or server)", s)
	}
}

// IsClient reports whether s is Client.
func (s Side) IsClient() bool { return s == Client }

// IsServer reports whether s is Server.
func (s Side) IsServer() bool { return s == Server }

// String implements fmt.Stringer.
func (s Side) String() string { return string(s) }

// WithSide returns a context carrying s.
func WithSide(ctx context.Context, s Side) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Get returns the side carried by ctx, or Client when ctx carries none.
func Get(ctx context.Context) Side {
	if s, ok := ctx.Value(ctxKey{}).(Side); ok {
		return s
	}
	return Client
}
