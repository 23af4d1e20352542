package service

import (
	"strings"

	"github.com/google/uuid"
)

// Logger is the minimal logging dependency for application services.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// newID returns a fresh entity id
func newID() string {
	return uuid.NewString()
}

// newReferenceNumber builds a human-readable reference like "REQ-1A2B3C4D"
func newReferenceNumber(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}
