package notification

import "time"

type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Notification is a transient user-facing message. Each one owns its
// removal timer; repeated identical messages stack.
type Notification struct {
	ID      string
	Type    Type
	Message string
	Timeout time.Duration
}

// DefaultTimeout varies by severity: errors linger so the user can
// read them, successes clear quickly.
func DefaultTimeout(t Type) time.Duration {
	switch t {
	case TypeError:
		return 8 * time.Second
	case TypeWarning:
		return 6 * time.Second
	default:
		return 4 * time.Second
	}
}
