package models

import "time"

// ActivationCodeLength is the exact length of the code mailed to a
// registering user. Activation compares codes case-sensitively.
const ActivationCodeLength = 32

// PendingUser is a registered-but-unactivated account. It is promoted to
// a User on successful activation and silently dropped once CreatedAt is
// older than the configured expiry window.
type PendingUser struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Code         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
