package model

import "time"

type User struct {
	UserID    int64
	Username  string
	CreatedAt time.Time
}

// Credentials is the stored hash material for one user. Hash and salt are
// hex-encoded.
type Credentials struct {
	UserID       int64
	PasswordHash string
	Salt         string
}
