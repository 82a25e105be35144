package dbModel

import "time"

type User struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}

type Credentials struct {
	UserID       int64  `db:"user_id"`
	PasswordHash string `db:"password_hash"`
	Salt         string `db:"salt"`
}
