package models

import "time"

// Password is a stored credential: a random per-user salt and the key derived
// from (password, salt). Both buffers are kept as raw bytes.
type Password struct {
	Salt []byte
	Hash []byte
}

type User struct {
	ID        string
	Username  string
	Fullname  string
	Password  Password
	Favorites []string
	CreatedAt time.Time
}
