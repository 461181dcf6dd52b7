package models

import (
	"strings"
	"time"
)

// User is an account row. PasswordHash never leaves the service.
type User struct {
	ID            int       `db:"user_id" json:"user_id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone"`
	PasswordHash  string    `db:"password" json:"-"`
	ProfilePicURL *string   `db:"profile_pic_url" json:"profile_pic_url"`
	Theme         string    `db:"theme" json:"theme"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// FullName joins first and last name, trimming blanks.
func (u User) FullName() string {
	return JoinName(u.FirstName, u.LastName)
}

// JoinName builds a display name out of optional name parts.
func JoinName(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// ProfileUpdate carries optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Theme     *string
}
