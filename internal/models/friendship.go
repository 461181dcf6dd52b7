package models

import "time"

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Friendship is a directed (user, friend) row.
type Friendship struct {
	UserID    int       `db:"user_id" json:"user_id"`
	FriendID  int       `db:"friend_id" json:"friend_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Friend is a user seen through a friendship row.
type Friend struct {
	UserID        int     `db:"user_id" json:"user_id"`
	FirstName     string  `db:"first_name" json:"first_name"`
	LastName      string  `db:"last_name" json:"last_name"`
	Email         string  `db:"email" json:"email"`
	ProfilePicURL *string `db:"profile_pic_url" json:"profile_pic_url"`
	Status        string  `db:"status" json:"status"`
}
