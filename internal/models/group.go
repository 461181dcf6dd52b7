package models

import "time"

// Group represents a chat group row.
type Group struct {
	ID         int       `db:"group_id" json:"group_id"`
	Name       string    `db:"name" json:"name"`
	GroupImage *string   `db:"group_image" json:"group_image"`
	AdminID    int       `db:"admin_id" json:"admin_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// GroupRow is a group joined with the data needed to present it to one viewer.
type GroupRow struct {
	Group
	MemberCount    int     `db:"member_count"`
	OtherFirstName *string `db:"other_first_name"`
	OtherLastName  *string `db:"other_last_name"`
	OtherAvatar    *string `db:"other_avatar"`
}

// GroupSummary is the API view of a group for a given viewer.
type GroupSummary struct {
	ID          int       `json:"group_id"`
	Name        string    `json:"name"`
	GroupImage  *string   `json:"group_image"`
	AdminID     int       `json:"admin_id"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int       `json:"member_count"`
	IsDirect    bool      `json:"is_direct"`
}

// Member is a user listed as part of a group.
type Member struct {
	UserID        int     `db:"user_id" json:"user_id"`
	FirstName     string  `db:"first_name" json:"first_name"`
	LastName      string  `db:"last_name" json:"last_name"`
	Email         string  `db:"email" json:"email"`
	ProfilePicURL *string `db:"profile_pic_url" json:"profile_pic_url"`
}

// RemovalOutcome describes what a member removal did to a group.
type RemovalOutcome struct {
	Removed         []int
	PreviousMembers []int
	Cascaded        bool
}

// GroupDeletedPayload is sent to personal rooms when a group disappears.
type GroupDeletedPayload struct {
	GroupID int `json:"group_id"`
}
