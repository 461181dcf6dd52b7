package models

const (
	NotificationFriendRequest = "FRIEND_REQUEST"
	NotificationGroupInvite   = "GROUP_INVITE"
)

// Notification is a pending alert kept for a user.
type Notification struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Message   string        `json:"message"`
	FromUser  *PublicUser   `json:"fromUser,omitempty"`
	Group     *GroupSummary `json:"group,omitempty"`
	CreatedAt string        `json:"created_at"`
}

// PublicUser is the subset of a user shared with other users.
type PublicUser struct {
	UserID        int     `json:"user_id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Email         string  `json:"email"`
	ProfilePicURL *string `json:"profile_pic_url"`
}

// Public strips private fields from a user.
func (u User) Public() PublicUser {
	return PublicUser{
		UserID:        u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		ProfilePicURL: u.ProfilePicURL,
	}
}
