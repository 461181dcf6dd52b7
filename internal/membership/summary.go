package membership

import "chat-backend/internal/models"

func displayName(name string) string {
	if name == "" {
		return directChatFallbackName
	}
	return name
}

func memberFromUser(u models.User) models.Member {
	return models.Member{
		UserID:        u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		ProfilePicURL: u.ProfilePicURL,
	}
}

// summaryFor presents group to viewerID given its current members. Direct
// chats take the name and avatar of the other member.
func summaryFor(group models.Group, members []models.Member, viewerID int) models.GroupSummary {
	summary := models.GroupSummary{
		ID:          group.ID,
		Name:        group.Name,
		GroupImage:  group.GroupImage,
		AdminID:     group.AdminID,
		CreatedAt:   group.CreatedAt,
		MemberCount: len(members),
	}
	if len(members) != 2 {
		return summary
	}
	summary.IsDirect = true
	for _, m := range members {
		if m.UserID != viewerID {
			summary.Name = displayName(models.JoinName(m.FirstName, m.LastName))
			summary.GroupImage = m.ProfilePicURL
			break
		}
	}
	return summary
}

func summaryFromRow(row models.GroupRow) models.GroupSummary {
	summary := models.GroupSummary{
		ID:          row.ID,
		Name:        row.Name,
		GroupImage:  row.GroupImage,
		AdminID:     row.AdminID,
		CreatedAt:   row.CreatedAt,
		MemberCount: row.MemberCount,
	}
	if row.MemberCount != 2 {
		return summary
	}
	summary.IsDirect = true
	summary.Name = displayName(models.JoinName(deref(row.OtherFirstName), deref(row.OtherLastName)))
	summary.GroupImage = row.OtherAvatar
	return summary
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
