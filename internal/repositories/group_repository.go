package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-backend/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, adminID int, name string, memberIDs []int) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupRow, error)
	IsMember(ctx context.Context, groupID int, userID int) (bool, error)
	ListMembers(ctx context.Context, groupID int) ([]models.Member, error)
	AddMembers(ctx context.Context, groupID int, userIDs []int) ([]int, error)
	RemoveMembers(ctx context.Context, groupID int, userIDs []int) (models.RemovalOutcome, error)
	DeleteGroup(ctx context.Context, groupID int) ([]int, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

const groupColumns = `group_id, name, group_image, admin_id, created_at`

// groupRowSelect yields one row per group visible to viewer $1, with the
// member count and the first other member's profile.
const groupRowSelect = `
SELECT g.group_id, g.name, g.group_image, g.admin_id, g.created_at,
       (SELECT COUNT(*) FROM group_memberships c WHERE c.group_id = g.group_id) AS member_count,
       o.first_name AS other_first_name,
       o.last_name AS other_last_name,
       o.profile_pic_url AS other_avatar
FROM chat_groups g
JOIN group_memberships gm ON gm.group_id = g.group_id AND gm.user_id = $1
LEFT JOIN LATERAL (
    SELECT u.first_name, u.last_name, u.profile_pic_url
    FROM group_memberships om
    JOIN users u ON u.user_id = om.user_id
    WHERE om.group_id = g.group_id AND om.user_id <> $1
    ORDER BY om.user_id
    LIMIT 1
) o ON TRUE`

// CreateGroup creates a group and its memberships atomically. The admin is
// always a member.
func (r *GroupRepo) CreateGroup(ctx context.Context, adminID int, name string, memberIDs []int) (models.Group, error) {
	memberSet := map[int]struct{}{adminID: {}}
	for _, id := range memberIDs {
		memberSet[id] = struct{}{}
	}
	ids := make([]int, 0, len(memberSet))
	for id := range memberSet {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var group models.Group
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, `INSERT INTO chat_groups (name, admin_id) VALUES ($1, $2) RETURNING `+groupColumns, name, adminID).
			StructScan(&group); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO group_memberships (group_id, user_id) SELECT $1, unnest($2::int[])`, group.ID, pq.Array(ids))
		return err
	})
	if err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM chat_groups WHERE group_id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// ListGroupsForUser returns groups that include the user, newest first.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupRow, error) {
	rows := []models.GroupRow{}
	err := r.db.SelectContext(ctx, &rows, groupRowSelect+` ORDER BY g.created_at DESC, g.group_id DESC`, userID)
	return rows, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_memberships WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// ListMembers returns the users currently in a group.
func (r *GroupRepo) ListMembers(ctx context.Context, groupID int) ([]models.Member, error) {
	members := []models.Member{}
	err := r.db.SelectContext(ctx, &members, `SELECT u.user_id, u.first_name, u.last_name, u.email, u.profile_pic_url
        FROM users u
        JOIN group_memberships gm ON u.user_id = gm.user_id
        WHERE gm.group_id = $1
        ORDER BY u.user_id`, groupID)
	return members, err
}

// AddMembers inserts memberships, skipping existing ones, and returns the ids
// that were actually added.
func (r *GroupRepo) AddMembers(ctx context.Context, groupID int, userIDs []int) ([]int, error) {
	added := []int{}
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		return tx.SelectContext(ctx, &added, `INSERT INTO group_memberships (group_id, user_id)
            SELECT $1, unnest($2::int[])
            ON CONFLICT (group_id, user_id) DO NOTHING
            RETURNING user_id`, groupID, pq.Array(userIDs))
	})
	if err != nil {
		return nil, err
	}
	sort.Ints(added)
	return added, nil
}

// RemoveMembers deletes the given memberships. When only the admin remains
// afterwards the whole group is deleted in the same transaction.
func (r *GroupRepo) RemoveMembers(ctx context.Context, groupID int, userIDs []int) (models.RemovalOutcome, error) {
	var out models.RemovalOutcome
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		adminID, err := lockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if out.PreviousMembers, err = memberIDs(ctx, tx, groupID); err != nil {
			return err
		}
		out.Removed = []int{}
		if err = tx.SelectContext(ctx, &out.Removed, `DELETE FROM group_memberships WHERE group_id = $1 AND user_id = ANY($2::int[]) RETURNING user_id`, groupID, pq.Array(userIDs)); err != nil {
			return err
		}
		sort.Ints(out.Removed)

		remaining, err := memberIDs(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if len(remaining) != 1 || remaining[0] != adminID {
			return nil
		}
		out.Cascaded = true
		return deleteGroupRows(ctx, tx, groupID)
	})
	if err != nil {
		return models.RemovalOutcome{}, err
	}
	return out, nil
}

// DeleteGroup deletes messages, memberships and the group row atomically and
// returns the members the group had.
func (r *GroupRepo) DeleteGroup(ctx context.Context, groupID int) ([]int, error) {
	var previous []int
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		var err error
		if previous, err = memberIDs(ctx, tx, groupID); err != nil {
			return err
		}
		return deleteGroupRows(ctx, tx, groupID)
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

// lockGroup takes a row lock on the group so membership mutations on the same
// group serialize, and returns the admin id.
func lockGroup(ctx context.Context, tx *sqlx.Tx, groupID int) (int, error) {
	var adminID int
	err := tx.GetContext(ctx, &adminID, `SELECT admin_id FROM chat_groups WHERE group_id = $1 FOR UPDATE`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrGroupNotFound
	}
	return adminID, err
}

func memberIDs(ctx context.Context, tx *sqlx.Tx, groupID int) ([]int, error) {
	ids := []int{}
	err := tx.SelectContext(ctx, &ids, `SELECT user_id FROM group_memberships WHERE group_id = $1 ORDER BY user_id`, groupID)
	return ids, err
}

func deleteGroupRows(ctx context.Context, tx *sqlx.Tx, groupID int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE group_id = $1`, groupID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_memberships WHERE group_id = $1`, groupID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM chat_groups WHERE group_id = $1`, groupID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrGroupNotFound
	}
	return nil
}
