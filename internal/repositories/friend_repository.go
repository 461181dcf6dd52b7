package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-backend/internal/models"
)

var (
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrNoPendingRequest   = errors.New("no pending friend request")
)

// FriendRepository abstracts friendship persistence.
type FriendRepository interface {
	GetFriendship(ctx context.Context, userID int, friendID int) (models.Friendship, error)
	CreateRequest(ctx context.Context, fromID int, toID int) (bool, error)
	AcceptRequest(ctx context.Context, fromID int, toID int) error
	RejectRequest(ctx context.Context, fromID int, toID int) (int64, error)
	ListFriends(ctx context.Context, userID int) ([]models.Friend, error)
	ListIncomingRequests(ctx context.Context, userID int) ([]models.Friend, error)
}

// FriendRepo is a sqlx implementation of FriendRepository.
type FriendRepo struct {
	db *sqlx.DB
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

// GetFriendship fetches the directed row (userID, friendID).
func (r *FriendRepo) GetFriendship(ctx context.Context, userID int, friendID int) (models.Friendship, error) {
	var f models.Friendship
	err := r.db.GetContext(ctx, &f, `SELECT user_id, friend_id, status, created_at FROM friendships WHERE user_id=$1 AND friend_id=$2`, userID, friendID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrFriendshipNotFound
	}
	return f, err
}

// CreateRequest inserts a pending row from -> to. It reports false when a row
// for the pair already exists.
func (r *FriendRepo) CreateRequest(ctx context.Context, fromID int, toID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO friendships (user_id, friend_id, status) VALUES ($1, $2, 'pending')
        ON CONFLICT (user_id, friend_id) DO NOTHING`, fromID, toID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AcceptRequest turns the pending row from -> to into an accepted, symmetric
// relationship.
func (r *FriendRepo) AcceptRequest(ctx context.Context, fromID int, toID int) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE friendships SET status = 'accepted' WHERE user_id = $1 AND friend_id = $2 AND status = 'pending'`, fromID, toID)
		if err != nil {
			return err
		}
		count, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNoPendingRequest
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO friendships (user_id, friend_id, status) VALUES ($1, $2, 'accepted')
            ON CONFLICT (user_id, friend_id) DO UPDATE SET status = 'accepted'`, toID, fromID)
		return err
	})
}

// RejectRequest deletes pending rows between the pair in either direction.
func (r *FriendRepo) RejectRequest(ctx context.Context, fromID int, toID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friendships
        WHERE status = 'pending'
          AND ((user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1))`, fromID, toID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListFriends returns accepted friends of a user.
func (r *FriendRepo) ListFriends(ctx context.Context, userID int) ([]models.Friend, error) {
	friends := []models.Friend{}
	err := r.db.SelectContext(ctx, &friends, `SELECT u.user_id, u.first_name, u.last_name, u.email, u.profile_pic_url, f.status
        FROM friendships f
        JOIN users u ON u.user_id = f.friend_id
        WHERE f.user_id = $1 AND f.status = 'accepted'
        ORDER BY u.first_name, u.last_name`, userID)
	return friends, err
}

// ListIncomingRequests returns users with a pending request to userID.
func (r *FriendRepo) ListIncomingRequests(ctx context.Context, userID int) ([]models.Friend, error) {
	requests := []models.Friend{}
	err := r.db.SelectContext(ctx, &requests, `SELECT u.user_id, u.first_name, u.last_name, u.email, u.profile_pic_url, f.status
        FROM friendships f
        JOIN users u ON u.user_id = f.user_id
        WHERE f.friend_id = $1 AND f.status = 'pending'
        ORDER BY f.created_at DESC`, userID)
	return requests, err
}
