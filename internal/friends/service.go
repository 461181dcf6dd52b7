package friends

import (
	"context"
	"errors"
	"log"

	"chat-backend/internal/apperrors"
	"chat-backend/internal/models"
	"chat-backend/internal/repositories"
)

// RequestStatus is the outcome of SendRequest.
type RequestStatus string

const (
	RequestSent           RequestStatus = "sent"
	RequestAlreadyPending RequestStatus = "already_pending"
)

// Notifier records a notification for a user.
type Notifier interface {
	Notify(ctx context.Context, userID int, n models.Notification) error
}

// Service implements friend requests on top of directed friendship rows.
type Service struct {
	friends  repositories.FriendRepository
	users    repositories.UserRepository
	notifier Notifier
}

func NewService(friends repositories.FriendRepository, users repositories.UserRepository, notifier Notifier) *Service {
	return &Service{friends: friends, users: users, notifier: notifier}
}

// SendRequest creates a pending request from fromID to toID. Repeating a
// pending request is a no-op.
func (s *Service) SendRequest(ctx context.Context, fromID, toID int) (RequestStatus, error) {
	if fromID == toID {
		return "", apperrors.Validation("cannot send a friend request to yourself")
	}

	sender, err := s.users.GetUser(ctx, fromID)
	if err != nil {
		return "", userLookupError(err, "sender not found")
	}
	if _, err := s.users.GetUser(ctx, toID); err != nil {
		return "", userLookupError(err, "user not found")
	}

	outgoing, err := s.lookup(ctx, fromID, toID)
	if err != nil {
		return "", err
	}
	incoming, err := s.lookup(ctx, toID, fromID)
	if err != nil {
		return "", err
	}
	switch {
	case outgoing == models.FriendshipAccepted || incoming == models.FriendshipAccepted:
		return "", apperrors.Conflict("already friends")
	case outgoing == models.FriendshipPending:
		return RequestAlreadyPending, nil
	case incoming == models.FriendshipPending:
		return "", apperrors.Conflict("this user already sent you a friend request")
	}

	created, err := s.friends.CreateRequest(ctx, fromID, toID)
	if err != nil {
		return "", apperrors.Storage("failed to send friend request", err)
	}
	if !created {
		return RequestAlreadyPending, nil
	}

	if s.notifier != nil {
		public := sender.Public()
		n := models.Notification{
			Type:     models.NotificationFriendRequest,
			Message:  sender.FirstName + " " + sender.LastName + " sent you a friend request",
			FromUser: &public,
		}
		if err := s.notifier.Notify(ctx, toID, n); err != nil {
			log.Printf("friend request notification failed: from=%d to=%d err=%v", fromID, toID, err)
		}
	}
	return RequestSent, nil
}

// Accept accepts the pending request fromID sent to userID.
func (s *Service) Accept(ctx context.Context, userID, fromID int) error {
	if err := s.friends.AcceptRequest(ctx, fromID, userID); err != nil {
		if errors.Is(err, repositories.ErrNoPendingRequest) {
			return apperrors.Conflict("no pending friend request")
		}
		return apperrors.Storage("failed to accept friend request", err)
	}
	return nil
}

// Reject removes pending requests between userID and fromID.
func (s *Service) Reject(ctx context.Context, userID, fromID int) error {
	deleted, err := s.friends.RejectRequest(ctx, fromID, userID)
	if err != nil {
		return apperrors.Storage("failed to reject friend request", err)
	}
	if deleted == 0 {
		return apperrors.Conflict("no pending friend request")
	}
	return nil
}

func (s *Service) ListFriends(ctx context.Context, userID int) ([]models.Friend, error) {
	list, err := s.friends.ListFriends(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("failed to load friends", err)
	}
	return list, nil
}

func (s *Service) ListRequests(ctx context.Context, userID int) ([]models.Friend, error) {
	list, err := s.friends.ListIncomingRequests(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("failed to load friend requests", err)
	}
	return list, nil
}

// lookup returns the status of the directed row, or "" if there is none.
func (s *Service) lookup(ctx context.Context, userID, friendID int) (string, error) {
	f, err := s.friends.GetFriendship(ctx, userID, friendID)
	if errors.Is(err, repositories.ErrFriendshipNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Storage("failed to load friendship", err)
	}
	return f.Status, nil
}

func userLookupError(err error, notFound string) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.NotFound(notFound)
	}
	return apperrors.Storage("failed to load user", err)
}
