package membership

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chat-backend/internal/apperrors"
	"chat-backend/internal/models"
	"chat-backend/internal/observability"
	"chat-backend/internal/repositories"
	"chat-backend/internal/telemetry"
)

const directChatFallbackName = "Chat"

// Broadcaster fans events out to the live connections of a room and drops
// users from rooms they no longer belong to.
type Broadcaster interface {
	BroadcastToRoom(room, event string, payload any) int
	EvictUser(room string, userID int) int
}

// Notifier records a notification for a user.
type Notifier interface {
	Notify(ctx context.Context, userID int, n models.Notification) error
}

// Engine owns group lifecycle and membership rules.
type Engine struct {
	groups      repositories.GroupRepository
	users       repositories.UserRepository
	broadcaster Broadcaster
	notifier    Notifier
}

// NewEngine constructs an Engine. broadcaster and notifier may be nil.
func NewEngine(groups repositories.GroupRepository, users repositories.UserRepository, broadcaster Broadcaster, notifier Notifier) *Engine {
	return &Engine{groups: groups, users: users, broadcaster: broadcaster, notifier: notifier}
}

// CreateGroup creates a group owned by creatorID. With exactly two members
// the group is a direct chat and name may be empty.
func (e *Engine) CreateGroup(ctx context.Context, creatorID int, name string, memberIDs models.IDList) (models.GroupSummary, error) {
	ctx, span := startSpan(ctx, "membership.CreateGroup", creatorID, 0)
	defer span.End()

	ids := append(models.IDList{creatorID}, memberIDs.Unique().Without(creatorID)...)
	if len(ids) < 2 {
		return models.GroupSummary{}, apperrors.Validation("at least one other member is required")
	}

	users, err := e.loadUsers(ctx, ids)
	if err != nil {
		return models.GroupSummary{}, err
	}

	name = strings.TrimSpace(name)
	if len(ids) == 2 {
		if name == "" {
			name = displayName(users[ids[1]].FullName())
		}
	} else if name == "" {
		return models.GroupSummary{}, apperrors.Validation("group name is required")
	}

	group, err := e.groups.CreateGroup(ctx, creatorID, name, ids.Ints())
	if err != nil {
		span.RecordError(err)
		return models.GroupSummary{}, apperrors.Storage("failed to create group", err)
	}
	log.Printf("group created: group_id=%d admin_id=%d members=%d", group.ID, creatorID, len(ids))

	members := make([]models.Member, 0, len(ids))
	for _, id := range ids {
		members = append(members, memberFromUser(users[id]))
	}

	creator := users[creatorID]
	for _, id := range ids[1:] {
		summary := summaryFor(group, members, id)
		e.emitToUser(id, models.EventGroupCreated, summary)
		e.notifyInvite(ctx, id, creator, summary)
	}
	publishGroupEvent(ctx, models.EventGroupCreated, group.ID, ids.Ints())

	return summaryFor(group, members, creatorID), nil
}

// AddMembers adds users to a group. Existing members are skipped.
func (e *Engine) AddMembers(ctx context.Context, groupID, requesterID int, memberIDs models.IDList) ([]int, error) {
	ctx, span := startSpan(ctx, "membership.AddMembers", requesterID, groupID)
	defer span.End()

	group, err := e.requireAdmin(ctx, groupID, requesterID)
	if err != nil {
		return nil, err
	}
	memberIDs = memberIDs.Unique()
	if len(memberIDs) == 0 {
		return nil, apperrors.Validation("memberIds must contain at least one user id")
	}

	if _, err := e.loadUsers(ctx, memberIDs); err != nil {
		return nil, err
	}

	added, err := e.groups.AddMembers(ctx, groupID, memberIDs.Ints())
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, apperrors.NotFound("group not found")
		}
		return nil, apperrors.Storage("failed to add members", err)
	}
	if len(added) == 0 {
		return added, nil
	}

	members, err := e.groups.ListMembers(ctx, groupID)
	if err != nil {
		log.Printf("group_added summary lookup failed: group_id=%d err=%v", groupID, err)
		return added, nil
	}
	admin, _ := e.users.GetUser(ctx, group.AdminID)
	for _, id := range added {
		summary := summaryFor(group, members, id)
		e.emitToUser(id, models.EventGroupAdded, summary)
		e.notifyInvite(ctx, id, admin, summary)
	}
	publishGroupEvent(ctx, models.EventGroupAdded, groupID, added)

	return added, nil
}

// RemoveMembers removes users from a group. The admin is never removed; if
// only the admin remains the group is deleted entirely.
func (e *Engine) RemoveMembers(ctx context.Context, groupID, requesterID int, memberIDs models.IDList) (models.RemovalOutcome, error) {
	ctx, span := startSpan(ctx, "membership.RemoveMembers", requesterID, groupID)
	defer span.End()

	group, err := e.requireAdmin(ctx, groupID, requesterID)
	if err != nil {
		return models.RemovalOutcome{}, err
	}

	if len(memberIDs) == 0 {
		return models.RemovalOutcome{}, apperrors.Validation("memberIds must contain at least one user id")
	}
	targets := memberIDs.Unique().Without(group.AdminID)
	if len(targets) == 0 {
		return models.RemovalOutcome{}, apperrors.Validation("cannot remove group admin")
	}

	outcome, err := e.groups.RemoveMembers(ctx, groupID, targets.Ints())
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return models.RemovalOutcome{}, apperrors.NotFound("group not found")
		}
		span.RecordError(err)
		return models.RemovalOutcome{}, apperrors.Storage("failed to remove members", err)
	}
	span.SetAttributes(attribute.Bool("cascaded", outcome.Cascaded))

	if outcome.Cascaded {
		observability.IncGroupCascadeDelete()
		log.Printf("group deleted after last member removal: group_id=%d admin_id=%d", groupID, group.AdminID)
		e.evict(groupID, outcome.PreviousMembers)
		e.emitDeleted(ctx, groupID, outcome.PreviousMembers)
	} else {
		e.evict(groupID, outcome.Removed)
	}
	return outcome, nil
}

// DeleteGroup removes a group with all of its messages and memberships.
func (e *Engine) DeleteGroup(ctx context.Context, groupID, requesterID int) error {
	ctx, span := startSpan(ctx, "membership.DeleteGroup", requesterID, groupID)
	defer span.End()

	if _, err := e.requireAdmin(ctx, groupID, requesterID); err != nil {
		return err
	}

	previous, err := e.groups.DeleteGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return apperrors.NotFound("group not found")
		}
		span.RecordError(err)
		return apperrors.Storage("failed to delete group", err)
	}
	log.Printf("group deleted: group_id=%d by=%d", groupID, requesterID)
	e.evict(groupID, previous)
	e.emitDeleted(ctx, groupID, previous)
	return nil
}

// ListGroupsForUser returns the user's groups as that user sees them.
func (e *Engine) ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error) {
	rows, err := e.groups.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("failed to load groups", err)
	}
	out := make([]models.GroupSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, summaryFromRow(row))
	}
	return out, nil
}

// ListMembers returns a group's members. The viewer must be one of them.
func (e *Engine) ListMembers(ctx context.Context, groupID, viewerID int) ([]models.Member, error) {
	if err := e.requireMember(ctx, groupID, viewerID); err != nil {
		return nil, err
	}
	members, err := e.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, apperrors.Storage("failed to load members", err)
	}
	return members, nil
}

// IsMember reports whether userID belongs to groupID.
func (e *Engine) IsMember(ctx context.Context, groupID, userID int) (bool, error) {
	return e.groups.IsMember(ctx, groupID, userID)
}

func (e *Engine) requireMember(ctx context.Context, groupID, userID int) error {
	member, err := e.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return apperrors.Storage("failed to check membership", err)
	}
	if !member {
		return apperrors.Forbidden("not a member of this group")
	}
	return nil
}

// requireAdmin runs before any mutation: a missing group is NotFound and a
// non-admin requester is Forbidden.
func (e *Engine) requireAdmin(ctx context.Context, groupID, requesterID int) (models.Group, error) {
	group, err := e.groups.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return models.Group{}, apperrors.NotFound("group not found")
		}
		return models.Group{}, apperrors.Storage("failed to load group", err)
	}
	if group.AdminID != requesterID {
		return models.Group{}, apperrors.Forbidden("only the group admin can do this")
	}
	return group, nil
}

func (e *Engine) loadUsers(ctx context.Context, ids models.IDList) (map[int]models.User, error) {
	found, err := e.users.GetUsersByIDs(ctx, ids.Ints())
	if err != nil {
		return nil, apperrors.Storage("failed to load users", err)
	}
	users := make(map[int]models.User, len(found))
	for _, u := range found {
		users[u.ID] = u
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return nil, apperrors.NotFound(fmt.Sprintf("user %d not found", id))
		}
	}
	return users, nil
}

func (e *Engine) emitToUser(userID int, event string, payload any) {
	if e.broadcaster == nil {
		return
	}
	e.broadcaster.BroadcastToRoom(models.UserRoom(userID), event, payload)
}

// evict takes userIDs' live connections out of the group room.
func (e *Engine) evict(groupID int, userIDs []int) {
	if e.broadcaster == nil {
		return
	}
	room := models.GroupRoom(groupID)
	for _, id := range userIDs {
		e.broadcaster.EvictUser(room, id)
	}
}

func (e *Engine) emitDeleted(ctx context.Context, groupID int, previous []int) {
	payload := models.GroupDeletedPayload{GroupID: groupID}
	for _, id := range previous {
		e.emitToUser(id, models.EventGroupDeleted, payload)
	}
	publishGroupEvent(ctx, models.EventGroupDeleted, groupID, previous)
}

func (e *Engine) notifyInvite(ctx context.Context, userID int, from models.User, group models.GroupSummary) {
	if e.notifier == nil {
		return
	}
	n := models.Notification{
		Type:    models.NotificationGroupInvite,
		Message: inviteMessage(from, group),
		Group:   &group,
	}
	if from.ID != 0 {
		public := from.Public()
		n.FromUser = &public
	}
	if err := e.notifier.Notify(ctx, userID, n); err != nil {
		log.Printf("group invite notification failed: user_id=%d group_id=%d err=%v", userID, group.ID, err)
	}
}

func inviteMessage(from models.User, group models.GroupSummary) string {
	who := from.FullName()
	if who == "" {
		who = "Someone"
	}
	if group.IsDirect {
		return who + " started a chat with you"
	}
	return fmt.Sprintf("%s added you to %s", who, group.Name)
}

func startSpan(ctx context.Context, name string, userID, groupID int) (context.Context, trace.Span) {
	ctx, span := telemetry.Tracer().Start(ctx, name)
	span.SetAttributes(attribute.Int("user.id", userID))
	if groupID != 0 {
		span.SetAttributes(attribute.Int("group.id", groupID))
	}
	return ctx, span
}

func publishGroupEvent(ctx context.Context, name string, groupID int, userIDs []int) {
	_ = observability.PublishEvent(ctx, observability.RoutingKeyGroupEvents+"."+name,
		observability.NewEnvelope("group_events", name, map[string]interface{}{
			"group_id": groupID,
			"user_ids": userIDs,
		}), observability.BuildHeaders("", telemetry.TraceIDFromContext(ctx)))
}
