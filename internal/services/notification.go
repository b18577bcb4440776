package services

import (
	"context"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/templates"
)

type NotificationService struct {
	notificationRepo NotificationRepository
	userRepo         UserRepository
	outboxRepo       OutboxRepository
	tx               Transactor
	planner          *Planner
}

func NewNotificationService(notificationRepo NotificationRepository, userRepo UserRepository, outboxRepo OutboxRepository, tx Transactor, planner *Planner) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		outboxRepo:       outboxRepo,
		tx:               tx,
		planner:          planner,
	}
}

// List returns the caller's notifications, newest first. Admins also see
// rows addressed to every admin.
func (s *NotificationService) List(ctx context.Context, actor *model.Actor, unreadOnly bool, limit, offset int) ([]*model.Notification, int64, error) {
	if actor == nil {
		return nil, 0, ErrForbidden
	}
	return s.notificationRepo.List(ctx, model.NotificationFilter{
		UserID:       actor.UserID,
		IncludeAdmin: actor.Is(model.RoleAdmin),
		UnreadOnly:   unreadOnly,
		Limit:        limit,
		Offset:       offset,
	})
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor *model.Actor) (int64, error) {
	if actor == nil {
		return 0, ErrForbidden
	}
	return s.notificationRepo.CountUnread(ctx, actor.UserID, actor.Is(model.RoleAdmin))
}

func (s *NotificationService) MarkRead(ctx context.Context, actor *model.Actor, id int64) error {
	if actor == nil {
		return ErrForbidden
	}
	return s.notificationRepo.MarkRead(ctx, id, actor.UserID, actor.Is(model.RoleAdmin))
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor *model.Actor) (int64, error) {
	if actor == nil {
		return 0, ErrForbidden
	}
	return s.notificationRepo.MarkAllRead(ctx, actor.UserID, actor.Is(model.RoleAdmin))
}

func (s *NotificationService) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	if actor == nil {
		return ErrForbidden
	}
	return s.notificationRepo.Delete(ctx, id, actor.UserID, actor.Is(model.RoleAdmin))
}

// Broadcast writes one in-app row per recipient and queues a push for each.
// Recipients are the listed users, or every active user of a role.
func (s *NotificationService) Broadcast(ctx context.Context, actor *model.Actor, p model.BroadcastRequest) (int, error) {
	if !actor.Is(model.RoleAdmin) {
		return 0, ErrForbidden
	}
	if err := p.Validate(); err != nil {
		return 0, invalid(err)
	}
	if len(p.UserIDs) == 0 && p.Role == nil {
		return 0, invalidf("user_ids or role is required")
	}
	if p.Priority == "" {
		p.Priority = model.PriorityNormal
	}

	recipients, err := s.recipients(ctx, p)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	var out plan
	data := map[string]string{"title": p.Title, "message": p.Message}
	for _, u := range recipients {
		out.notifications = append(out.notifications, &model.Notification{
			UserID:   int64Ptr(u.ID),
			Type:     "broadcast",
			Title:    p.Title,
			Message:  p.Message,
			Priority: p.Priority,
		})
		out.jobs = append(out.jobs, s.planner.job(model.ChannelPush, templates.KeyBroadcast, userRecipient(u), data, nil))
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.notificationRepo.CreateBatch(ctx, out.notifications); err != nil {
			return err
		}
		entries, err := out.outboxEntries()
		if err != nil {
			return err
		}
		return s.outboxRepo.CreateBatch(ctx, entries)
	})
	if err != nil {
		return 0, err
	}
	return len(recipients), nil
}

func (s *NotificationService) recipients(ctx context.Context, p model.BroadcastRequest) ([]*model.User, error) {
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, invalidf("role is invalid")
		}
		return s.userRepo.ListActiveByRole(ctx, *p.Role)
	}
	seen := make(map[int64]struct{}, len(p.UserIDs))
	users := make([]*model.User, 0, len(p.UserIDs))
	for _, id := range p.UserIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
