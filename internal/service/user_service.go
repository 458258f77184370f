package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/apperr"
	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/queue"
	"github.com/iliyamo/cinesocial/internal/store"
)

// UserService holds the admin operations on accounts.
type UserService struct {
	base
}

func NewUserService(st store.Store, n Notifier, log *zap.Logger) *UserService {
	return &UserService{base: newBase(st, n, log)}
}

// Suspend blocks userID from logging in or refreshing tokens.  The flag and
// its audit record commit together.
func (s *UserService) Suspend(ctx context.Context, adminID, userID uint64, reason string) error {
	details := strings.TrimSpace(reason)
	if details == "" {
		details = "user suspended by admin"
	}
	return s.setActive(ctx, "user.suspend", adminID, userID, false, details)
}

// Unsuspend lifts a suspension.
func (s *UserService) Unsuspend(ctx context.Context, adminID, userID uint64) error {
	return s.setActive(ctx, "user.unsuspend", adminID, userID, true, "user unsuspended by admin")
}

func (s *UserService) setActive(ctx context.Context, op string, adminID, userID uint64, active bool, details string) error {
	if adminID == userID {
		return s.finish(op, apperr.Conflict("you cannot change your own account status"))
	}
	action := "unsuspend"
	if !active {
		action = "suspend"
	}

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().LockUser(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("user not found")
			}
			return fmt.Errorf("lock user %d: %w", userID, err)
		}
		if err := tx.Users().SetActive(ctx, userID, active); err != nil {
			return fmt.Errorf("%s user %d: %w", action, userID, err)
		}
		err := tx.Audit().Insert(ctx, model.AuditEntry{
			AdminID:    adminID,
			ActionType: action,
			TableName:  "users",
			RecordID:   userID,
			Details:    details,
		})
		if err != nil {
			return fmt.Errorf("write audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.finish(op, err)
	}

	typ := queue.UserReinstated
	if !active {
		typ = queue.UserSuspended
	}
	s.log.Info("account status changed", zap.Uint64("admin_id", adminID), zap.Uint64("user_id", userID), zap.Bool("active", active))
	s.notify(ctx, queue.ActivityEvent{Type: typ, ActorID: adminID, UserID: userID})
	return s.finish(op, nil)
}
