package repository

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrClientNotFound       = errors.New("client not found")
	ErrApplianceNotFound    = errors.New("appliance not found")
	ErrServiceNotFound      = errors.New("service not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSparePartNotFound    = errors.New("spare part not found")
	ErrSubscriptionNotFound = errors.New("push subscription not found")
	ErrReferenceNotFound    = errors.New("reference not found")
	ErrDuplicate            = errors.New("record already exists")
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

func paginate(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// isUniqueViolation matches both postgres (23505) and sqlite unique errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + strings.ToLower(s) + "%"
}
