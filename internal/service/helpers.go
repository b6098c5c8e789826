package service

import (
	"strconv"
	"strings"

	"equiprent-backend/internal/domain"
)

// ModerationStaff is every role allowed to review content.
var ModerationStaff = []domain.Role{domain.RoleModerator, domain.RoleModeratorManager, domain.RoleAdmin}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePage applies the default and maximum page sizes.
func NormalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func itoa(id int32) string {
	return strconv.FormatInt(int64(id), 10)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

type nopRealtime struct{}

func (nopRealtime) PushToUser(int32, string, any) {}
func (nopRealtime) PushToUsers([]int32, string, any) {}
func (nopRealtime) PushToRoom(string, string, any) {}
func (nopRealtime) Broadcast(string, any) {}
