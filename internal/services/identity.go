package services

import (
	"context"

	"asset-system/pkg/contextkeys"
	apperrors "asset-system/pkg/errors"
)

// Identity - кто выполняет операцию. Собирается из клеймов токена,
// положенных в контекст middleware-ом.
type Identity struct {
	UserID       uint64
	Username     string
	Role         string
	DepartmentID uint64
}

func identityFromContext(ctx context.Context) (Identity, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return Identity{}, apperrors.ErrUserIDNotFoundInContext
	}

	username, _ := ctx.Value(contextkeys.UsernameKey).(string)
	role, _ := ctx.Value(contextkeys.UserRoleKey).(string)
	departmentID, _ := ctx.Value(contextkeys.DepartmentIDKey).(uint64)

	return Identity{
		UserID:       userID,
		Username:     username,
		Role:         role,
		DepartmentID: departmentID,
	}, nil
}
