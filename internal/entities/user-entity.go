// Файл: internal/entities/user-entity.go
package entities

import (
	"asset-system/pkg/types"
)

type User struct {
	ID       uint64 `json:"id" db:"id"`
	Email    string `json:"email" db:"email"`
	Username string `json:"username" db:"username"`

	Password string `json:"-" db:"password"`

	// Роль фиксированная: user / hod / admin. Динамической матрицы прав нет.
	Role string `json:"role" db:"role"`

	DepartmentID   uint64 `json:"department_id" db:"department_id"`
	DepartmentName string `json:"department_name" db:"department_name"`

	types.BaseEntity
}
