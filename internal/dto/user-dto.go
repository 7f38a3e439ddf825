package dto

type CreateUserDTO struct {
	Email          string `json:"email" validate:"required,email"`
	Username       string `json:"username" validate:"required,min=3"`
	Password       string `json:"password" validate:"required,min=8"`
	Role           string `json:"role" validate:"required,oneof=user hod admin"`
	DepartmentID   uint64 `json:"department_id" validate:"required"`
	DepartmentName string `json:"department_name" validate:"omitempty"`
}

type UserDTO struct {
	ID             uint64 `json:"id"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	DepartmentID   uint64 `json:"department_id"`
	DepartmentName string `json:"department_name"`
	CreatedAt      string `json:"created_at"`
}

type ShortUserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}
