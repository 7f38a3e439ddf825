package dto

type NotificationDTO struct {
	ID           uint64 `json:"id"`
	Message      string `json:"message"`
	ActorName    string `json:"actor_name"`
	DepartmentID uint64 `json:"department_id"`
	CreatedAt    string `json:"created_at"`
}
