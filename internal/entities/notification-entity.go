package entities

import "time"

// Notification - информационная запись для конкретного получателя.
// Неизменяема после создания; удаляется только вместе с аккаунтом получателя.
type Notification struct {
	ID           uint64    `json:"id" db:"id"`
	RecipientID  uint64    `json:"recipient_id" db:"recipient_id"`
	Message      string    `json:"message" db:"message"`
	ActorName    string    `json:"actor_name" db:"actor_name"`
	DepartmentID uint64    `json:"department_id" db:"department_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
