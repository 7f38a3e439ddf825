package entities

import "time"

// Request - заявка сотрудника на закрепление конкретного актива.
// Статус меняется строго вперёд: Pending -> HOD Approved -> Admin Approved,
// с тупиковыми ветками HOD Rejected / Admin Rejected.
type Request struct {
	ID           uint64 `json:"id" db:"id"`
	UserID       uint64 `json:"user_id" db:"user_id"`
	Username     string `json:"username" db:"username"`
	AssetCode    string `json:"asset_code" db:"asset_code"`
	DepartmentID uint64 `json:"department_id" db:"department_id"`
	Status       string `json:"status" db:"status"`

	// Комментарий заполнен тогда и только тогда, когда статус - один из Rejected.
	RejectionComment *string `json:"rejection_comment,omitempty" db:"rejection_comment"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
