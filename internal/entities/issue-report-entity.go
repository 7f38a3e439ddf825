package entities

import "time"

// IssueReport - отчёт о неисправности актива. Проходит ту же двухступенчатую
// цепочку согласования, что и Request; одобрение администратора переводит
// сам актив на обслуживание.
type IssueReport struct {
	ID           uint64 `json:"id" db:"id"`
	UserID       uint64 `json:"user_id" db:"user_id"`
	Username     string `json:"username" db:"username"`
	AssetCode    string `json:"asset_code" db:"asset_code"`
	DepartmentID uint64 `json:"department_id" db:"department_id"`
	Message      string `json:"message" db:"message"`
	Status       string `json:"status" db:"status"`

	RejectionComment *string `json:"rejection_comment,omitempty" db:"rejection_comment"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
