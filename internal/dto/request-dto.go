package dto

type CreateRequestDTO struct {
	AssetCode string `json:"asset_code" validate:"required,asset_code"`
}

// DecideRequestDTO - решение по заявке. Клиент присылает только approve/reject,
// целевой статус вычисляет движок по роли действующего лица.
type DecideRequestDTO struct {
	Decision string `json:"decision" validate:"required,decision"`
	Comment  string `json:"comment" validate:"omitempty,max=500"`
}

type RequestDTO struct {
	ID               uint64  `json:"id"`
	UserID           uint64  `json:"user_id"`
	Username         string  `json:"username"`
	AssetCode        string  `json:"asset_code"`
	DepartmentID     uint64  `json:"department_id"`
	Status           string  `json:"status"`
	RejectionComment *string `json:"rejection_comment,omitempty"`
	CreatedAt        string  `json:"created_at"`
}
