package dto

type CreateIssueReportDTO struct {
	AssetCode string `json:"asset_code" validate:"required,asset_code"`
	Message   string `json:"message" validate:"required,max=1000"`
}

type DecideIssueDTO struct {
	Decision string `json:"decision" validate:"required,decision"`
	Comment  string `json:"comment" validate:"omitempty,max=500"`
}

type IssueReportDTO struct {
	ID               uint64  `json:"id"`
	UserID           uint64  `json:"user_id"`
	Username         string  `json:"username"`
	AssetCode        string  `json:"asset_code"`
	DepartmentID     uint64  `json:"department_id"`
	Message          string  `json:"message"`
	Status           string  `json:"status"`
	RejectionComment *string `json:"rejection_comment,omitempty"`
	CreatedAt        string  `json:"created_at"`
}
