package entities

import (
	"time"

	"asset-system/pkg/types"
)

// Asset - единица имущества организации.
//
// Инвариант: Status == Assigned тогда и только тогда, когда заполнена ссылка
// назначения (AssignedToUserID + AssignedToName). На обслуживании ссылка
// сохраняется, чтобы после ремонта актив вернулся прежнему держателю.
type Asset struct {
	ID           uint64 `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Type         string `json:"type" db:"type"`
	Brand        string `json:"brand" db:"brand"`
	Model        string `json:"model" db:"model"`
	AssetCode    string `json:"asset_code" db:"asset_code"`
	Status       string `json:"status" db:"status"`
	DepartmentID uint64 `json:"department_id" db:"department_id"`

	DateOfBuying *time.Time `json:"date_of_buying,omitempty" db:"date_of_buying"`

	AssignedToUserID *uint64 `json:"assigned_to_user_id,omitempty" db:"assigned_to_user_id"`
	AssignedToName   *string `json:"assigned_to_name,omitempty" db:"assigned_to_name"`

	QRCode *string `json:"qr_code,omitempty" db:"qr_code"`

	types.BaseEntity
}

// HasAssignment сообщает, есть ли на активе действующая ссылка назначения.
func (a *Asset) HasAssignment() bool {
	return a.AssignedToUserID != nil
}
