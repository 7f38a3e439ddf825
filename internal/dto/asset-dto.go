package dto

import "github.com/aarondl/null/v8"

type CreateAssetDTO struct {
	Name         string `json:"name" validate:"required"`
	Type         string `json:"type" validate:"required"`
	Brand        string `json:"brand" validate:"omitempty"`
	Model        string `json:"model" validate:"omitempty"`
	DateOfBuying string `json:"date_of_buying" validate:"omitempty,datetime=2006-01-02"`
	DepartmentID uint64 `json:"department_id" validate:"required"`
}

// UpdateAssetDTO - частичное обновление: незаполненные поля не трогаются.
// Статус и ссылка назначения сюда намеренно не входят, их меняет только
// движок назначения (tryAssign/unassign/обслуживание).
type UpdateAssetDTO struct {
	Name         null.String `json:"name" validate:"omitempty"`
	Type         null.String `json:"type" validate:"omitempty"`
	Brand        null.String `json:"brand" validate:"omitempty"`
	Model        null.String `json:"model" validate:"omitempty"`
	DateOfBuying null.String `json:"date_of_buying" validate:"omitempty"`
	DepartmentID null.Uint64 `json:"department_id" validate:"omitempty"`
}

type AssignAssetDTO struct {
	AssetCode string `json:"asset_code" validate:"required,asset_code"`
	UserID    uint64 `json:"user_id" validate:"required"`
}

type AssetDTO struct {
	ID           uint64        `json:"id"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Brand        string        `json:"brand"`
	Model        string        `json:"model"`
	AssetCode    string        `json:"asset_code"`
	Status       string        `json:"status"`
	DepartmentID uint64        `json:"department_id"`
	DateOfBuying *string       `json:"date_of_buying,omitempty"`
	AssignedTo   *ShortUserDTO `json:"assigned_to,omitempty"`
	QRCode       *string       `json:"qr_code,omitempty"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
}

type ShortAssetDTO struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	AssetCode string `json:"asset_code"`
	Status    string `json:"status"`
}

// ImportRowError - ошибка одной строки при массовом импорте.
type ImportRowError struct {
	Row int    `json:"row"`
	Msg string `json:"msg"`
}

type ImportResultDTO struct {
	Imported int              `json:"imported"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}
