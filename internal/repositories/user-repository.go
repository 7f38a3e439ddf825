package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	"asset-system/internal/infrastructure/bd"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

const userFields = `u.id, u.email, u.username, u.password, u.role,
	u.department_id, d.name, u.created_at, u.updated_at`

var userMap = map[string]string{
	"id":            "u.id",
	"email":         "u.email",
	"username":      "u.username",
	"role":          "u.role",
	"department_id": "u.department_id",
	"created_at":    "u.created_at",
}

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	FindUser(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByUsername(ctx context.Context, username string) (*entities.User, error)

	// FindApprovers возвращает получателей уведомлений по событию в отделе:
	// HOD-ы этого отдела плюс все администраторы.
	FindApprovers(ctx context.Context, departmentID uint64) ([]entities.User, error)

	CreateUser(ctx context.Context, user entities.User) (uint64, error)
	DeleteUser(ctx context.Context, tx pgx.Tx, id uint64) error
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.Password, &u.Role,
		&u.DepartmentID, &u.DepartmentName, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{
				sq.ILike{"u.username": pat},
				sq.ILike{"u.email": pat},
			})
		}
		return b
	}

	countBuilder := psql.Select("COUNT(u.id)").
		From("users AS u").
		Join("departments AS d ON d.id = u.department_id")
	countBuilder = applySearch(countBuilder)

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, userMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	baseBuilder := psql.Select(
		"u.id", "u.email", "u.username", "u.password", "u.role",
		"u.department_id", "d.name", "u.created_at", "u.updated_at",
	).From("users AS u").Join("departments AS d ON d.id = u.department_id")

	baseBuilder = applySearch(baseBuilder)

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("u.id DESC")
	}
	baseBuilder = bd.ApplyListParams(baseBuilder, filter, userMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]entities.User, 0, filter.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}

	return users, total, nil
}

func (r *UserRepository) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users u
		JOIN departments d ON d.id = u.department_id
		WHERE u.id = $1
	`, userFields)
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users u
		JOIN departments d ON d.id = u.department_id
		WHERE u.username = $1
	`, userFields)
	return scanUser(r.storage.QueryRow(ctx, query, username))
}

func (r *UserRepository) FindApprovers(ctx context.Context, departmentID uint64) ([]entities.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users u
		JOIN departments d ON d.id = u.department_id
		WHERE (u.role = $1 AND u.department_id = $2) OR u.role = $3
		ORDER BY u.id
	`, userFields)

	rows, err := r.storage.Query(ctx, query, constants.RoleHod, departmentID, constants.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user entities.User) (uint64, error) {
	query := `
		INSERT INTO users (email, username, password, role, department_id, department_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id
	`
	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		user.Email, user.Username, user.Password, user.Role,
		user.DepartmentID, user.DepartmentName).Scan(&newID)
	return newID, err
}

// DeleteUser удаляет аккаунт в рамках переданной транзакции. Заявки и отчёты
// к этому моменту уже удалены, активы освобождены; уведомления снимает
// ON DELETE CASCADE.
func (r *UserRepository) DeleteUser(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
