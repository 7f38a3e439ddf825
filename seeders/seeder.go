package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Стартовый набор подразделений.
var defaultDepartments = []string{
	"IT",
	"Бухгалтерия",
	"Отдел кадров",
	"Хозяйственный отдел",
}

// SeedDepartments наполняет справочник подразделений. Повторный запуск
// безопасен: существующие записи не трогаются.
func SeedDepartments(pool *pgxpool.Pool) {
	ctx := context.Background()

	for _, name := range defaultDepartments {
		_, err := pool.Exec(ctx, `
			INSERT INTO departments (name, created_at, updated_at)
			VALUES ($1, NOW(), NOW())
			ON CONFLICT (name) DO NOTHING
		`, name)
		if err != nil {
			log.Printf("❌ не удалось создать подразделение %q: %v", name, err)
			continue
		}
		log.Printf("✅ подразделение %q готово", name)
	}
}

// SeedAdmin создаёт первого администратора, если его ещё нет.
// Логин/пароль берутся из окружения, привязка - к подразделению IT.
func SeedAdmin(pool *pgxpool.Pool) {
	ctx := context.Background()

	username := envOr("SEED_ADMIN_USERNAME", "admin")
	password := envOr("SEED_ADMIN_PASSWORD", "ChangeMe123!")
	email := envOr("SEED_ADMIN_EMAIL", "admin@example.com")

	var exists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
		log.Printf("❌ не удалось проверить наличие администратора: %v", err)
		return
	}
	if exists {
		log.Printf("ℹ️ администратор %q уже существует, пропускаем", username)
		return
	}

	var deptID uint64
	if err := pool.QueryRow(ctx,
		`SELECT id FROM departments WHERE name = 'IT'`).Scan(&deptID); err != nil {
		log.Printf("❌ подразделение IT не найдено, сначала запустите -departments: %v", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("❌ не удалось захешировать пароль администратора: %v", err)
		return
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (email, username, password, role, department_id, department_name, created_at, updated_at)
		VALUES ($1, $2, $3, 'admin', $4, 'IT', NOW(), NOW())
	`, email, username, string(hash), deptID)
	if err != nil {
		log.Printf("❌ не удалось создать администратора: %v", err)
		return
	}

	log.Printf("✅ администратор %q создан", username)
}
