package utils

import (
	"context"
	"database/sql"
	"time"

	"github.com/labstack/echo/v4"
)

// Ctx оборачивает контекст запроса дедлайном в секундах.
// Каждое обращение движка к хранилищу обязано завершиться за это время,
// иначе операция падает с таймаутом (вызывающий перечитывает состояние).
func Ctx(c echo.Context, seconds int) context.Context {
	newCtx, cancel := context.WithTimeout(c.Request().Context(), time.Duration(seconds)*time.Second)

	go func() {
		<-newCtx.Done()
		cancel()
	}()

	return newCtx
}

func StringPtr(s string) *string {
	return &s
}

func NullStringToStrPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func StringPointerToNullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func StringToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func NullInt64ToUint64Ptr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

func Uint64PtrToNullInt64(id *uint64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func NullTimeToString(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	formatted := nt.Time.Local().Format("2006-01-02 15:04:05")

	return &formatted
}
