package contextkeys

type contextKey string

const (
	UserIDKey       contextKey = "UserID"
	UserRoleKey     contextKey = "UserRole"
	DepartmentIDKey contextKey = "DepartmentID"
	UsernameKey     contextKey = "Username"
)
