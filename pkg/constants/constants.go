// pkg/constants/constants.go
package constants

//============== РОЛИ ==============

const (
	RoleUser  = "user"
	RoleHod   = "hod"
	RoleAdmin = "admin"
)

//============== РЕШЕНИЯ ==============

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

//============== CACHE KEYS ==============

// Префиксы для ключей в Redis/кеше.
const (
	// Списки согласующих (HOD/Admin) подразделения для рассылки уведомлений.
	// Версия входит в ключ: её инкремент разом обесценивает списки всех
	// подразделений (админы попадают в каждый список), старые записи
	// доживают TTL мусором.
	// Формат: approvers:<departmentID>:v<version> -> JSON со списком userID
	CacheKeyApprovers = "approvers:%d:v%s"

	// Счётчик поколений кеша согласующих.
	CacheKeyApproversVersion = "approvers:version"

	// Ключ для подсчета неудачных попыток входа.
	// Формат: login_attempts:<login> -> count
	CacheKeyLoginAttempts = "login_attempts:%s"

	// Ключ, указывающий, что аккаунт заблокирован из-за неудачных попыток входа.
	// Формат: lockout:<login> -> "locked"
	CacheKeyLockout = "lockout:%s"
)
