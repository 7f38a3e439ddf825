package constants

// --- СТАТУСЫ АКТИВОВ (Совпадает со значениями в БД) ---
const (
	AssetAvailable        = "Available"
	AssetAssigned         = "Assigned"
	AssetUnderMaintenance = "Under Maintenance"
)

// --- СТАТУСЫ ЗАПРОСОВ НА АКТИВ ---
const (
	RequestPending       = "Pending"
	RequestHodApproved   = "HOD Approved"
	RequestHodRejected   = "HOD Rejected"
	RequestAdminApproved = "Admin Approved"
	RequestAdminRejected = "Admin Rejected"
)

// Финальные статусы запроса: из них decide больше не выпускает.
var RequestFinalStatuses = []string{
	RequestHodRejected,
	RequestAdminApproved,
	RequestAdminRejected,
}

// --- СТАТУСЫ ОТЧЁТОВ О НЕИСПРАВНОСТИ ---
// Каноничный набор из пяти статусов. "Under Maintenance" живёт только
// на активе, в отчёт он не записывается.
const (
	IssuePending     = "Pending"
	IssueHodApproved = "HOD Approved"
	IssueHodRejected = "HOD Rejected"
	IssueApproved    = "Approved"
	IssueRejected    = "Rejected"
)

var IssueFinalStatuses = []string{
	IssueHodRejected,
	IssueApproved,
	IssueRejected,
}

func IsFinalRequestStatus(status string) bool {
	for _, s := range RequestFinalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsFinalIssueStatus(status string) bool {
	for _, s := range IssueFinalStatuses {
		if s == status {
			return true
		}
	}
	return false
}
