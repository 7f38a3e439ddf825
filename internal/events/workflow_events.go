package events

// События жизненного цикла согласований. Публикуются ПОСЛЕ успешного
// перехода статуса: слушатели не могут откатить породившее их изменение.

const (
	EventRequestSubmitted    = "request.submitted"
	EventRequestDecided      = "request.decided"
	EventIssueSubmitted      = "issue.submitted"
	EventIssueDecided        = "issue.decided"
	EventMaintenanceResolved = "asset.maintenance_resolved"
)

// RequestSubmitted - сотрудник подал заявку на актив.
type RequestSubmitted struct {
	RequestID    uint64
	UserID       uint64
	Username     string
	AssetCode    string
	DepartmentID uint64
}

func (RequestSubmitted) Name() string { return EventRequestSubmitted }

// RequestDecided - заявка получила решение (любой из четырёх переходов).
type RequestDecided struct {
	RequestID    uint64
	RequesterID  uint64
	AssetCode    string
	NewStatus    string
	ActorName    string
	DepartmentID uint64
	Comment      string
}

func (RequestDecided) Name() string { return EventRequestDecided }

// IssueSubmitted - сотрудник сообщил о неисправности актива.
type IssueSubmitted struct {
	IssueID      uint64
	UserID       uint64
	Username     string
	AssetCode    string
	Message      string
	DepartmentID uint64
}

func (IssueSubmitted) Name() string { return EventIssueSubmitted }

// IssueDecided - отчёт о неисправности получил решение.
type IssueDecided struct {
	IssueID      uint64
	ReporterID   uint64
	AssetCode    string
	NewStatus    string
	ActorName    string
	DepartmentID uint64
	Comment      string
}

func (IssueDecided) Name() string { return EventIssueDecided }

// MaintenanceResolved - актив вернулся из обслуживания. HolderID заполнен,
// только если ссылка держателя пережила ремонт.
type MaintenanceResolved struct {
	AssetID      uint64
	AssetCode    string
	AssetName    string
	NewStatus    string
	HolderID     uint64
	DepartmentID uint64
}

func (MaintenanceResolved) Name() string { return EventMaintenanceResolved }
