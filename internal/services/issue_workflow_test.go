package services

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/eventbus"
)

type issueFixture struct {
	assetRepo    *fakeAssetRepo
	issueRepo    *fakeIssueRepo
	workflow     IssueWorkflowServiceInterface
	assetService AssetServiceInterface
}

func newIssueFixture(t *testing.T) *issueFixture {
	t.Helper()

	logger := zap.NewNop()
	assetRepo := newFakeAssetRepo()
	issueRepo := newFakeIssueRepo()
	deptRepo := newFakeDeptRepo("IT")
	userRepo := newFakeUserRepo()
	bus := eventbus.New(logger)
	txManager := &fakeTxManager{assets: assetRepo, issues: issueRepo}

	assetService := NewAssetService(assetRepo, deptRepo, userRepo, noopQRGenerator{}, newMemFileStorage(), bus, logger)
	workflow := NewIssueWorkflowService(issueRepo, assetRepo, txManager, bus, logger)

	return &issueFixture{
		assetRepo:    assetRepo,
		issueRepo:    issueRepo,
		workflow:     workflow,
		assetService: assetService,
	}
}

func TestSubmitIssueReport(t *testing.T) {
	f := newIssueFixture(t)
	f.assetRepo.put(entities.Asset{Name: "Принтер", AssetCode: "AST-1", Status: constants.AssetAvailable, DepartmentID: 1})

	ctx := ctxWithIdentity(10, "petrov", constants.RoleUser, 1)
	res, err := f.workflow.Submit(ctx, dto.CreateIssueReportDTO{AssetCode: "AST-1", Message: "не печатает"})
	require.NoError(t, err)

	assert.Equal(t, constants.IssuePending, res.Status)
	assert.Equal(t, "не печатает", res.Message)
}

// Неисправность может быть и у закреплённого актива.
func TestSubmitIssueReport_AssignedAsset(t *testing.T) {
	f := newIssueFixture(t)
	holderID := uint64(10)
	holderName := "petrov"
	f.assetRepo.put(entities.Asset{
		Name: "Ноутбук", AssetCode: "AST-1", Status: constants.AssetAssigned,
		DepartmentID: 1, AssignedToUserID: &holderID, AssignedToName: &holderName,
	})

	ctx := ctxWithIdentity(10, "petrov", constants.RoleUser, 1)
	_, err := f.workflow.Submit(ctx, dto.CreateIssueReportDTO{AssetCode: "AST-1", Message: "разбит экран"})
	require.NoError(t, err)
}

// Полный цикл обслуживания: одобрение администратора переводит актив на
// обслуживание, ссылка держателя сохраняется, после ремонта актив
// возвращается держателю.
func TestIssueMaintenanceRoundTrip(t *testing.T) {
	f := newIssueFixture(t)
	holderID := uint64(10)
	holderName := "petrov"
	asset := f.assetRepo.put(entities.Asset{
		Name: "Ноутбук", AssetCode: "AST-1", Status: constants.AssetAssigned,
		DepartmentID: 1, AssignedToUserID: &holderID, AssignedToName: &holderName,
	})
	report := f.issueRepo.put(entities.IssueReport{
		UserID: 10, Username: "petrov", AssetCode: "AST-1",
		DepartmentID: 1, Message: "разбит экран", Status: constants.IssuePending,
	})

	// HOD одобряет.
	hodCtx := ctxWithIdentity(20, "hod_ivanov", constants.RoleHod, 1)
	res, err := f.workflow.Decide(hodCtx, report.ID, dto.DecideIssueDTO{Decision: constants.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, constants.IssueHodApproved, res.Status)

	// Администратор одобряет: актив уходит на обслуживание.
	adminCtx := ctxWithIdentity(30, "admin", constants.RoleAdmin, 1)
	res, err = f.workflow.Decide(adminCtx, report.ID, dto.DecideIssueDTO{Decision: constants.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, constants.IssueApproved, res.Status)

	got, err := f.assetRepo.FindAsset(adminCtx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.AssetUnderMaintenance, got.Status)
	require.NotNil(t, got.AssignedToUserID, "ссылка держателя должна пережить обслуживание")
	assert.Equal(t, holderID, *got.AssignedToUserID)

	// Ремонт завершён: актив снова закреплён за прежним держателем.
	resolved, err := f.assetService.ResolveMaintenance(adminCtx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.AssetAssigned, resolved.Status)
	require.NotNil(t, resolved.AssignedTo)
	assert.Equal(t, holderID, resolved.AssignedTo.ID)
}

// Если держателя сняли во время обслуживания, после ремонта актив свободен.
func TestIssueMaintenance_UnassignedDuringRepair(t *testing.T) {
	f := newIssueFixture(t)
	holderID := uint64(10)
	holderName := "petrov"
	asset := f.assetRepo.put(entities.Asset{
		Name: "Ноутбук", AssetCode: "AST-1", Status: constants.AssetUnderMaintenance,
		DepartmentID: 1, AssignedToUserID: &holderID, AssignedToName: &holderName,
	})

	ctx := ctxWithIdentity(30, "admin", constants.RoleAdmin, 1)

	// Снятие держателя на обслуживании не делает актив доступным.
	unassigned, err := f.assetService.Unassign(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.AssetUnderMaintenance, unassigned.Status)
	assert.Nil(t, unassigned.AssignedTo)

	resolved, err := f.assetService.ResolveMaintenance(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.AssetAvailable, resolved.Status)
}

func TestResolveMaintenance_NotUnderMaintenance(t *testing.T) {
	f := newIssueFixture(t)
	asset := f.assetRepo.put(entities.Asset{Name: "Ноутбук", AssetCode: "AST-1", Status: constants.AssetAvailable, DepartmentID: 1})

	ctx := ctxWithIdentity(30, "admin", constants.RoleAdmin, 1)
	_, err := f.assetService.ResolveMaintenance(ctx, asset.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotUnderMaintenance)
}

func TestDecideIssue_RejectRequiresComment(t *testing.T) {
	f := newIssueFixture(t)
	report := f.issueRepo.put(entities.IssueReport{
		UserID: 10, Username: "petrov", AssetCode: "AST-1",
		DepartmentID: 1, Message: "шумит", Status: constants.IssuePending,
	})

	ctx := ctxWithIdentity(20, "hod_ivanov", constants.RoleHod, 1)
	_, err := f.workflow.Decide(ctx, report.ID, dto.DecideIssueDTO{Decision: constants.DecisionReject})
	assert.ErrorIs(t, err, apperrors.ErrMissingComment)
}

func TestDecideIssue_AdminNeedsHodApproval(t *testing.T) {
	f := newIssueFixture(t)
	f.assetRepo.put(entities.Asset{Name: "Ноутбук", AssetCode: "AST-1", Status: constants.AssetAvailable, DepartmentID: 1})
	report := f.issueRepo.put(entities.IssueReport{
		UserID: 10, Username: "petrov", AssetCode: "AST-1",
		DepartmentID: 1, Message: "шумит", Status: constants.IssuePending,
	})

	// Администратор не может перешагнуть через ступень HOD.
	ctx := ctxWithIdentity(30, "admin", constants.RoleAdmin, 1)
	_, err := f.workflow.Decide(ctx, report.ID, dto.DecideIssueDTO{Decision: constants.DecisionApprove})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	// Ответ несёт фактический статус отчёта.
	var httpErr *apperrors.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusConflict, httpErr.Code)
	details, ok := httpErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, constants.IssuePending, details["current_status"])

	// Отчёт остался нетронутым, актив не ушёл на обслуживание.
	current, findErr := f.issueRepo.FindIssueReport(ctx, report.ID)
	require.NoError(t, findErr)
	assert.Equal(t, constants.IssuePending, current.Status)

	asset, findErr := f.assetRepo.FindAssetByCode(ctx, "AST-1")
	require.NoError(t, findErr)
	assert.Equal(t, constants.AssetAvailable, asset.Status)
}
