package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"

	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/constants"
	"asset-system/pkg/contextkeys"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

// Фейки хранилища для тестов движка. Повторяют контракт настоящих
// репозиториев, включая семантику условных обновлений: проверка статуса
// и запись выполняются под одним мьютексом, как в БД - одним UPDATE.

func nullString(s string) null.String {
	return null.StringFrom(s)
}

func emptyFilter() types.Filter {
	return types.Filter{Filter: make(map[string]interface{})}
}

func ctxWithIdentity(userID uint64, username, role string, departmentID uint64) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, userID)
	ctx = context.WithValue(ctx, contextkeys.UsernameKey, username)
	ctx = context.WithValue(ctx, contextkeys.UserRoleKey, role)
	ctx = context.WithValue(ctx, contextkeys.DepartmentIDKey, departmentID)
	return ctx
}

// --------------------------------------------------------------
// АКТИВЫ
// --------------------------------------------------------------

type fakeAssetRepo struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]entities.Asset
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{byID: make(map[uint64]entities.Asset)}
}

func (f *fakeAssetRepo) put(a entities.Asset) entities.Asset {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == 0 {
		f.nextID++
		a.ID = f.nextID
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	f.byID[a.ID] = a
	return a
}

func (f *fakeAssetRepo) snapshot() map[uint64]entities.Asset {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[uint64]entities.Asset, len(f.byID))
	for k, v := range f.byID {
		cp[k] = v
	}
	return cp
}

func (f *fakeAssetRepo) restore(s map[uint64]entities.Asset) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID = s
}

func (f *fakeAssetRepo) GetAssets(ctx context.Context, filter types.Filter) ([]entities.Asset, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Asset, 0, len(f.byID))
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, uint64(len(out)), nil
}

func (f *fakeAssetRepo) FindAsset(ctx context.Context, id uint64) (*entities.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := a
	return &cp, nil
}

func (f *fakeAssetRepo) FindAssetByCode(ctx context.Context, assetCode string) (*entities.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.AssetCode == assetCode {
			cp := a
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeAssetRepo) FindAssetsByHolder(ctx context.Context, userID uint64) ([]entities.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Asset, 0)
	for _, a := range f.byID {
		if a.AssignedToUserID != nil && *a.AssignedToUserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssetRepo) CreateAsset(ctx context.Context, asset entities.Asset) (uint64, error) {
	return f.put(asset).ID, nil
}

func (f *fakeAssetRepo) UpdateAsset(ctx context.Context, id uint64, asset entities.Asset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	asset.ID = id
	asset.Status = existing.Status
	asset.AssignedToUserID = existing.AssignedToUserID
	asset.AssignedToName = existing.AssignedToName
	asset.UpdatedAt = time.Now()
	f.byID[id] = asset
	return nil
}

func (f *fakeAssetRepo) DeleteAsset(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if a.Status == constants.AssetAssigned {
		return apperrors.ErrAssetAssigned
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAssetRepo) AssignIfAvailable(ctx context.Context, q repositories.Querier, assetCode string, userID uint64, username string) (*entities.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, a := range f.byID {
		if a.AssetCode != assetCode {
			continue
		}
		if a.Status != constants.AssetAvailable {
			cp := a
			return &cp, apperrors.ErrAlreadyAssigned
		}
		a.Status = constants.AssetAssigned
		a.AssignedToUserID = &userID
		a.AssignedToName = &username
		a.UpdatedAt = time.Now()
		f.byID[id] = a
		cp := a
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeAssetRepo) ClearAssignment(ctx context.Context, q repositories.Querier, id uint64) (*entities.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	a.AssignedToUserID = nil
	a.AssignedToName = nil
	if a.Status != constants.AssetUnderMaintenance {
		a.Status = constants.AssetAvailable
	}
	a.UpdatedAt = time.Now()
	f.byID[id] = a
	cp := a
	return &cp, nil
}

func (f *fakeAssetRepo) SetMaintenance(ctx context.Context, q repositories.Querier, assetCode string) (*entities.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, a := range f.byID {
		if a.AssetCode != assetCode {
			continue
		}
		a.Status = constants.AssetUnderMaintenance
		a.UpdatedAt = time.Now()
		f.byID[id] = a
		cp := a
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeAssetRepo) ResolveMaintenance(ctx context.Context, q repositories.Querier, id uint64) (*entities.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if a.Status != constants.AssetUnderMaintenance {
		return nil, apperrors.ErrNotUnderMaintenance
	}
	if a.AssignedToUserID != nil {
		a.Status = constants.AssetAssigned
	} else {
		a.Status = constants.AssetAvailable
	}
	a.UpdatedAt = time.Now()
	f.byID[id] = a
	cp := a
	return &cp, nil
}

func (f *fakeAssetRepo) ReleaseAssetsOfUser(ctx context.Context, tx pgx.Tx, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, a := range f.byID {
		if a.AssignedToUserID == nil || *a.AssignedToUserID != userID {
			continue
		}
		a.AssignedToUserID = nil
		a.AssignedToName = nil
		if a.Status != constants.AssetUnderMaintenance {
			a.Status = constants.AssetAvailable
		}
		f.byID[id] = a
	}
	return nil
}

// --------------------------------------------------------------
// ЗАЯВКИ
// --------------------------------------------------------------

type fakeRequestRepo struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]entities.Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{byID: make(map[uint64]entities.Request)}
}

func (f *fakeRequestRepo) put(r entities.Request) entities.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == 0 {
		f.nextID++
		r.ID = f.nextID
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	f.byID[r.ID] = r
	return r
}

func (f *fakeRequestRepo) snapshot() map[uint64]entities.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[uint64]entities.Request, len(f.byID))
	for k, v := range f.byID {
		cp[k] = v
	}
	return cp
}

func (f *fakeRequestRepo) restore(s map[uint64]entities.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID = s
}

func (f *fakeRequestRepo) GetRequests(ctx context.Context, filter types.Filter) ([]entities.Request, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Request, 0, len(f.byID))
	for _, r := range f.byID {
		if v, ok := filter.Filter["user_id"]; ok && v.(uint64) != r.UserID {
			continue
		}
		if v, ok := filter.Filter["department_id"]; ok && v.(uint64) != r.DepartmentID {
			continue
		}
		out = append(out, r)
	}
	return out, uint64(len(out)), nil
}

func (f *fakeRequestRepo) FindRequest(ctx context.Context, id uint64) (*entities.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := r
	return &cp, nil
}

func (f *fakeRequestRepo) CreateRequest(ctx context.Context, req entities.Request) (*entities.Request, error) {
	created := f.put(req)
	return &created, nil
}

func (f *fakeRequestRepo) UpdateStatusIf(ctx context.Context, q repositories.Querier, id uint64, fromStatus, toStatus string, comment *string) (*entities.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if r.Status != fromStatus {
		cp := r
		return &cp, apperrors.ErrInvalidTransition
	}
	r.Status = toStatus
	r.RejectionComment = comment
	r.UpdatedAt = time.Now()
	f.byID[id] = r
	cp := r
	return &cp, nil
}

func (f *fakeRequestRepo) DeleteRequest(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRequestRepo) DeleteRequestsOfUser(ctx context.Context, tx pgx.Tx, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.byID {
		if r.UserID == userID {
			delete(f.byID, id)
		}
	}
	return nil
}

// --------------------------------------------------------------
// ОТЧЁТЫ О НЕИСПРАВНОСТИ
// --------------------------------------------------------------

type fakeIssueRepo struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]entities.IssueReport
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{byID: make(map[uint64]entities.IssueReport)}
}

func (f *fakeIssueRepo) put(r entities.IssueReport) entities.IssueReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == 0 {
		f.nextID++
		r.ID = f.nextID
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	f.byID[r.ID] = r
	return r
}

func (f *fakeIssueRepo) snapshot() map[uint64]entities.IssueReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[uint64]entities.IssueReport, len(f.byID))
	for k, v := range f.byID {
		cp[k] = v
	}
	return cp
}

func (f *fakeIssueRepo) restore(s map[uint64]entities.IssueReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID = s
}

func (f *fakeIssueRepo) GetIssueReports(ctx context.Context, filter types.Filter) ([]entities.IssueReport, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.IssueReport, 0, len(f.byID))
	for _, r := range f.byID {
		if v, ok := filter.Filter["user_id"]; ok && v.(uint64) != r.UserID {
			continue
		}
		if v, ok := filter.Filter["department_id"]; ok && v.(uint64) != r.DepartmentID {
			continue
		}
		out = append(out, r)
	}
	return out, uint64(len(out)), nil
}

func (f *fakeIssueRepo) FindIssueReport(ctx context.Context, id uint64) (*entities.IssueReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := r
	return &cp, nil
}

func (f *fakeIssueRepo) CreateIssueReport(ctx context.Context, report entities.IssueReport) (*entities.IssueReport, error) {
	created := f.put(report)
	return &created, nil
}

func (f *fakeIssueRepo) UpdateStatusIf(ctx context.Context, q repositories.Querier, id uint64, fromStatus, toStatus string, comment *string) (*entities.IssueReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if r.Status != fromStatus {
		cp := r
		return &cp, apperrors.ErrInvalidTransition
	}
	r.Status = toStatus
	r.RejectionComment = comment
	r.UpdatedAt = time.Now()
	f.byID[id] = r
	cp := r
	return &cp, nil
}

func (f *fakeIssueRepo) DeleteIssueReportsOfUser(ctx context.Context, tx pgx.Tx, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.byID {
		if r.UserID == userID {
			delete(f.byID, id)
		}
	}
	return nil
}

// --------------------------------------------------------------
// СОТРУДНИКИ, ПОДРАЗДЕЛЕНИЯ, КЕШ
// --------------------------------------------------------------

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[uint64]entities.User)}
}

func (f *fakeUserRepo) put(u entities.User) entities.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		f.nextID++
		u.ID = f.nextID
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUserRepo) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, uint64(len(out)), nil
}

func (f *fakeUserRepo) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (f *fakeUserRepo) FindUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) FindApprovers(ctx context.Context, departmentID uint64) ([]entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.User, 0)
	for _, u := range f.byID {
		if u.Role == constants.RoleAdmin || (u.Role == constants.RoleHod && u.DepartmentID == departmentID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user entities.User) (uint64, error) {
	return f.put(user).ID, nil
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, tx pgx.Tx, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeDeptRepo struct {
	byID map[uint64]entities.Department
}

func newFakeDeptRepo(names ...string) *fakeDeptRepo {
	f := &fakeDeptRepo{byID: make(map[uint64]entities.Department)}
	for i, name := range names {
		id := uint64(i + 1)
		f.byID[id] = entities.Department{ID: id, Name: name}
	}
	return f
}

func (f *fakeDeptRepo) GetDepartments(ctx context.Context) ([]entities.Department, error) {
	out := make([]entities.Department, 0, len(f.byID))
	for _, d := range f.byID {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDeptRepo) FindDepartment(ctx context.Context, id uint64) (*entities.Department, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := d
	return &cp, nil
}

func (f *fakeDeptRepo) CreateDepartment(ctx context.Context, name string) (uint64, error) {
	id := uint64(len(f.byID) + 1)
	f.byID[id] = entities.Department{ID: id, Name: name}
	return id, nil
}

type fakeCacheRepo struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{data: make(map[string]string)}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		// Отсутствие ключа выглядит так же, как у настоящего Redis.
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case string:
		f.data[key] = v
	default:
		f.data[key] = "1"
	}
	return nil
}

func (f *fakeCacheRepo) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeCacheRepo) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(0)
	if v, ok := f.data[key]; ok {
		for _, c := range v {
			n = n*10 + int64(c-'0')
		}
	}
	n++
	f.data[key] = itoa(n)
	return n, nil
}

func (f *fakeCacheRepo) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return true, nil
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// --------------------------------------------------------------
// ТРАНЗАКЦИИ
// --------------------------------------------------------------

// fakeTxManager эмулирует откат: перед fn снимается снимок состояния
// фейков, при ошибке он возвращается на место.
type fakeTxManager struct {
	assets   *fakeAssetRepo
	requests *fakeRequestRepo
	issues   *fakeIssueRepo
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var assetSnap map[uint64]entities.Asset
	var requestSnap map[uint64]entities.Request
	var issueSnap map[uint64]entities.IssueReport

	if m.assets != nil {
		assetSnap = m.assets.snapshot()
	}
	if m.requests != nil {
		requestSnap = m.requests.snapshot()
	}
	if m.issues != nil {
		issueSnap = m.issues.snapshot()
	}

	if err := fn(nil); err != nil {
		if m.assets != nil {
			m.assets.restore(assetSnap)
		}
		if m.requests != nil {
			m.requests.restore(requestSnap)
		}
		if m.issues != nil {
			m.issues.restore(issueSnap)
		}
		return err
	}
	return nil
}

// --------------------------------------------------------------
// QR И ФАЙЛЫ
// --------------------------------------------------------------

type noopQRGenerator struct{}

func (noopQRGenerator) Render(assetName, assetCode string) ([]byte, error) {
	return []byte("png"), nil
}

type memFileStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemFileStorage() *memFileStorage {
	return &memFileStorage{files: make(map[string][]byte)}
}

func (s *memFileStorage) Save(fileName string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[fileName] = data
	return "/qrcodes/" + fileName, nil
}

func (s *memFileStorage) Delete(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, strings.TrimPrefix(filePath, "/qrcodes/"))
	return nil
}
