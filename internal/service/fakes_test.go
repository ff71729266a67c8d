package service

import (
	"context"
	"errors"

	"credito/internal/bureau"
	"credito/internal/model"
	"credito/pkg/apperrors"

	"github.com/google/uuid"
)

// In-memory fakes for the repository ports. They reproduce only the behavior
// the services depend on: id assignment on insert, not-found translation and
// the duplicate guards backed by the unique indexes.

type fakeTxManager struct {
	failWith error
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if m.failWith != nil {
		return m.failWith
	}
	return fn(ctx)
}

// --- preliminary applications ---

type memPreliminaryRepo struct {
	rows map[uuid.UUID]*model.PreliminaryApplication
}

func newMemPreliminaryRepo() *memPreliminaryRepo {
	return &memPreliminaryRepo{rows: make(map[uuid.UUID]*model.PreliminaryApplication)}
}

func (r *memPreliminaryRepo) Create(ctx context.Context, app *model.PreliminaryApplication) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	stored := *app
	r.rows[app.ID] = &stored
	return nil
}

func (r *memPreliminaryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.PreliminaryApplication, error) {
	app, ok := r.rows[id]
	if !ok {
		return nil, apperrors.NotFound("preliminary application %s not found", id)
	}
	copied := *app
	return &copied, nil
}

func (r *memPreliminaryRepo) Update(ctx context.Context, app *model.PreliminaryApplication) error {
	if _, ok := r.rows[app.ID]; !ok {
		return apperrors.NotFound("preliminary application %s not found", app.ID)
	}
	stored := *app
	r.rows[app.ID] = &stored
	return nil
}

func (r *memPreliminaryRepo) ListByState(ctx context.Context, state string, page, limit int) ([]model.PreliminaryApplication, int64, error) {
	var out []model.PreliminaryApplication
	for _, app := range r.rows {
		if state == "" || app.State == state {
			out = append(out, *app)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memPreliminaryRepo) ListByClientDNI(ctx context.Context, dni string) ([]model.PreliminaryApplication, error) {
	var out []model.PreliminaryApplication
	for _, app := range r.rows {
		if app.ClientDNI == dni {
			out = append(out, *app)
		}
	}
	return out, nil
}

// --- formal applications ---

type memFormalRepo struct {
	rows map[uuid.UUID]*model.FormalApplication
}

func newMemFormalRepo() *memFormalRepo {
	return &memFormalRepo{rows: make(map[uuid.UUID]*model.FormalApplication)}
}

func (r *memFormalRepo) Create(ctx context.Context, app *model.FormalApplication) error {
	for _, existing := range r.rows {
		if existing.PreliminaryApplicationID == app.PreliminaryApplicationID {
			return apperrors.Conflict("a formal application already exists for preliminary application %s", app.PreliminaryApplicationID)
		}
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	stored := *app
	r.rows[app.ID] = &stored
	return nil
}

func (r *memFormalRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.FormalApplication, error) {
	app, ok := r.rows[id]
	if !ok {
		return nil, apperrors.NotFound("formal application %s not found", id)
	}
	copied := *app
	return &copied, nil
}

func (r *memFormalRepo) Update(ctx context.Context, app *model.FormalApplication) error {
	if _, ok := r.rows[app.ID]; !ok {
		return apperrors.NotFound("formal application %s not found", app.ID)
	}
	stored := *app
	r.rows[app.ID] = &stored
	return nil
}

func (r *memFormalRepo) UpdateApproval(ctx context.Context, app *model.FormalApplication) error {
	stored, ok := r.rows[app.ID]
	if !ok {
		return apperrors.NotFound("formal application %s not found", app.ID)
	}
	stored.State = app.State
	stored.AnalystApproverID = app.AnalystApproverID
	stored.AdminApproverID = app.AdminApproverID
	stored.CardNumber = app.CardNumber
	stored.AccountNumber = app.AccountNumber
	stored.Comments = app.Comments
	return nil
}

func (r *memFormalRepo) UpdateRejection(ctx context.Context, app *model.FormalApplication) error {
	stored, ok := r.rows[app.ID]
	if !ok {
		return apperrors.NotFound("formal application %s not found", app.ID)
	}
	stored.State = app.State
	stored.AnalystApproverID = app.AnalystApproverID
	stored.AdminApproverID = app.AdminApproverID
	stored.Comments = app.Comments
	return nil
}

func (r *memFormalRepo) ListByState(ctx context.Context, state string, page, limit int) ([]model.FormalApplication, int64, error) {
	var out []model.FormalApplication
	for _, app := range r.rows {
		if state == "" || app.State == state {
			out = append(out, *app)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memFormalRepo) ListByParentID(ctx context.Context, preliminaryID uuid.UUID) ([]model.FormalApplication, error) {
	var out []model.FormalApplication
	for _, app := range r.rows {
		if app.PreliminaryApplicationID == preliminaryID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (r *memFormalRepo) ListByClientDNI(ctx context.Context, dni string) ([]model.FormalApplication, error) {
	var out []model.FormalApplication
	for _, app := range r.rows {
		if app.DNI == dni {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (r *memFormalRepo) LinkContract(ctx context.Context, preliminaryID, contractID uuid.UUID) error {
	for _, app := range r.rows {
		if app.PreliminaryApplicationID == preliminaryID {
			id := contractID
			app.ContractID = &id
			return nil
		}
	}
	return apperrors.NotFound("no formal application for preliminary application %s", preliminaryID)
}

// --- contracts ---

type memContractRepo struct {
	rows map[uuid.UUID]*model.Contract
}

func newMemContractRepo() *memContractRepo {
	return &memContractRepo{rows: make(map[uuid.UUID]*model.Contract)}
}

func (r *memContractRepo) Create(ctx context.Context, contract *model.Contract) error {
	for _, existing := range r.rows {
		if existing.FormalApplicationID == contract.FormalApplicationID {
			return apperrors.Conflict("a contract already exists for formal application %s", contract.FormalApplicationID)
		}
	}
	if contract.ID == uuid.Nil {
		contract.ID = uuid.New()
	}
	stored := *contract
	r.rows[contract.ID] = &stored
	return nil
}

func (r *memContractRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, ok := r.rows[id]
	if !ok {
		return nil, apperrors.NotFound("contract %s not found", id)
	}
	copied := *contract
	return &copied, nil
}

func (r *memContractRepo) Update(ctx context.Context, contract *model.Contract) error {
	if _, ok := r.rows[contract.ID]; !ok {
		return apperrors.NotFound("contract %s not found", contract.ID)
	}
	stored := *contract
	r.rows[contract.ID] = &stored
	return nil
}

func (r *memContractRepo) ListByFormalApplicationID(ctx context.Context, formalID uuid.UUID) ([]model.Contract, error) {
	var out []model.Contract
	for _, contract := range r.rows {
		if contract.FormalApplicationID == formalID {
			out = append(out, *contract)
		}
	}
	return out, nil
}

// --- users ---

type memUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMemUserRepo(users ...*model.User) *memUserRepo {
	r := &memUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Validation("invalid user id %s", id)
	}
	user, ok := r.users[parsed]
	if !ok {
		return nil, apperrors.NotFound("user %s not found", id)
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user with email %s not found", email)
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user %s not found", username)
}

func (r *memUserRepo) GetClientByDNI(ctx context.Context, dni string) (*model.User, error) {
	for _, u := range r.users {
		if u.Role == model.RoleClient && u.DNI == dni {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("client with dni %s not found", dni)
}

func (r *memUserRepo) List(ctx context.Context, role string, page, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) Update(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return apperrors.Validation("invalid user id %s", id)
	}
	delete(r.users, parsed)
	return nil
}

func (r *memUserRepo) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return nil
}

func (r *memUserRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	return nil, errors.New("not implemented")
}

func (r *memUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	return nil
}

// --- collaborators ---

type queuedNotification struct {
	UserID   uuid.UUID
	Role     string
	Type     string
	Message  string
	Metadata map[string]interface{}
}

type captureNotifier struct {
	queued   []queuedNotification
	failWith error
}

func (n *captureNotifier) QueueForUser(ctx context.Context, userID uuid.UUID, notifType, message string, metadata map[string]interface{}) error {
	if n.failWith != nil {
		return n.failWith
	}
	n.queued = append(n.queued, queuedNotification{UserID: userID, Type: notifType, Message: message, Metadata: metadata})
	return nil
}

func (n *captureNotifier) QueueForRole(ctx context.Context, role, notifType, message string, metadata map[string]interface{}) error {
	if n.failWith != nil {
		return n.failWith
	}
	n.queued = append(n.queued, queuedNotification{Role: role, Type: notifType, Message: message, Metadata: metadata})
	return nil
}

func (n *captureNotifier) forUser(userID uuid.UUID) []queuedNotification {
	var out []queuedNotification
	for _, q := range n.queued {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	return out
}

type captureAudit struct {
	entries []AuditEntry
}

func (a *captureAudit) Record(ctx context.Context, entry AuditEntry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *captureAudit) byAction(action string) []AuditEntry {
	var out []AuditEntry
	for _, e := range a.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type fakePermissionChecker struct {
	allowed bool
	err     error
}

func (p *fakePermissionChecker) ActorHasCapability(ctx context.Context, actorID uuid.UUID, capability string) (bool, error) {
	return p.allowed, p.err
}

type fakeBureau struct {
	verdict bureau.Verdict
	err     error
}

func (b *fakeBureau) CheckStatus(ctx context.Context, clientDNI string) (bureau.Verdict, error) {
	return b.verdict, b.err
}
