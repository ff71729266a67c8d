package service

import (
	"context"
	"log"
	"strings"

	"credito/internal/bureau"
	"credito/internal/model"
	"credito/internal/repository"
	"credito/pkg/apperrors"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreatePreliminaryRequest struct {
	ClientDNI   string    `json:"client_dni" binding:"required"`
	ClientCUIL  string    `json:"client_cuil" binding:"required"`
	IncomeProof string    `json:"income_proof"`
	MerchantID  uuid.UUID `json:"-"` // taken from the authenticated session, never from the body
}

type PreliminaryFilter struct {
	State string // pendiente, aprobada, rechazada or empty for all
	Page  int
	Limit int
}

// --- Interface ---

// PreliminaryService drives the first application stage: a merchant submits a
// request for a client and the credit bureau resolves it automatically.
type PreliminaryService interface {
	Create(ctx context.Context, req CreatePreliminaryRequest) (*model.PreliminaryApplication, error)
	VerifyApproval(ctx context.Context, id uuid.UUID) (*model.PreliminaryApplication, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.PreliminaryApplication, error)
	List(ctx context.Context, filter PreliminaryFilter) ([]model.PreliminaryApplication, int64, error)
}

type preliminaryService struct {
	preliminaries repository.PreliminaryRepository
	formals       repository.FormalRepository
	contracts     repository.ContractRepository
	bureau        bureau.CreditBureau
	notifier      NotificationEmitter
	audit         AuditRecorder
	txm           repository.TransactionManager
}

func NewPreliminaryService(
	preliminaries repository.PreliminaryRepository,
	formals repository.FormalRepository,
	contracts repository.ContractRepository,
	creditBureau bureau.CreditBureau,
	notifier NotificationEmitter,
	audit AuditRecorder,
	txm repository.TransactionManager,
) PreliminaryService {
	return &preliminaryService{
		preliminaries: preliminaries,
		formals:       formals,
		contracts:     contracts,
		bureau:        creditBureau,
		notifier:      notifier,
		audit:         audit,
		txm:           txm,
	}
}

// --- Implementation ---

func (s *preliminaryService) Create(ctx context.Context, req CreatePreliminaryRequest) (*model.PreliminaryApplication, error) {
	if strings.TrimSpace(req.ClientDNI) == "" || strings.TrimSpace(req.ClientCUIL) == "" {
		return nil, apperrors.Validation("client dni and cuil are required")
	}

	// A client with a live contract cannot open a second credit line.
	if err := s.checkNoActiveCredit(ctx, req.ClientDNI); err != nil {
		return nil, err
	}

	app := &model.PreliminaryApplication{
		State:       model.StatePending,
		ClientDNI:   req.ClientDNI,
		ClientCUIL:  req.ClientCUIL,
		IncomeProof: req.IncomeProof,
		MerchantID:  req.MerchantID,
		Comments:    []string{},
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.preliminaries.Create(txCtx, app); err != nil {
			return err
		}
		return s.audit.Record(txCtx, AuditEntry{
			ActorID:           &req.MerchantID,
			Action:            model.ActionCreatePreliminary,
			EntityType:        model.EntityPreliminary,
			EntityID:          app.ID.String(),
			RootApplicationID: &app.ID,
			Details:           map[string]interface{}{"client_dni": req.ClientDNI},
		})
	})
	if err != nil {
		s.notifyMerchant(ctx, req.MerchantID, model.NotifyError,
			"No se pudo registrar la solicitud preliminar: "+err.Error(), nil)
		return nil, err
	}

	return s.runBureauCheck(ctx, app)
}

// VerifyApproval re-runs the bureau check for an application still pending.
// Terminal applications are never re-checked: an approved one is returned
// unchanged and a rejected one keeps signaling that the client is not
// eligible, so repeated calls always yield the same terminal state.
func (s *preliminaryService) VerifyApproval(ctx context.Context, id uuid.UUID) (*model.PreliminaryApplication, error) {
	app, err := s.preliminaries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if model.IsTerminalState(app.State) {
		if app.State == model.StateRejected {
			return app, apperrors.BusinessRule("client %s is not eligible for credit", app.ClientDNI)
		}
		return app, nil
	}

	return s.runBureauCheck(ctx, app)
}

func (s *preliminaryService) GetByID(ctx context.Context, id uuid.UUID) (*model.PreliminaryApplication, error) {
	return s.preliminaries.GetByID(ctx, id)
}

func (s *preliminaryService) List(ctx context.Context, filter PreliminaryFilter) ([]model.PreliminaryApplication, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.preliminaries.ListByState(ctx, filter.State, filter.Page, filter.Limit)
}

// runBureauCheck consults the bureau for a pending application, persists the
// resulting terminal state and notifies the merchant of the outcome. If the
// bureau itself fails the application stays pending so the check can be
// retried via VerifyApproval.
func (s *preliminaryService) runBureauCheck(ctx context.Context, app *model.PreliminaryApplication) (*model.PreliminaryApplication, error) {
	verdict, err := s.bureau.CheckStatus(ctx, app.ClientDNI)
	if err != nil {
		s.recordAudit(ctx, AuditEntry{
			Action:            model.ActionBureauCheck,
			EntityType:        model.EntityPreliminary,
			EntityID:          app.ID.String(),
			RootApplicationID: &app.ID,
			Details:           map[string]interface{}{"error": err.Error()},
		})
		s.notifyMerchant(ctx, app.MerchantID, model.NotifyError,
			"Fallo en la consulta al veraz, la solicitud queda pendiente: "+err.Error(), nil)
		return nil, err
	}

	if verdict.Status == bureau.StatusApproved {
		app.State = model.StateApproved
	} else {
		app.State = model.StateRejected
	}
	app.BureauScore = verdict.Score
	app.BureauCheckedAt = &verdict.CheckedAt

	updateErr := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.preliminaries.Update(txCtx, app); err != nil {
			return err
		}
		return s.audit.Record(txCtx, AuditEntry{
			Action:            model.ActionBureauCheck,
			EntityType:        model.EntityPreliminary,
			EntityID:          app.ID.String(),
			RootApplicationID: &app.ID,
			Details: map[string]interface{}{
				"verdict": verdict.Status,
				"score":   verdict.Score,
				"state":   app.State,
			},
		})
	})
	if updateErr != nil {
		s.notifyMerchant(ctx, app.MerchantID, model.NotifyError,
			"No se pudo actualizar la solicitud preliminar: "+updateErr.Error(), nil)
		return nil, updateErr
	}

	s.notifyMerchant(ctx, app.MerchantID, model.NotifyPreliminaryResult,
		"La solicitud preliminar del cliente "+app.ClientDNI+" quedó "+app.State,
		map[string]interface{}{"application_id": app.ID.String(), "state": app.State, "score": verdict.Score})

	if app.State == model.StateRejected {
		return app, apperrors.BusinessRule("client %s is not eligible for credit", app.ClientDNI)
	}
	return app, nil
}

// checkNoActiveCredit walks formal applications for the client's national id
// and fails if any of them already carries a contract in an active state.
func (s *preliminaryService) checkNoActiveCredit(ctx context.Context, dni string) error {
	formals, err := s.formals.ListByClientDNI(ctx, dni)
	if err != nil {
		return err
	}
	for _, f := range formals {
		contracts, err := s.contracts.ListByFormalApplicationID(ctx, f.ID)
		if err != nil {
			return err
		}
		for _, c := range contracts {
			if model.ContractStateIsActive(c.State) {
				return apperrors.Conflict("client %s already has an active credit contract", dni)
			}
		}
	}
	return nil
}

func (s *preliminaryService) notifyMerchant(ctx context.Context, merchantID uuid.UUID, notifType, message string, metadata map[string]interface{}) {
	if err := s.notifier.QueueForUser(ctx, merchantID, notifType, message, metadata); err != nil {
		log.Printf("preliminary: failed to queue merchant notification: %v", err)
	}
}

func (s *preliminaryService) recordAudit(ctx context.Context, entry AuditEntry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Printf("preliminary: failed to record audit event: %v", err)
	}
}
