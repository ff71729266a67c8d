package service

import (
	"context"
	"encoding/base64"
	"log"

	"credito/internal/document"
	"credito/internal/model"
	"credito/internal/repository"
	"credito/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// contractAmount is the placeholder credit line every generated contract
// carries until pricing is wired in.
var contractAmount = decimal.NewFromInt(10000)

// ContractService produces and serves the binding artifact of an approved
// formal application.
type ContractService interface {
	Generate(ctx context.Context, formalID uuid.UUID) (*model.Contract, error)
	Download(ctx context.Context, contractID uuid.UUID, requestingDNI string) ([]byte, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error)
}

type contractService struct {
	contracts     repository.ContractRepository
	formals       repository.FormalRepository
	preliminaries repository.PreliminaryRepository
	users         repository.UserRepository
	renderer      document.Renderer
	notifier      NotificationEmitter
	audit         AuditRecorder
	txm           repository.TransactionManager
}

func NewContractService(
	contracts repository.ContractRepository,
	formals repository.FormalRepository,
	preliminaries repository.PreliminaryRepository,
	users repository.UserRepository,
	renderer document.Renderer,
	notifier NotificationEmitter,
	audit AuditRecorder,
	txm repository.TransactionManager,
) ContractService {
	return &contractService{
		contracts:     contracts,
		formals:       formals,
		preliminaries: preliminaries,
		users:         users,
		renderer:      renderer,
		notifier:      notifier,
		audit:         audit,
		txm:           txm,
	}
}

func (s *contractService) Generate(ctx context.Context, formalID uuid.UUID) (*model.Contract, error) {
	app, err := s.formals.GetByID(ctx, formalID)
	if err != nil {
		return nil, err
	}

	if app.State != model.StateApproved {
		// The not-approved case sends its own message instead of the generic
		// failure notification, so the applicant gets exactly one.
		s.queueClientNotification(ctx, app.DNI, model.NotifyError,
			"Su solicitud formal no está aprobada, no se puede generar el contrato", nil)
		return nil, apperrors.BusinessRule("formal application %s is %s, contract requires approved", app.ID, app.State)
	}

	contract, err := s.generate(ctx, app)
	if err != nil {
		s.queueClientNotification(ctx, app.DNI, model.NotifyError,
			"No se pudo generar su contrato: "+err.Error(), nil)
		return nil, err
	}
	return contract, nil
}

func (s *contractService) generate(ctx context.Context, app *model.FormalApplication) (*model.Contract, error) {
	client, err := s.users.GetClientByDNI(ctx, app.DNI)
	if err != nil {
		return nil, err
	}

	existing, err := s.contracts.ListByFormalApplicationID(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, apperrors.Conflict("a contract already exists for formal application %s", app.ID)
	}

	contract := &model.Contract{
		Amount:              contractAmount,
		State:               model.ContractStateGenerated,
		FormalApplicationID: app.ID,
		ClientID:            client.ID,
		CardNumber:          app.CardNumber,
		AccountNumber:       app.AccountNumber,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.contracts.Create(txCtx, contract); err != nil {
			return err
		}
		if err := s.formals.LinkContract(txCtx, app.PreliminaryApplicationID, contract.ID); err != nil {
			return err
		}

		prelim, err := s.preliminaries.GetByID(txCtx, app.PreliminaryApplicationID)
		if err != nil {
			return err
		}
		prelim.ContractID = &contract.ID
		if err := s.preliminaries.Update(txCtx, prelim); err != nil {
			return err
		}

		return s.audit.Record(txCtx, AuditEntry{
			Action:            model.ActionGenerateContract,
			EntityType:        model.EntityContract,
			EntityID:          contract.ID.String(),
			RootApplicationID: &app.PreliminaryApplicationID,
			Details: map[string]interface{}{
				"formal_application_id": app.ID.String(),
				"amount":                contract.Amount.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	// Rendering happens after the commit; a renderer failure leaves the
	// persisted contract in place and surfaces through the failure
	// notification path.
	payload, err := s.renderer.RenderContract(document.ContractData{Contract: contract, Application: app})
	if err != nil {
		return nil, err
	}
	contract.Document = payload
	if err := s.contracts.Update(ctx, contract); err != nil {
		return nil, err
	}

	s.queueClientNotification(ctx, app.DNI, model.NotifyContractReady,
		"Su contrato fue generado",
		map[string]interface{}{
			"contract_id":     contract.ID.String(),
			"document_base64": base64.StdEncoding.EncodeToString(payload),
		})

	return contract, nil
}

func (s *contractService) Download(ctx context.Context, contractID uuid.UUID, requestingDNI string) ([]byte, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	app, err := s.formals.GetByID(ctx, contract.FormalApplicationID)
	if err != nil {
		return nil, err
	}

	if app.DNI != requestingDNI {
		return nil, apperrors.Authorization("contract %s does not belong to dni %s", contractID, requestingDNI)
	}

	payload := contract.Document
	if len(payload) == 0 {
		payload, err = s.renderer.RenderContract(document.ContractData{Contract: contract, Application: app})
		if err != nil {
			return nil, err
		}
	}

	s.recordAudit(ctx, AuditEntry{
		Action:            model.ActionDownloadContract,
		EntityType:        model.EntityContract,
		EntityID:          contract.ID.String(),
		RootApplicationID: &app.PreliminaryApplicationID,
		Details:           map[string]interface{}{"dni": requestingDNI},
	})

	return payload, nil
}

func (s *contractService) GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	return s.contracts.GetByID(ctx, id)
}

func (s *contractService) queueClientNotification(ctx context.Context, dni, notifType, message string, metadata map[string]interface{}) {
	client, err := s.users.GetClientByDNI(ctx, dni)
	if err != nil {
		log.Printf("contract: no client account for dni %s, skipping notification", dni)
		return
	}
	if err := s.notifier.QueueForUser(ctx, client.ID, notifType, message, metadata); err != nil {
		log.Printf("contract: failed to queue notification: %v", err)
	}
}

func (s *contractService) recordAudit(ctx context.Context, entry AuditEntry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Printf("contract: failed to record audit event: %v", err)
	}
}
