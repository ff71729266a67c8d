package service

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"strings"

	"credito/internal/model"
	"credito/internal/repository"
	"credito/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type ReferenceInput struct {
	FullName     string `json:"full_name" binding:"required"`
	Relationship string `json:"relationship" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
}

type CreateFormalRequest struct {
	PreliminaryApplicationID uuid.UUID        `json:"preliminary_application_id" binding:"required"`
	FullName                 string           `json:"full_name" binding:"required"`
	DNI                      string           `json:"dni" binding:"required"`
	Address                  string           `json:"address"`
	Phone                    string           `json:"phone"`
	Email                    string           `json:"email"`
	EmployerName             string           `json:"employer_name"`
	EmployerPhone            string           `json:"employer_phone"`
	MonthlyIncome            decimal.Decimal  `json:"monthly_income"`
	EmploymentMonths         int              `json:"employment_months"`
	References               []ReferenceInput `json:"references"`
	InitialComment           string           `json:"initial_comment"`
	MerchantID               uuid.UUID        `json:"-"` // from the authenticated session
}

type ApproveFormalRequest struct {
	CardNumber    string `json:"card_number" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	Comment       string `json:"comment"`
}

type RejectFormalRequest struct {
	Comment string `json:"comment" binding:"required"`
}

type FormalFilter struct {
	State string
	Page  int
	Limit int
}

// FieldChange records one tracked field that an update modified.
type FieldChange struct {
	Field string      `json:"field"`
	Old   interface{} `json:"old"`
	New   interface{} `json:"new"`
}

// --- Interface ---

// FormalService drives the second application stage: a merchant files the
// documented request and an analyst or administrator resolves it.
type FormalService interface {
	Create(ctx context.Context, req CreateFormalRequest) (*model.FormalApplication, error)
	Approve(ctx context.Context, id uuid.UUID, req ApproveFormalRequest, approverID uuid.UUID, isAdmin bool) (*model.FormalApplication, error)
	Reject(ctx context.Context, id uuid.UUID, req RejectFormalRequest, approverID uuid.UUID, isAdmin bool) (*model.FormalApplication, error)
	Update(ctx context.Context, modified *model.FormalApplication, actorID uuid.UUID, comment string) (*model.FormalApplication, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.FormalApplication, error)
	List(ctx context.Context, filter FormalFilter) ([]model.FormalApplication, int64, error)
}

type formalService struct {
	formals       repository.FormalRepository
	preliminaries repository.PreliminaryRepository
	users         repository.UserRepository
	perms         PermissionChecker
	notifier      NotificationEmitter
	audit         AuditRecorder
	txm           repository.TransactionManager
}

func NewFormalService(
	formals repository.FormalRepository,
	preliminaries repository.PreliminaryRepository,
	users repository.UserRepository,
	perms PermissionChecker,
	notifier NotificationEmitter,
	audit AuditRecorder,
	txm repository.TransactionManager,
) FormalService {
	return &formalService{
		formals:       formals,
		preliminaries: preliminaries,
		users:         users,
		perms:         perms,
		notifier:      notifier,
		audit:         audit,
		txm:           txm,
	}
}

// --- Implementation ---

func (s *formalService) Create(ctx context.Context, req CreateFormalRequest) (*model.FormalApplication, error) {
	app, err := s.create(ctx, req)
	if err != nil {
		// Best effort — the merchant learns the submission failed even when
		// the failure happened after the guards.
		s.notifyUser(ctx, req.MerchantID, model.NotifyError,
			"No se pudo registrar la solicitud formal: "+err.Error(), nil)
		return nil, err
	}
	return app, nil
}

func (s *formalService) create(ctx context.Context, req CreateFormalRequest) (*model.FormalApplication, error) {
	ok, err := s.perms.ActorHasCapability(ctx, req.MerchantID, model.CapFormalCreate)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Authorization("merchant %s lacks capability %s", req.MerchantID, model.CapFormalCreate)
	}

	prelim, err := s.preliminaries.GetByID(ctx, req.PreliminaryApplicationID)
	if err != nil {
		s.recordAudit(ctx, AuditEntry{
			ActorID:    &req.MerchantID,
			Action:     model.ActionCreateFormal,
			EntityType: model.EntityFormal,
			EntityID:   req.PreliminaryApplicationID.String(),
			Details:    map[string]interface{}{"error": err.Error()},
		})
		return nil, err
	}

	if prelim.State != model.StateApproved {
		bizErr := apperrors.BusinessRule("preliminary application %s is %s, not approved", prelim.ID, prelim.State)
		s.recordAudit(ctx, AuditEntry{
			ActorID:           &req.MerchantID,
			Action:            model.ActionCreateFormal,
			EntityType:        model.EntityFormal,
			EntityID:          prelim.ID.String(),
			RootApplicationID: &prelim.ID,
			Details:           map[string]interface{}{"error": bizErr.Error()},
		})
		return nil, bizErr
	}

	existing, err := s.formals.ListByParentID(ctx, prelim.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, apperrors.Conflict("a formal application already exists for preliminary application %s", prelim.ID)
	}

	if err := validateReferences(req.References); err != nil {
		s.recordAudit(ctx, AuditEntry{
			ActorID:           &req.MerchantID,
			Action:            model.ActionCreateFormal,
			EntityType:        model.EntityFormal,
			EntityID:          prelim.ID.String(),
			RootApplicationID: &prelim.ID,
			Details:           map[string]interface{}{"error": err.Error()},
		})
		return nil, err
	}

	references := make([]model.Reference, 0, len(req.References))
	for _, ref := range req.References {
		references = append(references, model.Reference{
			FullName:     ref.FullName,
			Relationship: ref.Relationship,
			Phone:        ref.Phone,
		})
	}

	app := &model.FormalApplication{
		PreliminaryApplicationID: prelim.ID,
		MerchantID:               req.MerchantID,
		FullName:                 req.FullName,
		DNI:                      req.DNI,
		Address:                  req.Address,
		Phone:                    req.Phone,
		Email:                    req.Email,
		EmployerName:             req.EmployerName,
		EmployerPhone:            req.EmployerPhone,
		MonthlyIncome:            req.MonthlyIncome,
		EmploymentMonths:         req.EmploymentMonths,
		References:               references,
		State:                    model.StatePending,
		Comments:                 []string{req.InitialComment},
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.formals.Create(txCtx, app); err != nil {
			return err
		}
		if err := s.audit.Record(txCtx, AuditEntry{
			ActorID:           &req.MerchantID,
			Action:            model.ActionCreateFormal,
			EntityType:        model.EntityFormal,
			EntityID:          app.ID.String(),
			RootApplicationID: &prelim.ID,
			Details:           map[string]interface{}{"dni": req.DNI},
		}); err != nil {
			return err
		}

		// Applicant, merchant and the analyst group all learn about the new
		// application; the rows ride the same transaction as the insert.
		msg := "Se registró la solicitud formal del cliente " + req.DNI
		meta := map[string]interface{}{"formal_application_id": app.ID.String()}
		if client, clientErr := s.users.GetClientByDNI(txCtx, req.DNI); clientErr == nil {
			if err := s.notifier.QueueForUser(txCtx, client.ID, model.NotifyFormalCreated, msg, meta); err != nil {
				return err
			}
		} else {
			log.Printf("formal: no client account for dni %s, skipping applicant notification", req.DNI)
		}
		if err := s.notifier.QueueForUser(txCtx, req.MerchantID, model.NotifyFormalCreated, msg, meta); err != nil {
			return err
		}
		return s.notifier.QueueForRole(txCtx, model.RoleAnalyst, model.NotifyFormalCreated,
			"Nueva solicitud formal pendiente de revisión", meta)
	})
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (s *formalService) Approve(ctx context.Context, id uuid.UUID, req ApproveFormalRequest, approverID uuid.UUID, isAdmin bool) (*model.FormalApplication, error) {
	app, err := s.loadPending(ctx, id, model.ActionApproveFormal, &approverID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.CardNumber) == "" || strings.TrimSpace(req.AccountNumber) == "" {
		valErr := apperrors.Validation("card and account numbers are required for approval")
		s.auditFailure(ctx, app, model.ActionApproveFormal, &approverID, valErr)
		return nil, valErr
	}

	app.SetApprover(approverID, isAdmin)
	comment := fmt.Sprintf("Aprobación por %s %s", roleLabel(isAdmin), approverID)
	if strings.TrimSpace(req.Comment) != "" {
		comment += ": " + req.Comment
	}
	app.AppendComment(comment)
	app.State = model.StateApproved
	app.CardNumber = req.CardNumber
	app.AccountNumber = req.AccountNumber

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.formals.UpdateApproval(txCtx, app); err != nil {
			return err
		}
		if err := s.audit.Record(txCtx, AuditEntry{
			ActorID:           &approverID,
			Action:            model.ActionApproveFormal,
			EntityType:        model.EntityFormal,
			EntityID:          app.ID.String(),
			RootApplicationID: &app.PreliminaryApplicationID,
			Details: map[string]interface{}{
				"card_number":    req.CardNumber,
				"account_number": req.AccountNumber,
				"is_admin":       isAdmin,
			},
		}); err != nil {
			return err
		}
		return s.queueClientNotification(txCtx, app.DNI, model.NotifyFormalResult,
			"Su solicitud formal fue aprobada",
			map[string]interface{}{"formal_application_id": app.ID.String(), "state": app.State})
	})
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (s *formalService) Reject(ctx context.Context, id uuid.UUID, req RejectFormalRequest, approverID uuid.UUID, isAdmin bool) (*model.FormalApplication, error) {
	app, err := s.loadPending(ctx, id, model.ActionRejectFormal, &approverID)
	if err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(req.Comment)
	if len(comment) < model.MinRejectCommentLen {
		valErr := apperrors.Validation("rejection comment must have at least %d characters", model.MinRejectCommentLen)
		s.auditFailure(ctx, app, model.ActionRejectFormal, &approverID, valErr)
		return nil, valErr
	}

	app.SetApprover(approverID, isAdmin)
	app.AppendComment(fmt.Sprintf("Rechazo por %s %s: %s", roleLabel(isAdmin), approverID, comment))
	app.State = model.StateRejected

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.formals.UpdateRejection(txCtx, app); err != nil {
			return err
		}
		if err := s.audit.Record(txCtx, AuditEntry{
			ActorID:           &approverID,
			Action:            model.ActionRejectFormal,
			EntityType:        model.EntityFormal,
			EntityID:          app.ID.String(),
			RootApplicationID: &app.PreliminaryApplicationID,
			Details: map[string]interface{}{
				"comment":  comment,
				"is_admin": isAdmin,
			},
		}); err != nil {
			return err
		}
		return s.queueClientNotification(txCtx, app.DNI, model.NotifyFormalResult,
			"Su solicitud formal fue rechazada: "+comment,
			map[string]interface{}{"formal_application_id": app.ID.String(), "state": app.State})
	})
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Update applies applicant-data changes to a formal application that has not
// been approved yet, recording a field-level diff in the audit trail.
func (s *formalService) Update(ctx context.Context, modified *model.FormalApplication, actorID uuid.UUID, comment string) (*model.FormalApplication, error) {
	current, err := s.formals.GetByID(ctx, modified.ID)
	if err != nil {
		s.recordAudit(ctx, AuditEntry{
			ActorID:    &actorID,
			Action:     model.ActionUpdateFormal,
			EntityType: model.EntityFormal,
			EntityID:   modified.ID.String(),
			Details:    map[string]interface{}{"error": err.Error()},
		})
		return nil, err
	}

	if current.State == model.StateApproved {
		bizErr := apperrors.BusinessRule("formal application %s is approved and immutable", current.ID)
		s.auditFailure(ctx, current, model.ActionUpdateFormal, &actorID, bizErr)
		return nil, bizErr
	}

	changes := diffTrackedFields(current, modified)

	current.FullName = modified.FullName
	current.Address = modified.Address
	current.Phone = modified.Phone
	current.Email = modified.Email
	current.EmployerName = modified.EmployerName
	current.EmployerPhone = modified.EmployerPhone
	current.MonthlyIncome = modified.MonthlyIncome
	current.EmploymentMonths = modified.EmploymentMonths
	current.References = modified.References
	if strings.TrimSpace(comment) != "" {
		current.AppendComment(comment)
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.formals.Update(txCtx, current); err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		return s.audit.Record(txCtx, AuditEntry{
			ActorID:           &actorID,
			Action:            model.ActionUpdateFormal,
			EntityType:        model.EntityFormal,
			EntityID:          current.ID.String(),
			RootApplicationID: &current.PreliminaryApplicationID,
			Details:           map[string]interface{}{"changes": changes},
		})
	})
	if err != nil {
		s.recordAudit(ctx, AuditEntry{
			ActorID:    &actorID,
			Action:     model.ActionUpdateFormal,
			EntityType: model.EntityFormal,
			EntityID:   current.ID.String(),
			Details:    map[string]interface{}{"error": err.Error()},
		})
		return nil, err
	}

	return current, nil
}

func (s *formalService) GetByID(ctx context.Context, id uuid.UUID) (*model.FormalApplication, error) {
	return s.formals.GetByID(ctx, id)
}

func (s *formalService) List(ctx context.Context, filter FormalFilter) ([]model.FormalApplication, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.formals.ListByState(ctx, filter.State, filter.Page, filter.Limit)
}

// --- Helpers ---

// loadPending loads an application and verifies it can still be decided,
// auditing the failed attempt otherwise.
func (s *formalService) loadPending(ctx context.Context, id uuid.UUID, action string, actorID *uuid.UUID) (*model.FormalApplication, error) {
	app, err := s.formals.GetByID(ctx, id)
	if err != nil {
		s.recordAudit(ctx, AuditEntry{
			ActorID:    actorID,
			Action:     action,
			EntityType: model.EntityFormal,
			EntityID:   id.String(),
			Details:    map[string]interface{}{"error": err.Error()},
		})
		return nil, err
	}

	if app.State != model.StatePending {
		bizErr := apperrors.BusinessRule("formal application %s is already %s", app.ID, app.State)
		s.auditFailure(ctx, app, action, actorID, bizErr)
		return nil, bizErr
	}
	return app, nil
}

func (s *formalService) auditFailure(ctx context.Context, app *model.FormalApplication, action string, actorID *uuid.UUID, failure error) {
	s.recordAudit(ctx, AuditEntry{
		ActorID:           actorID,
		Action:            action,
		EntityType:        model.EntityFormal,
		EntityID:          app.ID.String(),
		RootApplicationID: &app.PreliminaryApplicationID,
		Details:           map[string]interface{}{"error": failure.Error()},
	})
}

func (s *formalService) queueClientNotification(ctx context.Context, dni, notifType, message string, metadata map[string]interface{}) error {
	client, err := s.users.GetClientByDNI(ctx, dni)
	if err != nil {
		log.Printf("formal: no client account for dni %s, skipping notification", dni)
		return nil
	}
	return s.notifier.QueueForUser(ctx, client.ID, notifType, message, metadata)
}

func (s *formalService) notifyUser(ctx context.Context, userID uuid.UUID, notifType, message string, metadata map[string]interface{}) {
	if err := s.notifier.QueueForUser(ctx, userID, notifType, message, metadata); err != nil {
		log.Printf("formal: failed to queue notification: %v", err)
	}
}

func (s *formalService) recordAudit(ctx context.Context, entry AuditEntry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Printf("formal: failed to record audit event: %v", err)
	}
}

func roleLabel(isAdmin bool) string {
	if isAdmin {
		return model.RoleAdmin
	}
	return model.RoleAnalyst
}

func validateReferences(refs []ReferenceInput) error {
	if len(refs) != model.RequiredReferences {
		return apperrors.Validation("exactly %d references are required, got %d", model.RequiredReferences, len(refs))
	}
	for i, ref := range refs {
		if strings.TrimSpace(ref.FullName) == "" ||
			strings.TrimSpace(ref.Relationship) == "" ||
			strings.TrimSpace(ref.Phone) == "" {
			return apperrors.Validation("reference %d must supply full name, relationship and phone", i)
		}
	}
	return nil
}

// diffTrackedFields compares the fixed tracked-field list between the stored
// and the incoming version. References are compared element-wise with deep
// equality; a length change counts as a change of the whole list.
func diffTrackedFields(current, modified *model.FormalApplication) []FieldChange {
	var changes []FieldChange
	add := func(field string, oldVal, newVal interface{}) {
		changes = append(changes, FieldChange{Field: field, Old: oldVal, New: newVal})
	}

	if current.FullName != modified.FullName {
		add("full_name", current.FullName, modified.FullName)
	}
	if current.Address != modified.Address {
		add("address", current.Address, modified.Address)
	}
	if current.Phone != modified.Phone {
		add("phone", current.Phone, modified.Phone)
	}
	if current.Email != modified.Email {
		add("email", current.Email, modified.Email)
	}
	if current.EmployerName != modified.EmployerName {
		add("employer_name", current.EmployerName, modified.EmployerName)
	}
	if current.EmployerPhone != modified.EmployerPhone {
		add("employer_phone", current.EmployerPhone, modified.EmployerPhone)
	}
	if !current.MonthlyIncome.Equal(modified.MonthlyIncome) {
		add("monthly_income", current.MonthlyIncome.String(), modified.MonthlyIncome.String())
	}
	if current.EmploymentMonths != modified.EmploymentMonths {
		add("employment_months", current.EmploymentMonths, modified.EmploymentMonths)
	}

	if len(current.References) != len(modified.References) {
		add("references", current.References, modified.References)
	} else {
		for i := range current.References {
			if !reflect.DeepEqual(current.References[i], modified.References[i]) {
				add("references", current.References, modified.References)
				break
			}
		}
	}

	return changes
}
