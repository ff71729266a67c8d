package service

import (
	"context"
	"errors"
	"testing"

	"credito/internal/bureau"
	"credito/internal/model"
	"credito/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPreliminaryFixture(creditBureau bureau.CreditBureau) (PreliminaryService, *memPreliminaryRepo, *memFormalRepo, *memContractRepo, *captureNotifier, *captureAudit) {
	prelims := newMemPreliminaryRepo()
	formals := newMemFormalRepo()
	contracts := newMemContractRepo()
	notifier := &captureNotifier{}
	audit := &captureAudit{}
	svc := NewPreliminaryService(prelims, formals, contracts, creditBureau, notifier, audit, &fakeTxManager{})
	return svc, prelims, formals, contracts, notifier, audit
}

func TestPreliminaryCreateApproved(t *testing.T) {
	svc, prelims, _, _, notifier, audit := newPreliminaryFixture(bureau.NewSimulatedBureau(0))
	merchantID := uuid.New()

	app, err := svc.Create(context.Background(), CreatePreliminaryRequest{
		ClientDNI:  "225577",
		ClientCUIL: "20-225577-3",
		MerchantID: merchantID,
	})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, model.StateApproved, app.State)
	assert.GreaterOrEqual(t, app.BureauScore, 500)
	require.NotNil(t, app.BureauCheckedAt)

	stored, err := prelims.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateApproved, stored.State)

	require.Len(t, audit.byAction(model.ActionCreatePreliminary), 1)
	require.Len(t, audit.byAction(model.ActionBureauCheck), 1)

	merchantNotifs := notifier.forUser(merchantID)
	require.Len(t, merchantNotifs, 1)
	assert.Equal(t, model.NotifyPreliminaryResult, merchantNotifs[0].Type)
}

func TestPreliminaryCreateRejectedByBureau(t *testing.T) {
	svc, prelims, _, _, notifier, _ := newPreliminaryFixture(bureau.NewSimulatedBureau(0))
	merchantID := uuid.New()

	// National ids ending in 8 come back rejected from the simulator.
	app, err := svc.Create(context.Background(), CreatePreliminaryRequest{
		ClientDNI:  "30000008",
		ClientCUIL: "20-30000008-1",
		MerchantID: merchantID,
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "not eligible")
	require.NotNil(t, app)
	assert.Equal(t, model.StateRejected, app.State)
	assert.Less(t, app.BureauScore, 400)

	stored, getErr := prelims.GetByID(context.Background(), app.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.StateRejected, stored.State)

	require.Len(t, notifier.forUser(merchantID), 1)
}

func TestPreliminaryCreateValidation(t *testing.T) {
	svc, prelims, _, _, _, _ := newPreliminaryFixture(bureau.NewSimulatedBureau(0))

	tests := []struct {
		name string
		req  CreatePreliminaryRequest
	}{
		{"missing dni", CreatePreliminaryRequest{ClientCUIL: "20-1-1", MerchantID: uuid.New()}},
		{"missing cuil", CreatePreliminaryRequest{ClientDNI: "225577", MerchantID: uuid.New()}},
		{"blank dni", CreatePreliminaryRequest{ClientDNI: "   ", ClientCUIL: "20-1-1", MerchantID: uuid.New()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := svc.Create(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, app)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}

	rows, _, err := prelims.ListByState(context.Background(), "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPreliminaryCreateBlockedByActiveContract(t *testing.T) {
	svc, prelims, formals, contracts, _, _ := newPreliminaryFixture(bureau.NewSimulatedBureau(0))

	formal := &model.FormalApplication{
		PreliminaryApplicationID: uuid.New(),
		DNI:                      "225577",
		State:                    model.StateApproved,
	}
	require.NoError(t, formals.Create(context.Background(), formal))
	require.NoError(t, contracts.Create(context.Background(), &model.Contract{
		FormalApplicationID: formal.ID,
		State:               model.ContractStateGenerated,
	}))

	app, err := svc.Create(context.Background(), CreatePreliminaryRequest{
		ClientDNI:  "225577",
		ClientCUIL: "20-225577-3",
		MerchantID: uuid.New(),
	})

	require.Error(t, err)
	assert.Nil(t, app)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	rows, _, listErr := prelims.ListByState(context.Background(), "", 1, 20)
	require.NoError(t, listErr)
	assert.Empty(t, rows)
}

func TestPreliminaryCreateAllowedWhenContractFinished(t *testing.T) {
	svc, _, formals, contracts, _, _ := newPreliminaryFixture(bureau.NewSimulatedBureau(0))

	formal := &model.FormalApplication{
		PreliminaryApplicationID: uuid.New(),
		DNI:                      "225577",
		State:                    model.StateApproved,
	}
	require.NoError(t, formals.Create(context.Background(), formal))
	require.NoError(t, contracts.Create(context.Background(), &model.Contract{
		FormalApplicationID: formal.ID,
		State:               model.ContractStateFinished,
	}))

	app, err := svc.Create(context.Background(), CreatePreliminaryRequest{
		ClientDNI:  "225577",
		ClientCUIL: "20-225577-3",
		MerchantID: uuid.New(),
	})

	require.NoError(t, err)
	assert.Equal(t, model.StateApproved, app.State)
}

func TestPreliminaryBureauFailureLeavesPending(t *testing.T) {
	svc, prelims, _, _, notifier, _ := newPreliminaryFixture(&fakeBureau{err: errors.New("bureau unavailable")})
	merchantID := uuid.New()

	app, err := svc.Create(context.Background(), CreatePreliminaryRequest{
		ClientDNI:  "225577",
		ClientCUIL: "20-225577-3",
		MerchantID: merchantID,
	})

	require.Error(t, err)
	assert.Nil(t, app)

	rows, _, listErr := prelims.ListByState(context.Background(), model.StatePending, 1, 20)
	require.NoError(t, listErr)
	require.Len(t, rows, 1)
	assert.Equal(t, model.StatePending, rows[0].State)

	merchantNotifs := notifier.forUser(merchantID)
	require.Len(t, merchantNotifs, 1)
	assert.Equal(t, model.NotifyError, merchantNotifs[0].Type)
}

func TestVerifyApprovalIsIdempotentOnTerminalStates(t *testing.T) {
	svc, prelims, _, _, _, audit := newPreliminaryFixture(bureau.NewSimulatedBureau(0))

	approved := &model.PreliminaryApplication{State: model.StateApproved, ClientDNI: "225577", ClientCUIL: "20-1-1"}
	rejected := &model.PreliminaryApplication{State: model.StateRejected, ClientDNI: "30000008", ClientCUIL: "20-2-2"}
	require.NoError(t, prelims.Create(context.Background(), approved))
	require.NoError(t, prelims.Create(context.Background(), rejected))

	got, err := svc.VerifyApproval(context.Background(), approved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateApproved, got.State)

	got, err = svc.VerifyApproval(context.Background(), rejected.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "not eligible")
	assert.Equal(t, model.StateRejected, got.State)

	// No bureau check ran for either terminal application.
	assert.Empty(t, audit.byAction(model.ActionBureauCheck))
}

func TestVerifyApprovalResolvesPendingApplication(t *testing.T) {
	svc, prelims, _, _, _, _ := newPreliminaryFixture(bureau.NewSimulatedBureau(0))

	pending := &model.PreliminaryApplication{State: model.StatePending, ClientDNI: "225577", ClientCUIL: "20-1-1"}
	require.NoError(t, prelims.Create(context.Background(), pending))

	got, err := svc.VerifyApproval(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateApproved, got.State)

	stored, err := prelims.GetByID(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateApproved, stored.State)
}

func TestVerifyApprovalUnknownApplication(t *testing.T) {
	svc, _, _, _, _, _ := newPreliminaryFixture(bureau.NewSimulatedBureau(0))

	_, err := svc.VerifyApproval(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
