package service

import (
	"context"
	"errors"
	"testing"

	"credito/internal/document"
	"credito/internal/model"
	"credito/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	payload []byte
	err     error
}

func (r *fakeRenderer) RenderContract(data document.ContractData) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.payload, nil
}

type contractFixture struct {
	svc       ContractService
	prelims   *memPreliminaryRepo
	formals   *memFormalRepo
	contracts *memContractRepo
	renderer  *fakeRenderer
	notifier  *captureNotifier
	audit     *captureAudit
	client    *model.User
}

func newContractFixture(t *testing.T) *contractFixture {
	t.Helper()
	client := &model.User{
		Username: "jperez",
		Email:    "jperez@example.com",
		Role:     model.RoleClient,
		DNI:      "225577",
		CUIL:     "20-225577-3",
	}
	f := &contractFixture{
		prelims:   newMemPreliminaryRepo(),
		formals:   newMemFormalRepo(),
		contracts: newMemContractRepo(),
		renderer:  &fakeRenderer{payload: []byte("%PDF-1.4 contrato")},
		notifier:  &captureNotifier{},
		audit:     &captureAudit{},
		client:    client,
	}
	f.svc = NewContractService(f.contracts, f.formals, f.prelims, newMemUserRepo(client), f.renderer, f.notifier, f.audit, &fakeTxManager{})
	return f
}

func (f *contractFixture) approvedFormal(t *testing.T) *model.FormalApplication {
	t.Helper()
	prelim := &model.PreliminaryApplication{
		State:      model.StateApproved,
		ClientDNI:  "225577",
		ClientCUIL: "20-225577-3",
	}
	require.NoError(t, f.prelims.Create(context.Background(), prelim))

	app := &model.FormalApplication{
		PreliminaryApplicationID: prelim.ID,
		FullName:                 "Juan Pérez",
		DNI:                      "225577",
		State:                    model.StateApproved,
		CardNumber:               "4509-0000-0000-0001",
		AccountNumber:            "000123456789",
	}
	require.NoError(t, f.formals.Create(context.Background(), app))
	return app
}

func TestContractGenerate(t *testing.T) {
	f := newContractFixture(t)
	app := f.approvedFormal(t)

	contract, err := f.svc.Generate(context.Background(), app.ID)

	require.NoError(t, err)
	assert.Equal(t, model.ContractStateGenerated, contract.State)
	assert.True(t, contract.Amount.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, app.ID, contract.FormalApplicationID)
	assert.Equal(t, f.client.ID, contract.ClientID)
	assert.Equal(t, app.CardNumber, contract.CardNumber)
	assert.Equal(t, app.AccountNumber, contract.AccountNumber)
	assert.Equal(t, []byte("%PDF-1.4 contrato"), contract.Document)

	// Both stages carry the back-link to the generated contract.
	storedFormal, err := f.formals.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.NotNil(t, storedFormal.ContractID)
	assert.Equal(t, contract.ID, *storedFormal.ContractID)

	storedPrelim, err := f.prelims.GetByID(context.Background(), app.PreliminaryApplicationID)
	require.NoError(t, err)
	require.NotNil(t, storedPrelim.ContractID)
	assert.Equal(t, contract.ID, *storedPrelim.ContractID)

	require.Len(t, f.audit.byAction(model.ActionGenerateContract), 1)

	clientNotifs := f.notifier.forUser(f.client.ID)
	require.Len(t, clientNotifs, 1)
	assert.Equal(t, model.NotifyContractReady, clientNotifs[0].Type)
	assert.Equal(t, contract.ID.String(), clientNotifs[0].Metadata["contract_id"])
	assert.NotEmpty(t, clientNotifs[0].Metadata["document_base64"])
}

func TestContractGenerateRequiresApprovedApplication(t *testing.T) {
	f := newContractFixture(t)

	for _, state := range []string{model.StatePending, model.StateRejected} {
		t.Run(state, func(t *testing.T) {
			f.notifier.queued = nil
			prelim := &model.PreliminaryApplication{State: model.StateApproved, ClientDNI: "225577", ClientCUIL: "20-1-1"}
			require.NoError(t, f.prelims.Create(context.Background(), prelim))
			app := &model.FormalApplication{
				PreliminaryApplicationID: prelim.ID,
				DNI:                      "225577",
				State:                    state,
			}
			require.NoError(t, f.formals.Create(context.Background(), app))

			contract, err := f.svc.Generate(context.Background(), app.ID)

			require.Error(t, err)
			assert.Nil(t, contract)
			assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))

			// The applicant gets exactly one notification for the failed attempt.
			clientNotifs := f.notifier.forUser(f.client.ID)
			require.Len(t, clientNotifs, 1)
			assert.Equal(t, model.NotifyError, clientNotifs[0].Type)
			assert.Contains(t, clientNotifs[0].Message, "no está aprobada")
		})
	}
}

func TestContractGenerateDuplicate(t *testing.T) {
	f := newContractFixture(t)
	app := f.approvedFormal(t)

	_, err := f.svc.Generate(context.Background(), app.ID)
	require.NoError(t, err)
	f.notifier.queued = nil

	contract, err := f.svc.Generate(context.Background(), app.ID)
	require.Error(t, err)
	assert.Nil(t, contract)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	clientNotifs := f.notifier.forUser(f.client.ID)
	require.Len(t, clientNotifs, 1)
	assert.Equal(t, model.NotifyError, clientNotifs[0].Type)
}

func TestContractGenerateUnknownApplication(t *testing.T) {
	f := newContractFixture(t)

	contract, err := f.svc.Generate(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Nil(t, contract)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestContractGenerateRendererFailure(t *testing.T) {
	f := newContractFixture(t)
	app := f.approvedFormal(t)
	f.renderer.err = errors.New("render failed")

	contract, err := f.svc.Generate(context.Background(), app.ID)

	require.Error(t, err)
	assert.Nil(t, contract)

	// The contract row committed before rendering and stays in place.
	rows, listErr := f.contracts.ListByFormalApplicationID(context.Background(), app.ID)
	require.NoError(t, listErr)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Document)

	clientNotifs := f.notifier.forUser(f.client.ID)
	require.Len(t, clientNotifs, 1)
	assert.Equal(t, model.NotifyError, clientNotifs[0].Type)
}

func TestContractDownload(t *testing.T) {
	f := newContractFixture(t)
	app := f.approvedFormal(t)

	contract, err := f.svc.Generate(context.Background(), app.ID)
	require.NoError(t, err)
	f.audit.entries = nil

	payload, err := f.svc.Download(context.Background(), contract.ID, "225577")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 contrato"), payload)
	require.Len(t, f.audit.byAction(model.ActionDownloadContract), 1)
}

func TestContractDownloadWrongClient(t *testing.T) {
	f := newContractFixture(t)
	app := f.approvedFormal(t)

	contract, err := f.svc.Generate(context.Background(), app.ID)
	require.NoError(t, err)

	payload, err := f.svc.Download(context.Background(), contract.ID, "999999")
	require.Error(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, apperrors.KindAuthorization, apperrors.KindOf(err))
}

func TestContractDownloadUnknownContract(t *testing.T) {
	f := newContractFixture(t)

	_, err := f.svc.Download(context.Background(), uuid.New(), "225577")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestContractDownloadRendersWhenNotCached(t *testing.T) {
	f := newContractFixture(t)
	app := f.approvedFormal(t)

	contract := &model.Contract{
		Amount:              decimal.NewFromInt(10000),
		State:               model.ContractStateGenerated,
		FormalApplicationID: app.ID,
		ClientID:            f.client.ID,
	}
	require.NoError(t, f.contracts.Create(context.Background(), contract))

	payload, err := f.svc.Download(context.Background(), contract.ID, "225577")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 contrato"), payload)
}
