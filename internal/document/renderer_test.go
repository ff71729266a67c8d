package document_test

import (
	"testing"
	"time"

	"credito/internal/document"
	"credito/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderContractProducesPDF(t *testing.T) {
	r := document.NewPDFRenderer()

	contract := &model.Contract{
		ID:            uuid.New(),
		Amount:        decimal.NewFromFloat(10000.00),
		State:         model.ContractStateGenerated,
		CardNumber:    "1234",
		AccountNumber: "5678",
		GeneratedAt:   time.Now(),
	}
	app := &model.FormalApplication{
		FullName: "Juan Perez (hijo)",
		DNI:      "225577",
	}

	payload, err := r.RenderContract(document.ContractData{Contract: contract, Application: app})
	require.NoError(t, err)

	assert.True(t, len(payload) > 100)
	assert.Equal(t, "%PDF-1.4", string(payload[:8]))
	assert.Contains(t, string(payload), "10000.00")
	// Parentheses in applicant data must be escaped, not break the text object
	assert.Contains(t, string(payload), `\(hijo\)`)
}

func TestRenderContractRequiresBothEntities(t *testing.T) {
	r := document.NewPDFRenderer()

	_, err := r.RenderContract(document.ContractData{Contract: &model.Contract{}})
	assert.Error(t, err)

	_, err = r.RenderContract(document.ContractData{Application: &model.FormalApplication{}})
	assert.Error(t, err)
}
