// Package document renders contract sheets. The byte layout of the output is
// deliberately behind the Renderer interface; the contract lifecycle only
// cares that it gets a payload to attach and serve.
package document

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"credito/internal/model"
)

// ContractData bundles everything a contract sheet shows.
type ContractData struct {
	Contract    *model.Contract
	Application *model.FormalApplication
}

// Renderer produces the downloadable contract document.
type Renderer interface {
	RenderContract(data ContractData) ([]byte, error)
}

// PDFRenderer writes a single-page PDF contract sheet.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) RenderContract(data ContractData) ([]byte, error) {
	if data.Contract == nil || data.Application == nil {
		return nil, fmt.Errorf("render contract: contract and application are required")
	}

	lines := []string{
		"CONTRATO DE CREDITO",
		"",
		fmt.Sprintf("Contrato: %s", data.Contract.ID),
		fmt.Sprintf("Fecha: %s", data.Contract.GeneratedAt.Format("2006-01-02")),
		fmt.Sprintf("Titular: %s (DNI %s)", data.Application.FullName, data.Application.DNI),
		fmt.Sprintf("Monto: $ %s", data.Contract.Amount.StringFixed(2)),
		fmt.Sprintf("Tarjeta: %s", data.Contract.CardNumber),
		fmt.Sprintf("Cuenta: %s", data.Contract.AccountNumber),
		fmt.Sprintf("Estado: %s", data.Contract.State),
		"",
		fmt.Sprintf("Emitido el %s", time.Now().Format("2006-01-02 15:04")),
	}

	return buildPDF(lines), nil
}

// buildPDF assembles a minimal one-page PDF with the given text lines.
func buildPDF(lines []string) []byte {
	var content bytes.Buffer
	content.WriteString("BT /F1 12 Tf 50 780 Td 16 TL\n")
	for _, line := range lines {
		content.WriteString(fmt.Sprintf("(%s) Tj T*\n", escapePDFText(line)))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func escapePDFText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	s = strings.ReplaceAll(s, ")", `\)`)
	return s
}
