package services

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// CertificateItem is one assay row on a certificate.
type CertificateItem struct {
	ItemCode     string
	SampleWeight string
	SampleReturn string
	FinalResult  string
}

// CertificateGenerator renders A5 assay certificates.
type CertificateGenerator struct {
	companyName       string
	companyAddressOne string
	companyAddressTwo string
	companyPhoneOne   string
	companyPhoneTwo   string
}

func NewCertificateGenerator() *CertificateGenerator {
	return &CertificateGenerator{
		companyName:       "GLOBAL ASSAY SERVICES PTY LTD",
		companyAddressOne: "123 Assay Street, Metallurgy City",
		companyAddressTwo: "State/Province, 54321, Country",
		companyPhoneOne:   "+1 (555) 123-4567",
		companyPhoneTwo:   "+1 (555) 987-6543",
	}
}

// Generate renders one certificate for a customer and a set of assay
// rows and returns the PDF bytes.
func (g *CertificateGenerator) Generate(customerName, date string, items []CertificateItem) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	// Letterhead
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 7, g.companyName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 4, g.companyAddressOne, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, g.companyAddressTwo, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(62, 5, g.companyPhoneOne+"  "+g.companyPhoneTwo, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(0, 5, date, "", 1, "R", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(16, 6, "Customer:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, customerName, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// Results table
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(34, 7, "Item Code", "1", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(24, 7, "Weight", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 7, "Returned", "1", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(0, 7, "Fineness", "1", 1, "C", false, 0, "")

	for _, item := range items {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(34, 10, item.ItemCode, "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(24, 10, item.SampleWeight, "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 10, item.SampleReturn, "1", 0, "C", false, 0, "")
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 10, item.FinalResult, "1", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 8)
	pdf.MultiCell(0, 4,
		"Results relate only to the items tested. Samples are retained for "+
			"14 days from the date of this certificate. Claims cannot be "+
			"entertained after the retention period.", "", "L", false)

	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Authorized Signature: ____________________", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering certificate: %w", err)
	}
	return buf.Bytes(), nil
}
