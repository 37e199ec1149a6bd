package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/sjperalta/cbms-api/internal/models"
)

// AdvicePDF renders the bank advice that accompanies a forwarded cheque
func (s *ChequeService) AdvicePDF(ctx context.Context, id uint) ([]byte, string, error) {
	cheque, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if cheque.Status != models.ChequeStatusForwarded {
		return nil, "", fmt.Errorf("%w: advice is only available for forwarded cheques", ErrInvalidState)
	}

	schedule, err := s.scheduleRepo.FindByIDWithBills(ctx, cheque.ScheduleOfPaymentID)
	if err != nil {
		return nil, "", translate(err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Bank Advice - Asaan Cheque")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	row := func(label, value string) {
		pdf.Cell(55, 7, label)
		pdf.Cell(0, 7, value)
		pdf.Ln(6)
	}

	row("DDO:", cheque.DDOName)
	row("Cost Centre:", cheque.CostCentre)
	row("Grant No.:", cheque.GrantNumber)
	row("Cheque No.:", fmt.Sprintf("AC-%06d", cheque.ID))
	if cheque.ReferenceNumber != nil {
		row("Reference No.:", *cheque.ReferenceNumber)
	}
	if cheque.ForwardedDate != nil {
		row("Forwarded On:", cheque.ForwardedDate.Format("02-Jan-2006"))
	}
	pdf.Ln(4)

	row("Payee:", cheque.PayeeName)
	row("Amount:", "Rs. "+cheque.Amount.StringFixed(2))
	pdf.Cell(55, 7, "In Words:")
	pdf.MultiCell(0, 7, AmountInWords(cheque.Amount), "", "L", false)
	if cheque.BankDetails != nil {
		pdf.Cell(55, 7, "Bank Details:")
		pdf.MultiCell(0, 7, *cheque.BankDetails, "", "L", false)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Particulars")
	pdf.Ln(9)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(45, 7, "Bill No.", "1", 0, "L", false, 0, "")
	pdf.CellFormat(85, 7, "Supplier", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 7, "Net Payment", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, b := range schedule.Bills {
		pdf.CellFormat(45, 7, b.BillNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(85, 7, b.SupplierName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, b.NetPayment.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(130, 7, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 7, schedule.NetAmount.StringFixed(2), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 10)
	certificate := "Not confirmed"
	if cheque.CertificateConfirmed {
		certificate = "Confirmed"
	}
	row("Certificate:", certificate)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("bank_advice_AC-%06d.pdf", cheque.ID)
	return buf.Bytes(), filename, nil
}
