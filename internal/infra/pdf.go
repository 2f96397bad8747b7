package infra

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"balcao/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// RenderReceiptPDF renders an 80mm thermal receipt for order. Page height
// grows with the number of items.
func RenderReceiptPDF(order *model.Order, storeName string) ([]byte, error) {
	height := 75.0 + 5*float64(len(order.Items))
	if order.Delivery {
		height += 15
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: height},
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8
	rule := func() {
		pdf.Ln(1)
		pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
		pdf.Ln(2)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 6, tr(storeName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tr("Pedido "+order.OrderNumber), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, order.CreatedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	if order.Customer != nil {
		pdf.CellFormat(contentW, 4, tr("Cliente: "+order.Customer.Name), "", 1, "L", false, 0, "")
	} else if order.CustomerName != nil {
		pdf.CellFormat(contentW, 4, tr("Cliente: "+*order.CustomerName), "", 1, "L", false, 0, "")
	}
	if order.ReservationDate != nil {
		when := order.ReservationDate.Format("02/01/2006")
		if order.PickupTime != nil {
			when += " " + *order.PickupTime
		}
		pdf.CellFormat(contentW, 4, tr("Retirada: "+when), "", 1, "L", false, 0, "")
	}
	rule()

	col1, col2, col3 := contentW*0.56, contentW*0.14, contentW*0.30
	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Produto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qtd", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, it := range order.Items {
		name := it.ProductName
		if it.VariationName != nil && *it.VariationName != "" {
			name += " - " + *it.VariationName
		}
		if r := []rune(name); len(r) > 28 {
			name = string(r[:27]) + "."
		}
		sub := money(it.Subtotal)
		if it.IsRedeemedWithPoints {
			sub = "pontos"
		}
		pdf.CellFormat(col1, 5, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", it.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, tr(sub), "", 1, "R", false, 0, "")
	}
	rule()

	if order.Delivery {
		if !order.DeliveryFee.IsZero() {
			pdf.CellFormat(col1+col2, 5, "Taxa de entrega:", "", 0, "L", false, 0, "")
			pdf.CellFormat(col3, 5, money(order.DeliveryFee), "", 1, "R", false, 0, "")
		}
		pdf.MultiCell(contentW, 4, tr("Entrega: "+deliveryLine(order)), "", "L", false)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, money(order.Total.Add(order.DeliveryFee)), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	if order.PaymentMethod != "" {
		pdf.CellFormat(contentW, 4, tr("Pagamento: "+order.PaymentMethod), "", 1, "L", false, 0, "")
	}
	if order.ChangeFor != nil {
		pdf.CellFormat(contentW, 4, tr("Troco para: "+money(*order.ChangeFor)), "", 1, "L", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("Obrigado pela preferência!"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveReceipt writes data to storagePath/receipt_<order number>.pdf and returns
// the file name relative to storagePath.
func SaveReceipt(storagePath, orderNumber string, data []byte) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	name := fmt.Sprintf("receipt_%s.pdf", orderNumber)
	if err := os.WriteFile(filepath.Join(storagePath, name), data, 0o644); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return name, nil
}

func money(d decimal.Decimal) string { return "R$ " + d.StringFixed(2) }

func deliveryLine(o *model.Order) string {
	s := deref(o.DeliveryAddress)
	if n := deref(o.DeliveryNumber); n != "" {
		s += ", " + n
	}
	if b := deref(o.DeliveryNeighborhood); b != "" {
		s += " - " + b
	}
	if r := deref(o.DeliveryReference); r != "" {
		s += " (" + r + ")"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
