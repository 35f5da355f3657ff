package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/models"

	"github.com/go-pdf/fpdf"
)

const pdfDateLayout = "02/01/2006"

// RenderReservationPDF 生成预订确认单 PDF
func RenderReservationPDF(reservation *models.Reservation, shop config.ShopConfig) ([]byte, error) {
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	loc := shop.Location()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Réservation #%d", reservation.ID), true)
	pdf.SetAuthor(shop.DisplayName(), true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// 店铺抬头
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(0, 10, tr(shop.DisplayName()), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, tr(shop.City), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr("Confirmation de réservation"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Réservation n° %d", reservation.ID)), "", 1, "L", false, 0, "")
	if !reservation.CreatedAt.IsZero() {
		pdf.CellFormat(0, 6, tr("Date : "+reservation.CreatedAt.In(loc).Format(pdfDateLayout)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// 客户信息
	customer := reservation.CustomerInfos
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, tr("Client"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(customer.FullName()), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(customer.Email), "", 1, "L", false, 0, "")
	if customer.Phone != "" {
		pdf.CellFormat(0, 6, tr(customer.Phone), "", 1, "L", false, 0, "")
	}
	if reservation.IsDelivery() {
		pdf.MultiCell(0, 6, tr("Livraison : "+reservation.DeliveryAddress), "", "L", false)
	} else {
		pdf.CellFormat(0, 6, tr("Récupération en boutique"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// 明细表
	widths := []float64{70, 22, 48, 30}
	headers := []string{"Article", "Quantité", "Période", "Prix"}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(236, 228, 220)
	for i, header := range headers {
		align := "L"
		if i == len(headers)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, tr(header), "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range reservation.Items {
		name := item.ProductName
		if name == "" {
			name = fmt.Sprintf("Produit #%d", item.ProductID)
		}
		pdf.CellFormat(widths[0], 8, tr(truncateRunes(name, 38)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 8, formatRentalPeriod(item.RentalStart, item.RentalEnd, loc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 8, tr(item.LineTotal.Format()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		for _, option := range item.Options.SelectedOptions {
			label := fmt.Sprintf("  %s : %s", option.OptionTypeName, option.Name)
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 6, tr(truncateRunes(label, 90)), "LR", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
		}
	}
	pdf.Ln(4)

	// 金额汇总
	labelWidth := widths[0] + widths[1] + widths[2]
	summary := [][2]string{}
	if reservation.IsDelivery() {
		summary = append(summary, [2]string{"Frais de livraison", reservation.DeliveryFees.Format()})
	}
	summary = append(summary,
		[2]string{"Acompte", reservation.Deposit.Format()},
		[2]string{"Solde restant", reservation.Balance().Format()},
	)
	if reservation.Caution.IsPositive() {
		summary = append(summary, [2]string{"Caution", reservation.Caution.Format()})
	}
	for _, row := range summary {
		pdf.CellFormat(labelWidth, 7, tr(row[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, tr(row[1]), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(labelWidth, 9, "TOTAL", "T", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 9, tr(reservation.TotalPrice.Format()), "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr("Informations importantes"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range reservationNotices(reservation) {
		pdf.MultiCell(0, 5, tr("- "+line), "", "L", false)
	}

	// 页脚
	pdf.SetY(-30)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s - %s", shop.DisplayName(), shop.City)), "", 1, "C", false, 0, "")
	if shop.ContactEmail != "" {
		pdf.CellFormat(0, 5, tr(shop.ContactEmail), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFRenderFailed, err)
	}
	return buf.Bytes(), nil
}

func reservationNotices(reservation *models.Reservation) []string {
	notices := []string{"Le solde sera à régler lors de la " + handoverLabel(reservation) + "."}
	if reservation.Caution.IsPositive() {
		notices = append(notices, "La caution sera restituée au retour du matériel complet et en bon état.")
	}
	return append(notices,
		"Merci de vérifier le matériel à la remise et de signaler toute anomalie.",
		"Toute modification de réservation doit être demandée par email.",
	)
}

// handoverLabel 交付方式文案
func handoverLabel(reservation *models.Reservation) string {
	if reservation.IsDelivery() {
		return "livraison"
	}
	return "récupération en boutique"
}

func formatRentalPeriod(start, end time.Time, loc *time.Location) string {
	from := start.In(loc).Format(pdfDateLayout)
	to := end.In(loc).Format(pdfDateLayout)
	if from == to {
		return from
	}
	return from + " - " + to
}

func truncateRunes(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "…"
}
