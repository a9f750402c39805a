package receipt

import (
	"fmt"

	"bistro-pos/internal/order"
	"bistro-pos/internal/payment"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	pdfrow "github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	centered = props.Text{Align: align.Center, Size: 9}
	heading  = props.Text{Align: align.Center, Size: 14, Style: fontstyle.Bold}
	right    = props.Text{Align: align.Right, Size: 9}
	plain    = props.Text{Size: 9}
	bold     = props.Text{Size: 9, Style: fontstyle.Bold}
)

// RenderPDF lays out the same fields as Render on a single page.
func RenderPDF(p *payment.Payment, o *order.Order, tableNumber int, server string, info Restaurant) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRows(text.NewRow(9, info.Name, heading))
	if info.Address != "" {
		m.AddRows(text.NewRow(5, info.Address, centered))
	}
	m.AddRows(text.NewRow(5, fmt.Sprintf("Phone: %s | Email: %s", info.Phone, info.Email), centered))
	m.AddRows(line.NewRow(4))
	m.AddRows(text.NewRow(7, "PAYMENT RECEIPT", heading))
	if p.Status == payment.StatusCancelled {
		m.AddRows(text.NewRow(6, "*** CANCELLED ***", heading))
	}

	table := "N/A"
	if tableNumber > 0 {
		table = fmt.Sprintf("%d", tableNumber)
	}
	if server == "" {
		server = fmt.Sprintf("#%d", o.StaffID)
	}
	m.AddRows(pair("Receipt #:", p.ReceiptNumber, plain))
	if p.PaidAt != nil {
		m.AddRows(pair("Date:", p.PaidAt.Format("2006-01-02 15:04:05"), plain))
	}
	m.AddRows(
		pair("Order #:", fmt.Sprintf("%d", o.ID), plain),
		pair("Table:", table, plain),
		pair("Server:", server, plain),
		pair("Payment Method:", methodLabel(p.Method), plain),
		line.NewRow(4),
	)

	for _, it := range p.Items {
		m.AddRow(5,
			text.NewCol(6, it.Name, plain),
			text.NewCol(3, fmt.Sprintf("%d x $%s", it.Quantity, it.UnitPrice), right),
			text.NewCol(3, "$"+it.LineTotal.String(), right),
		)
	}
	m.AddRows(line.NewRow(4), pair("Subtotal:", "$"+p.Amount.String(), plain))
	if p.Tip > 0 {
		m.AddRows(pair("Tip:", "$"+p.Tip.String(), plain))
	}
	m.AddRows(pair("TOTAL PAID:", "$"+p.TotalPaid.String(), bold))
	if p.Method == payment.MethodCash && p.AmountReceived != nil {
		m.AddRows(
			pair("Amount Received:", "$"+p.AmountReceived.String(), plain),
			pair("Change:", "$"+p.ChangeGiven.String(), plain),
		)
	}
	if p.CancelledAt != nil {
		m.AddRows(pair("Cancelled:", p.CancelledAt.Format("2006-01-02 15:04:05"), plain))
	}

	m.AddRows(
		line.NewRow(4),
		text.NewRow(5, "Thank you for dining with us!", centered),
		text.NewRow(5, "Please come again", centered),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("cannot render receipt pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func pair(label, value string, style props.Text) core.Row {
	valueStyle := style
	valueStyle.Align = align.Right
	return pdfrow.New(6).Add(text.NewCol(6, label, style), text.NewCol(6, value, valueStyle))
}
