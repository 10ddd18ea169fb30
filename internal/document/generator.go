// Package document renders printable service voucher PDFs.
//
// Layout of the A5 page:
//
//	┌───────────────────────────────────────────────┐
//	│  HEADER: shop name + address/phone │ no+date  │
//	│  ───────────────────────────────────────────  │
//	│  CUSTOMER: name, contact                      │
//	│  TABLE: qty | particulars                     │
//	│  PROBLEM: reported fault                      │
//	│  ───────────────────────────────────────────  │
//	│  SIGNATURES: received by / customer           │
//	│  FOOTER: collection terms                     │
//	└───────────────────────────────────────────────┘
package document

import (
	"fmt"
	"path/filepath"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	colorInk  = &props.Color{Red: 30, Green: 30, Blue: 30}
	colorRule = &props.Color{Red: 120, Green: 120, Blue: 120}
	colorDim  = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ShopInfo is the letterhead printed at the top of every voucher.
type ShopInfo struct {
	Name    string
	Address string
	Phone   string
}

// VoucherData carries everything the rendered page needs. The caller owns
// the values; the generator never reads the database.
type VoucherData struct {
	VoucherID    string
	CustomerName string
	ContactNo    string
	Quantity     int
	Particulars  string
	Problem      string
	ReceivedBy   string
	IssuedAt     time.Time
}

// Generator writes voucher PDFs into a fixed documents directory.
type Generator struct {
	dir  string
	shop ShopInfo
}

func NewGenerator(dir string, shop ShopInfo) *Generator {
	return &Generator{dir: dir, shop: shop}
}

// Path returns the deterministic location a voucher's document is written
// to, whether or not it exists yet.
func (g *Generator) Path(voucherID string) string {
	return filepath.Join(g.dir, "voucher_"+voucherID+".pdf")
}

// Generate renders the voucher and places it at Path(data.VoucherID). The
// final file either appears complete or not at all; a failed render never
// leaves a truncated PDF behind.
func (g *Generator) Generate(data VoucherData) (string, error) {
	if data.VoucherID == "" {
		return "", fmt.Errorf("generate document: voucher id is required")
	}

	payload, err := g.render(data)
	if err != nil {
		return "", fmt.Errorf("generate document %s: %w", data.VoucherID, err)
	}

	target := g.Path(data.VoucherID)
	if err := writeFileAtomic(target, payload, 0o644); err != nil {
		return "", fmt.Errorf("generate document %s: %w", data.VoucherID, err)
	}
	return target, nil
}

func (g *Generator) render(data VoucherData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A5).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Service Voucher "+data.VoucherID, true).
		WithAuthor(g.shop.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorRule, Thickness: 0.5}))
	m.AddRows(customerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorRule, Thickness: 0.3}))
	m.AddRows(itemHeaderRow())
	m.AddRows(itemRow(data))
	m.AddRows(problemRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorRule, Thickness: 0.3}))
	m.AddRows(signatureRow(data))
	m.AddRows(footerRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *Generator) headerRow(data VoucherData) core.Row {
	issued := data.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}

	return row.New(18).Add(
		col.New(7).Add(
			text.New(g.shop.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorInk, Top: 1,
			}),
			text.New(joinNonEmpty(g.shop.Address, g.shop.Phone), props.Text{
				Size: 8, Top: 9, Color: colorDim,
			}),
		),
		col.New(5).Add(
			text.New("SERVICE VOUCHER", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorInk, Top: 1,
			}),
			text.New("No. "+data.VoucherID, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Date: "+issued.Format("02-01-2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorDim,
			}),
		),
	)
}

func customerRow(data VoucherData) core.Row {
	return row.New(13).Add(
		col.New(12).Add(
			text.New("CUSTOMER", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorInk, Top: 1,
			}),
			text.New(data.CustomerName, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New("Contact: "+nonEmpty(data.ContactNo, "-"), props.Text{
				Size: 8, Top: 11, Color: colorDim,
			}),
		),
	)
}

func itemHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Qty", 2, align.Center),
		h("Particulars", 10, align.Left),
	)
}

func itemRow(data VoucherData) core.Row {
	qty := data.Quantity
	if qty < 1 {
		qty = 1
	}
	return row.New(10).Add(
		col.New(2).Add(text.New(
			fmt.Sprintf("%d", qty),
			props.Text{Size: 9, Align: align.Center, Top: 1},
		)),
		col.New(10).Add(text.New(
			nonEmpty(data.Particulars, "-"),
			props.Text{Size: 9, Align: align.Left, Top: 1, Left: 1},
		)),
	)
}

func problemRow(data VoucherData) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("REPORTED PROBLEM", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorInk, Top: 1,
			}),
			text.New(nonEmpty(data.Problem, "-"), props.Text{
				Size: 9, Top: 6,
			}),
		),
	)
}

func signatureRow(data VoucherData) core.Row {
	return row.New(22).Add(
		col.New(6).Add(
			text.New("Received by:", props.Text{Size: 8, Color: colorDim, Top: 2}),
			text.New(nonEmpty(data.ReceivedBy, ""), props.Text{Size: 9, Top: 8}),
			text.New("_______________________", props.Text{Size: 8, Top: 16}),
		),
		col.New(6).Add(
			text.New("Customer signature:", props.Text{Size: 8, Color: colorDim, Top: 2}),
			text.New("_______________________", props.Text{Size: 8, Top: 16}),
		),
	)
}

func footerRow() core.Row {
	return row.New(10).Add(col.New(12).Add(
		text.New(
			"Goods not collected within 30 days of completion may be disposed of. "+
				"Please present this voucher when collecting your item.",
			props.Text{Size: 6.5, Color: colorDim, Top: 3},
		),
	))
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func joinNonEmpty(address, phone string) string {
	switch {
	case address != "" && phone != "":
		return address + "   |   Tel: " + phone
	case address != "":
		return address
	case phone != "":
		return "Tel: " + phone
	default:
		return ""
	}
}
