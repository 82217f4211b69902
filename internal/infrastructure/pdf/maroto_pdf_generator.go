// Package pdf genera el reporte de kardex de un insumo.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Código + Nombre      │  KARDEX + Fecha de emisión   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDOS: Bodega | Cantidad                                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | Bodega | Cant. | Saldo | Ref.         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR del código de insumo                             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var _ inventory.KardexPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa inventory.KardexPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateKardexPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateKardexPDF(_ context.Context, data inventory.KardexData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Kardex "+data.ItemCode, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(balanceRows(data.Balances)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(movementRows(data.Movements)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(data.ItemCode))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: código y nombre (izq), título y fecha (der).
func headerRow(data inventory.KardexData) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(data.ItemCode, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(data.ItemName, "—")+"  ("+nonEmpty(data.Unit, "und")+")", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("KARDEX DE INSUMO", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Emitido: "+data.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// balanceRows: saldo por bodega y total.
func balanceRows(balances []repository.WarehouseBalance) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(text.New("SALDOS POR BODEGA", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
		}))),
	}
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Quantity)
		rows = append(rows, row.New(5).Add(
			col.New(8).Add(text.New(b.WarehouseID, props.Text{Size: 8, Left: 2})),
			col.New(4).Add(text.New(formatQty(b.Quantity), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	rows = append(rows, row.New(6).Add(
		col.New(8).Add(text.New("TOTAL", props.Text{Style: fontstyle.Bold, Size: 9, Left: 2})),
		col.New(4).Add(text.New(formatQty(total), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Color: colorPrimary,
		})),
	))
	return rows
}

// tableHeaderRow: cabecera de la tabla de movimientos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 3, align.Left),
		h("Bodega", 2, align.Left),
		h("Cant.", 1, align.Right),
		h("Saldo", 2, align.Right),
		h("Ref.", 2, align.Left),
	)
}

// movementRows: una fila por movimiento; las salidas en rojo.
func movementRows(movements []*entity.StockMovement) []core.Row {
	result := make([]core.Row, 0, len(movements))
	for _, m := range movements {
		qty := formatQty(m.Quantity)
		qtyProps := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if m.Kind.IsOutbound() && m.AffectsStock {
			qty = "-" + qty
			qtyProps.Color = colorRed
		}
		result = append(result, row.New(6).Add(
			col.New(2).Add(text.New(m.Date.Format("02/01/2006"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(string(m.Kind), props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(2).Add(text.New(m.WarehouseID, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(1).Add(text.New(qty, qtyProps)),
			col.New(2).Add(text.New(formatQty(m.BalanceAfter), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(nonEmpty(m.Reference, m.ProductionNoteID), props.Text{Size: 7, Top: 1, Left: 1})),
		))
	}
	return result
}

// footerRow: QR con el código del insumo.
func footerRow(itemCode string) core.Row {
	return row.New(20).Add(
		col.New(3).Add(code.NewQr(itemCode, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(text.New("Saldo derivado del libro de movimientos.", props.Text{
			Size: 7, Top: 6, Left: 3, Color: colorGray,
		})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatQty cantidad con 3 decimales y puntos de miles. Ej: 12500.5 → "12.500,500"
func formatQty(d decimal.Decimal) string {
	s := d.Abs().StringFixed(3)
	intPart, frac := s[:len(s)-4], s[len(s)-3:]
	out := formatThousands(intPart) + "," + frac
	if d.IsNegative() {
		return "-" + out
	}
	return out
}

// formatThousands inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
