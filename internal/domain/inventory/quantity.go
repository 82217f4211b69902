package inventory

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round3 redondea cantidades a 3 decimales (precisión de las columnas de stock).
func Round3(d decimal.Decimal) decimal.Decimal { return d.Round(3) }

// Round2 redondea valores monetarios a 2 decimales.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// RequiredQuantity cantidad de insumo para delta unidades de producto:
// delta * cantidadPorUnidad * (1 + merma/100). Conserva el signo de delta.
func RequiredQuantity(delta, perUnit, wastePct decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(wastePct.Div(hundred))
	return Round3(delta.Mul(perUnit).Mul(factor))
}
