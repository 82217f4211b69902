package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

const kardexMaxRows = 1000

// KardexReportUseCase genera el kardex (historial de movimientos) de un insumo en PDF.
type KardexReportUseCase struct {
	tx        TxRunner
	generator KardexPDFGenerator
}

// NewKardexReportUseCase construye el caso de uso inyectando el generador PDF.
func NewKardexReportUseCase(tx TxRunner, generator KardexPDFGenerator) *KardexReportUseCase {
	return &KardexReportUseCase{tx: tx, generator: generator}
}

// DownloadKardexPDF carga saldos y movimientos del código en el rango y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil) si todo sale bien.
//   - domain.ErrNotFound        si el código no existe en ninguna bodega.
func (uc *KardexReportUseCase) DownloadKardexPDF(ctx context.Context, code string, from, to *time.Time) ([]byte, string, error) {
	data := KardexData{ItemCode: code, GeneratedAt: time.Now()}
	err := uc.tx.View(ctx, func(r repository.Repos) error {
		rows, err := r.Items.ListByCode(ctx, code)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return domain.NotFoundf("insumo %s", code)
		}
		data.ItemName, data.Unit = rows[0].Name, rows[0].Unit
		if data.Balances, err = r.Movements.BalancesByCode(ctx, code); err != nil {
			return err
		}
		data.Movements, err = r.Movements.List(ctx, repository.MovementFilter{
			ItemCode: code,
			From:     from,
			To:       to,
			Limit:    kardexMaxRows,
		})
		return err
	})
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.generator.GenerateKardexPDF(ctx, data)
	if err != nil {
		return nil, "", fmt.Errorf("kardex: generar pdf: %w", err)
	}
	return pdf, fmt.Sprintf("kardex-%s.pdf", code), nil
}
