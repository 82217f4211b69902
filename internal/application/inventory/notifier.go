package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ensamble/pkg/logger"
)

// Notifier aplica los efectos posteriores al commit: invalida la caché y publica el evento.
// Los errores se registran y no se devuelven: la operación ya quedó confirmada.
type Notifier struct {
	publisher EventPublisher
	cache     StockCache
	log       *logger.Logger
}

// NewNotifier construye el notificador. publisher, cache y log pueden ser nil.
func NewNotifier(publisher EventPublisher, cache StockCache, log *logger.Logger) *Notifier {
	return &Notifier{publisher: publisher, cache: cache, log: log}
}

// Committed procesa el evento de una operación confirmada. Es seguro sobre un Notifier nil.
func (n *Notifier) Committed(ctx context.Context, ev Event) {
	if n == nil {
		return
	}
	if n.cache != nil && (len(ev.ItemCodes) > 0 || len(ev.ProductIDs) > 0) {
		if err := n.cache.Invalidate(ctx, ev.ItemCodes, ev.ProductIDs); err != nil && n.log != nil {
			n.log.Warn().Err(err).Str("tx", ev.TransactionID).Msg("invalidar caché de stock")
		}
	}
	if n.publisher != nil {
		if err := n.publisher.Publish(ctx, ev); err != nil && n.log != nil {
			n.log.Warn().Err(err).Str("event", ev.Type).Str("tx", ev.TransactionID).Msg("publicar evento")
		}
	}
	if n.log != nil {
		n.log.Info().
			Str("event", ev.Type).
			Str("tx", ev.TransactionID).
			Str("ref", ev.ReferenceID).
			Int("movements", len(ev.Movements)).
			Int("allocations", len(ev.Allocations)).
			Int("transfers", len(ev.Transfers)).
			Msg("operación de inventario confirmada")
	}
}
