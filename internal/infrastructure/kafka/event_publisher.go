package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
)

var _ inventory.EventPublisher = (*EventPublisher)(nil)

// EventPublisher publica los eventos de inventario en un tópico, con clave = ID de transacción.
type EventPublisher struct {
	writer *kafka.Writer
}

// NewEventPublisher crea el writer sobre los brokers y el tópico dados.
func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	return &EventPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}}
}

type movementMessage struct {
	ID               string          `json:"id"`
	ItemID           string          `json:"item_id"`
	ItemCode         string          `json:"item_code"`
	WarehouseID      string          `json:"warehouse_id"`
	Kind             string          `json:"kind"`
	Quantity         decimal.Decimal `json:"quantity"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	AffectsStock     bool            `json:"affects_stock"`
	ProductionNoteID string          `json:"production_note_id,omitempty"`
	SupersedesID     string          `json:"supersedes_id,omitempty"`
}

type allocationMessage struct {
	LineID   string          `json:"line_id"`
	LotID    string          `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type transferMessage struct {
	ProductID       string          `json:"product_id"`
	Size            string          `json:"size"`
	FromWarehouseID string          `json:"from_warehouse_id"`
	ToWarehouseID   string          `json:"to_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	SourceLotID     string          `json:"source_lot_id"`
	DestLotID       string          `json:"dest_lot_id"`
}

type eventMessage struct {
	Type          string              `json:"type"`
	TransactionID string              `json:"transaction_id"`
	ReferenceID   string              `json:"reference_id,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
	Movements     []movementMessage   `json:"movements,omitempty"`
	Allocations   []allocationMessage `json:"allocations,omitempty"`
	Transfers     []transferMessage   `json:"transfers,omitempty"`
}

func newEventMessage(ev inventory.Event) eventMessage {
	msg := eventMessage{
		Type:          ev.Type,
		TransactionID: ev.TransactionID,
		ReferenceID:   ev.ReferenceID,
		OccurredAt:    ev.OccurredAt,
	}
	for _, m := range ev.Movements {
		msg.Movements = append(msg.Movements, movementMessage{
			ID: m.ID, ItemID: m.ItemID, ItemCode: m.ItemCode, WarehouseID: m.WarehouseID,
			Kind: string(m.Kind), Quantity: m.Quantity, BalanceAfter: m.BalanceAfter,
			AffectsStock: m.AffectsStock, ProductionNoteID: m.ProductionNoteID, SupersedesID: m.SupersedesID,
		})
	}
	for _, a := range ev.Allocations {
		msg.Allocations = append(msg.Allocations, allocationMessage{LineID: a.LineID, LotID: a.LotID, Quantity: a.Quantity})
	}
	for _, t := range ev.Transfers {
		msg.Transfers = append(msg.Transfers, transferMessage{
			ProductID: t.ProductID, Size: t.Size, FromWarehouseID: t.FromWarehouseID, ToWarehouseID: t.ToWarehouseID,
			Quantity: t.Quantity, SourceLotID: t.SourceLotID, DestLotID: t.DestLotID,
		})
	}
	return msg
}

// Publish serializa el evento a JSON y lo escribe en el tópico.
func (p *EventPublisher) Publish(ctx context.Context, ev inventory.Event) error {
	payload, err := json.Marshal(newEventMessage(ev))
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.TransactionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write event %s: %w", ev.Type, err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
