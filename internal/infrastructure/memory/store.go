// Package memory implementa los repositorios de inventario en memoria.
// Cada transacción trabaja sobre una copia del estado y solo la publica si fn no devuelve error,
// así una operación fallida nunca deja efectos parciales. Las transacciones se serializan.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

type state struct {
	warehouses  map[string]entity.Warehouse
	products    map[string]entity.Product
	items       map[string]entity.Item
	movements   []entity.StockMovement
	bom         map[string]entity.BOMLine // productID|itemID
	notes       map[string]entity.ProductionNote
	materials   map[string][]entity.ManualMaterialLine // por nota
	lots        map[string]entity.ProductionLot
	outbound    map[string]entity.OutboundNote
	lines       map[string][]entity.OutboundLine // por nota de salida
	allocations map[string][]entity.Allocation   // por línea
	transfers   []entity.TransferRecord
}

func newState() *state {
	return &state{
		warehouses:  map[string]entity.Warehouse{},
		products:    map[string]entity.Product{},
		items:       map[string]entity.Item{},
		bom:         map[string]entity.BOMLine{},
		notes:       map[string]entity.ProductionNote{},
		materials:   map[string][]entity.ManualMaterialLine{},
		lots:        map[string]entity.ProductionLot{},
		outbound:    map[string]entity.OutboundNote{},
		lines:       map[string][]entity.OutboundLine{},
		allocations: map[string][]entity.Allocation{},
	}
}

func (s *state) clone() *state {
	cp := &state{
		warehouses:  cloneMap(s.warehouses),
		products:    cloneMap(s.products),
		items:       cloneMap(s.items),
		movements:   append([]entity.StockMovement(nil), s.movements...),
		bom:         cloneMap(s.bom),
		notes:       cloneMap(s.notes),
		materials:   make(map[string][]entity.ManualMaterialLine, len(s.materials)),
		lots:        cloneMap(s.lots),
		outbound:    cloneMap(s.outbound),
		lines:       make(map[string][]entity.OutboundLine, len(s.lines)),
		allocations: make(map[string][]entity.Allocation, len(s.allocations)),
		transfers:   append([]entity.TransferRecord(nil), s.transfers...),
	}
	for k, v := range s.materials {
		cp.materials[k] = append([]entity.ManualMaterialLine(nil), v...)
	}
	for k, v := range s.lines {
		cp.lines[k] = append([]entity.OutboundLine(nil), v...)
	}
	for k, v := range s.allocations {
		cp.allocations[k] = append([]entity.Allocation(nil), v...)
	}
	return cp
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) repos() repository.Repos {
	return repository.Repos{
		Items:      itemRepo{s},
		Movements:  movementRepo{s},
		BOM:        bomRepo{s},
		Notes:      noteRepo{s},
		Lots:       lotRepo{s},
		Outbound:   outboundRepo{s},
		Transfers:  transferRepo{s},
		Warehouses: warehouseRepo{s},
		Products:   productRepo{s},
	}
}

// Store almacén en memoria; implementa inventory.TxRunner.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn termina sin error.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(work.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// View ejecuta fn sobre una instantánea; lo que fn escriba se descarta.
func (s *Store) View(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.st.clone()
	s.mu.RUnlock()
	return fn(snapshot.repos())
}
