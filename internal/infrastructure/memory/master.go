package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

type warehouseRepo struct{ s *state }

func (r warehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	for _, existing := range r.s.warehouses {
		if existing.ID == w.ID || existing.Code == w.Code {
			return fmt.Errorf("%w: bodega %s", domain.ErrDuplicate, w.Code)
		}
	}
	r.s.warehouses[w.ID] = *w
	return nil
}

func (r warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r warehouseRepo) List(_ context.Context, limit, offset int) ([]*entity.Warehouse, error) {
	out := make([]*entity.Warehouse, 0, len(r.s.warehouses))
	for _, w := range r.s.warehouses {
		cp := w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, limit, offset), nil
}

type productRepo struct{ s *state }

func (r productRepo) Create(_ context.Context, p *entity.Product) error {
	for _, existing := range r.s.products {
		if existing.ID == p.ID || existing.Code == p.Code {
			return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, p.Code)
		}
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r productRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		cp := p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, limit, offset), nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

// Warehouses repositorio de bodegas fuera de transacción (cada llamada es atómica).
func (s *Store) Warehouses() repository.WarehouseRepository { return storeWarehouses{s} }

// Products repositorio de productos fuera de transacción (cada llamada es atómica).
func (s *Store) Products() repository.ProductRepository { return storeProducts{s} }

type storeWarehouses struct{ st *Store }

func (a storeWarehouses) Create(ctx context.Context, w *entity.Warehouse) error {
	return a.st.Run(ctx, func(r repository.Repos) error { return r.Warehouses.Create(ctx, w) })
}

func (a storeWarehouses) GetByID(ctx context.Context, id string) (w *entity.Warehouse, err error) {
	err = a.st.View(ctx, func(r repository.Repos) error {
		w, err = r.Warehouses.GetByID(ctx, id)
		return err
	})
	return w, err
}

func (a storeWarehouses) List(ctx context.Context, limit, offset int) (list []*entity.Warehouse, err error) {
	err = a.st.View(ctx, func(r repository.Repos) error {
		list, err = r.Warehouses.List(ctx, limit, offset)
		return err
	})
	return list, err
}

type storeProducts struct{ st *Store }

func (a storeProducts) Create(ctx context.Context, p *entity.Product) error {
	return a.st.Run(ctx, func(r repository.Repos) error { return r.Products.Create(ctx, p) })
}

func (a storeProducts) GetByID(ctx context.Context, id string) (p *entity.Product, err error) {
	err = a.st.View(ctx, func(r repository.Repos) error {
		p, err = r.Products.GetByID(ctx, id)
		return err
	})
	return p, err
}

func (a storeProducts) List(ctx context.Context, limit, offset int) (list []*entity.Product, err error) {
	err = a.st.View(ctx, func(r repository.Repos) error {
		list, err = r.Products.List(ctx, limit, offset)
		return err
	})
	return list, err
}
