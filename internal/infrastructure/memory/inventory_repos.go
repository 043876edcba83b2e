package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

var (
	_ repository.StockRepository    = stockRepo{}
	_ repository.LotRepository      = lotRepo{}
	_ repository.MovementRepository = movementRepo{}
)

type stockRepo struct{ st *state }

func (r stockRepo) Get(_ context.Context, key entity.StockKey) (*entity.WarehouseStock, error) {
	if s, ok := r.st.stock[key]; ok {
		return copyStock(s), nil
	}
	return &entity.WarehouseStock{
		WarehouseID:     key.WarehouseID,
		ItemID:          key.ItemID,
		QuantityOnHand:  decimal.Zero,
		MinThreshold:    decimal.Zero,
		MaxThreshold:    decimal.Zero,
		AverageUnitCost: decimal.Zero,
	}, nil
}

// GetForUpdate: la transacción ya es exclusiva.
func (r stockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.WarehouseStock, error) {
	return r.Get(ctx, key)
}

func (r stockRepo) Upsert(_ context.Context, s *entity.WarehouseStock) error {
	r.st.stock[s.Key()] = copyStock(s)
	return nil
}

func (r stockRepo) ListByWarehouse(_ context.Context, warehouseID string) ([]*entity.WarehouseStock, error) {
	out := make([]*entity.WarehouseStock, 0)
	for k, s := range r.st.stock {
		if k.WarehouseID == warehouseID {
			out = append(out, copyStock(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (r stockRepo) ListByItem(_ context.Context, itemID string) ([]*entity.WarehouseStock, error) {
	out := make([]*entity.WarehouseStock, 0)
	for k, s := range r.st.stock {
		if k.ItemID == itemID {
			out = append(out, copyStock(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

type lotRepo struct{ st *state }

func (r lotRepo) Create(_ context.Context, l *entity.Lot) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if _, ok := r.st.lots[l.ID]; ok {
		return domain.ErrConflict
	}
	for _, other := range r.st.lots {
		if other.Code == l.Code {
			return domain.ErrConflict
		}
	}
	r.st.lots[l.ID] = copyLot(l)
	return nil
}

func (r lotRepo) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	l, ok := r.st.lots[id]
	if !ok {
		return nil, domain.NotFound("lote", id)
	}
	return copyLot(l), nil
}

func (r lotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.GetByID(ctx, id)
}

func (r lotRepo) ListByKeyForUpdate(ctx context.Context, key entity.StockKey) ([]*entity.Lot, error) {
	return r.ListByKey(ctx, key)
}

func (r lotRepo) ListByKey(_ context.Context, key entity.StockKey) ([]*entity.Lot, error) {
	return r.filter(func(l *entity.Lot) bool { return l.Key() == key }), nil
}

func (r lotRepo) ListByWarehouse(_ context.Context, warehouseID string) ([]*entity.Lot, error) {
	return r.filter(func(l *entity.Lot) bool { return l.WarehouseID == warehouseID }), nil
}

func (r lotRepo) filter(keep func(*entity.Lot) bool) []*entity.Lot {
	out := make([]*entity.Lot, 0)
	for _, l := range r.st.lots {
		if keep(l) {
			out = append(out, copyLot(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.Before(out[j].ReceivedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func (r lotRepo) Update(_ context.Context, l *entity.Lot) error {
	if _, ok := r.st.lots[l.ID]; !ok {
		return domain.NotFound("lote", l.ID)
	}
	r.st.lots[l.ID] = copyLot(l)
	return nil
}

func (r lotRepo) CodeExists(_ context.Context, code string) (bool, error) {
	for _, l := range r.st.lots {
		if l.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r lotRepo) CountByCodePrefix(_ context.Context, prefix string) (int, error) {
	n := 0
	for _, l := range r.st.lots {
		if strings.HasPrefix(l.Code, prefix) {
			n++
		}
	}
	return n, nil
}

type movementRepo struct{ st *state }

func (r movementRepo) Create(_ context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	r.st.seq++
	m.Sequence = r.st.seq
	c := *m
	r.st.movements = append(r.st.movements, &c)
	return nil
}

func (r movementRepo) ListByKey(_ context.Context, key entity.StockKey, f repository.MovementFilter) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	skipped := 0
	for _, m := range r.st.movements {
		if m.Key() != key {
			continue
		}
		if f.From != nil && m.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && m.Timestamp.After(*f.To) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		c := *m
		out = append(out, &c)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r movementRepo) ListByReference(_ context.Context, referenceID string) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	for _, m := range r.st.movements {
		if m.ReferenceID == referenceID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}
