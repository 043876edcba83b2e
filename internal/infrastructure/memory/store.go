// Package memory implementa los repositorios del dominio en memoria, con transacciones por
// copia de estado. Es el backend de pruebas y de STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// Store almacén en memoria. Run serializa las transacciones con un mutex global: fn trabaja
// sobre una copia del estado que solo se publica si fn termina sin error.
type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	stock       map[entity.StockKey]*entity.WarehouseStock
	lots        map[string]*entity.Lot
	movements   []*entity.Movement
	seq         int64
	adjustments map[string]*entity.Adjustment
	transfers   map[string]*entity.Transfer
	sessions    map[string]*entity.CashSession
	entries     map[string][]*entity.CashEntry
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{state: &state{
		stock:       map[entity.StockKey]*entity.WarehouseStock{},
		lots:        map[string]*entity.Lot{},
		adjustments: map[string]*entity.Adjustment{},
		transfers:   map[string]*entity.Transfer{},
		sessions:    map[string]*entity.CashSession{},
		entries:     map[string][]*entity.CashEntry{},
	}}
}

// Run ejecuta fn con repositorios sobre una copia del estado; commit si fn no falla y el
// contexto sigue vigente.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.state.clone()
	if err := fn(tx.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx
	return nil
}

func (st *state) repos() repository.Repos {
	return repository.Repos{
		Stock:        stockRepo{st},
		Lots:         lotRepo{st},
		Movements:    movementRepo{st},
		Adjustments:  adjustmentRepo{st},
		Transfers:    transferRepo{st},
		CashSessions: cashSessionRepo{st},
	}
}

// clone copia el estado. Los movimientos y registros de caja son inmutables una vez escritos,
// así que basta con copiar los slices.
func (st *state) clone() *state {
	c := &state{
		stock:       make(map[entity.StockKey]*entity.WarehouseStock, len(st.stock)),
		lots:        make(map[string]*entity.Lot, len(st.lots)),
		movements:   append([]*entity.Movement(nil), st.movements...),
		seq:         st.seq,
		adjustments: make(map[string]*entity.Adjustment, len(st.adjustments)),
		transfers:   make(map[string]*entity.Transfer, len(st.transfers)),
		sessions:    make(map[string]*entity.CashSession, len(st.sessions)),
		entries:     make(map[string][]*entity.CashEntry, len(st.entries)),
	}
	for k, v := range st.stock {
		c.stock[k] = copyStock(v)
	}
	for k, v := range st.lots {
		c.lots[k] = copyLot(v)
	}
	for k, v := range st.adjustments {
		c.adjustments[k] = v.Clone()
	}
	for k, v := range st.transfers {
		c.transfers[k] = v.Clone()
	}
	for k, v := range st.sessions {
		c.sessions[k] = v.Clone()
	}
	for k, v := range st.entries {
		c.entries[k] = append([]*entity.CashEntry(nil), v...)
	}
	return c
}

func copyStock(s *entity.WarehouseStock) *entity.WarehouseStock {
	c := *s
	if s.LastMovementAt != nil {
		t := *s.LastMovementAt
		c.LastMovementAt = &t
	}
	return &c
}

func copyLot(l *entity.Lot) *entity.Lot {
	c := *l
	return &c
}
