package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

var (
	_ repository.AdjustmentRepository  = adjustmentRepo{}
	_ repository.TransferRepository    = transferRepo{}
	_ repository.CashSessionRepository = cashSessionRepo{}
)

// staleVersion error de control optimista: otro escritor ya cambió el agregado.
func staleVersion(entityName, id string, expected, actual int) error {
	return fmt.Errorf("%w: %s %s cambió de versión (esperada %d, actual %d)",
		domain.ErrInvalidStateTransition, entityName, id, expected, actual)
}

type adjustmentRepo struct{ st *state }

func (r adjustmentRepo) Create(_ context.Context, a *entity.Adjustment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if _, ok := r.st.adjustments[a.ID]; ok {
		return fmt.Errorf("%w: ajuste %s ya existe", domain.ErrConflict, a.ID)
	}
	if a.Version == 0 {
		a.Version = 1
	}
	r.st.adjustments[a.ID] = a.Clone()
	return nil
}

func (r adjustmentRepo) GetByID(_ context.Context, id string) (*entity.Adjustment, error) {
	a, ok := r.st.adjustments[id]
	if !ok {
		return nil, domain.NotFound("ajuste", id)
	}
	return a.Clone(), nil
}

func (r adjustmentRepo) Update(_ context.Context, a *entity.Adjustment, expectedVersion int) error {
	cur, ok := r.st.adjustments[a.ID]
	if !ok {
		return domain.NotFound("ajuste", a.ID)
	}
	if cur.Version != expectedVersion {
		return staleVersion("ajuste", a.ID, expectedVersion, cur.Version)
	}
	a.Version = expectedVersion + 1
	r.st.adjustments[a.ID] = a.Clone()
	return nil
}

func (r adjustmentRepo) ListByWarehouse(_ context.Context, warehouseID string, status entity.AdjustmentStatus) ([]*entity.Adjustment, error) {
	out := make([]*entity.Adjustment, 0)
	for _, a := range r.st.adjustments {
		if a.WarehouseID == warehouseID && (status == "" || a.Status == status) {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type transferRepo struct{ st *state }

func (r transferRepo) Create(_ context.Context, t *entity.Transfer) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if _, ok := r.st.transfers[t.ID]; ok {
		return fmt.Errorf("%w: traslado %s ya existe", domain.ErrConflict, t.ID)
	}
	if t.Version == 0 {
		t.Version = 1
	}
	r.st.transfers[t.ID] = t.Clone()
	return nil
}

func (r transferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	t, ok := r.st.transfers[id]
	if !ok {
		return nil, domain.NotFound("traslado", id)
	}
	return t.Clone(), nil
}

func (r transferRepo) Update(_ context.Context, t *entity.Transfer, expectedVersion int) error {
	cur, ok := r.st.transfers[t.ID]
	if !ok {
		return domain.NotFound("traslado", t.ID)
	}
	if cur.Version != expectedVersion {
		return staleVersion("traslado", t.ID, expectedVersion, cur.Version)
	}
	t.Version = expectedVersion + 1
	r.st.transfers[t.ID] = t.Clone()
	return nil
}

func (r transferRepo) ListByWarehouse(_ context.Context, warehouseID string, status entity.TransferStatus) ([]*entity.Transfer, error) {
	out := make([]*entity.Transfer, 0)
	for _, t := range r.st.transfers {
		if t.SourceWarehouseID != warehouseID && t.DestWarehouseID != warehouseID {
			continue
		}
		if status == "" || t.Status == status {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

type cashSessionRepo struct{ st *state }

func (r cashSessionRepo) Create(_ context.Context, s *entity.CashSession) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Status == entity.CashSessionOpen && s.RegisterID != "" {
		for _, other := range r.st.sessions {
			if other.RegisterID == s.RegisterID && other.IsOpen() {
				return domain.ErrSessionAlreadyOpen
			}
		}
	}
	if s.Version == 0 {
		s.Version = 1
	}
	r.st.sessions[s.ID] = s.Clone()
	return nil
}

func (r cashSessionRepo) GetByID(_ context.Context, id string) (*entity.CashSession, error) {
	s, ok := r.st.sessions[id]
	if !ok {
		return nil, domain.NotFound("sesión de caja", id)
	}
	return s.Clone(), nil
}

func (r cashSessionRepo) GetOpenByRegister(_ context.Context, registerID string) (*entity.CashSession, error) {
	if registerID == "" {
		return nil, domain.NotFound("sesión abierta de la caja", registerID)
	}
	for _, s := range r.st.sessions {
		if s.RegisterID == registerID && s.IsOpen() {
			return s.Clone(), nil
		}
	}
	return nil, domain.NotFound("sesión abierta de la caja", registerID)
}

func (r cashSessionRepo) Update(_ context.Context, s *entity.CashSession, expectedVersion int) error {
	cur, ok := r.st.sessions[s.ID]
	if !ok {
		return domain.NotFound("sesión de caja", s.ID)
	}
	if cur.Version != expectedVersion {
		return staleVersion("sesión de caja", s.ID, expectedVersion, cur.Version)
	}
	s.Version = expectedVersion + 1
	r.st.sessions[s.ID] = s.Clone()
	return nil
}

func (r cashSessionRepo) List(_ context.Context, status entity.CashSessionStatus, limit, offset int) ([]*entity.CashSession, error) {
	all := make([]*entity.CashSession, 0)
	for _, s := range r.st.sessions {
		if status == "" || s.Status == status {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OpenedAt.After(all[j].OpenedAt) })
	if offset >= len(all) {
		return []*entity.CashSession{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]*entity.CashSession, len(all))
	for i, s := range all {
		out[i] = s.Clone()
	}
	return out, nil
}

func (r cashSessionRepo) AppendEntry(_ context.Context, e *entity.CashEntry) error {
	if _, ok := r.st.sessions[e.SessionID]; !ok {
		return domain.NotFound("sesión de caja", e.SessionID)
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	c := *e
	r.st.entries[e.SessionID] = append(r.st.entries[e.SessionID], &c)
	return nil
}

func (r cashSessionRepo) ListEntries(_ context.Context, sessionID string) ([]*entity.CashEntry, error) {
	src := r.st.entries[sessionID]
	out := make([]*entity.CashEntry, len(src))
	for i, e := range src {
		c := *e
		out[i] = &c
	}
	return out, nil
}
