package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo ajustes y sus líneas sobre PostgreSQL.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

const adjustmentColumns = `id, warehouse_id, kind, status, reason, justification, requires_approval,
	requested_by, approved_by, rejection_reason, created_at, approved_at, rejected_at, version`

func scanAdjustment(row pgx.Row) (*entity.Adjustment, error) {
	var a entity.Adjustment
	var kind, status string
	err := row.Scan(&a.ID, &a.WarehouseID, &kind, &status, &a.Reason, &a.Justification, &a.RequiresApproval,
		&a.RequestedBy, &a.ApprovedBy, &a.RejectionReason, &a.CreatedAt, &a.ApprovedAt, &a.RejectedAt, &a.Version)
	if err != nil {
		return nil, err
	}
	a.Kind = entity.AdjustmentKind(kind)
	a.Status = entity.AdjustmentStatus(status)
	return &a, nil
}

// Create inserta cabecera y líneas. Debe ejecutarse dentro de una transacción.
func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.Adjustment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	query := `INSERT INTO adjustments (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.WarehouseID, string(a.Kind), string(a.Status), a.Reason, a.Justification, a.RequiresApproval,
		a.RequestedBy, a.ApprovedBy, a.RejectionReason, a.CreatedAt, a.ApprovedAt, a.RejectedAt, a.Version,
	)
	if err != nil {
		return writeErr(err, "crear ajuste")
	}
	return r.insertItems(ctx, a)
}

func (r *AdjustmentRepo) insertItems(ctx context.Context, a *entity.Adjustment) error {
	query := `
		INSERT INTO adjustment_items (adjustment_id, position, item_id, item_kind, quantity_before, quantity_delta,
			quantity_after, lot_id, unit_cost, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for i, it := range a.Items {
		_, err := r.q.Exec(ctx, query,
			a.ID, i, it.ItemID, string(it.ItemKind), it.QuantityBefore, it.QuantityDelta,
			it.QuantityAfter, it.LotID, it.UnitCost, it.Notes,
		)
		if err != nil {
			return writeErr(err, "crear línea de ajuste")
		}
	}
	return nil
}

// GetByID ajuste con sus líneas.
func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	a, err := scanAdjustment(r.q.QueryRow(ctx, `SELECT `+adjustmentColumns+` FROM adjustments WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "ajuste", id, "get ajuste")
	}
	if err := r.loadItems(ctx, []*entity.Adjustment{a}); err != nil {
		return nil, err
	}
	return a, nil
}

// Update reescribe cabecera y líneas si la versión almacenada es expectedVersion.
func (r *AdjustmentRepo) Update(ctx context.Context, a *entity.Adjustment, expectedVersion int) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE adjustments SET
			status = $3, reason = $4, justification = $5, requires_approval = $6,
			approved_by = $7, rejection_reason = $8, approved_at = $9, rejected_at = $10,
			version = version + 1
		WHERE id = $1 AND version = $2`,
		a.ID, expectedVersion, string(a.Status), a.Reason, a.Justification, a.RequiresApproval,
		a.ApprovedBy, a.RejectionReason, a.ApprovedAt, a.RejectedAt,
	)
	if err != nil {
		return fmt.Errorf("update ajuste: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return versionMiss(ctx, r.q, "adjustments", "ajuste", a.ID, expectedVersion)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM adjustment_items WHERE adjustment_id = $1`, a.ID); err != nil {
		return fmt.Errorf("reemplazar líneas de ajuste: %w", err)
	}
	if err := r.insertItems(ctx, a); err != nil {
		return err
	}
	a.Version = expectedVersion + 1
	return nil
}

// ListByWarehouse ajustes de la bodega, más recientes primero.
func (r *AdjustmentRepo) ListByWarehouse(ctx context.Context, warehouseID string, status entity.AdjustmentStatus) ([]*entity.Adjustment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+adjustmentColumns+` FROM adjustments
		WHERE warehouse_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`, warehouseID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list ajustes: %w", err)
	}
	out := make([]*entity.Adjustment, 0)
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ajuste: %w", err)
		}
		out = append(out, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadItems carga las líneas de varios ajustes en una sola consulta.
func (r *AdjustmentRepo) loadItems(ctx context.Context, adjustments []*entity.Adjustment) error {
	if len(adjustments) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Adjustment, len(adjustments))
	ids := make([]string, 0, len(adjustments))
	for _, a := range adjustments {
		a.Items = make([]entity.AdjustmentItem, 0)
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT adjustment_id, item_id, item_kind, quantity_before, quantity_delta, quantity_after, lot_id, unit_cost, notes
		FROM adjustment_items WHERE adjustment_id = ANY($1)
		ORDER BY adjustment_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list líneas de ajuste: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var adjID, kind string
		var it entity.AdjustmentItem
		if err := rows.Scan(&adjID, &it.ItemID, &kind, &it.QuantityBefore, &it.QuantityDelta, &it.QuantityAfter,
			&it.LotID, &it.UnitCost, &it.Notes); err != nil {
			return fmt.Errorf("scan línea de ajuste: %w", err)
		}
		it.ItemKind = entity.ItemKind(kind)
		if a := byID[adjID]; a != nil {
			a.Items = append(a.Items, it)
		}
	}
	return rows.Err()
}
