package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados sobre PostgreSQL. Los lotes despachados por línea van en JSONB.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, source_warehouse_id, dest_warehouse_id, status, notes, requested_by, approver,
	received_by, rejection_reason, requested_at, approved_at, shipped_at, received_at, rejected_at, version`

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	var status string
	err := row.Scan(&t.ID, &t.SourceWarehouseID, &t.DestWarehouseID, &status, &t.Notes, &t.RequestedBy, &t.Approver,
		&t.ReceivedBy, &t.RejectionReason, &t.RequestedAt, &t.ApprovedAt, &t.ShippedAt, &t.ReceivedAt, &t.RejectedAt,
		&t.Version)
	if err != nil {
		return nil, err
	}
	t.Status = entity.TransferStatus(status)
	return &t, nil
}

// Create inserta cabecera y líneas. Debe ejecutarse dentro de una transacción.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Version == 0 {
		t.Version = 1
	}
	query := `INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.SourceWarehouseID, t.DestWarehouseID, string(t.Status), t.Notes, t.RequestedBy, t.Approver,
		t.ReceivedBy, t.RejectionReason, t.RequestedAt, t.ApprovedAt, t.ShippedAt, t.ReceivedAt, t.RejectedAt,
		t.Version,
	)
	if err != nil {
		return writeErr(err, "crear traslado")
	}
	return r.insertItems(ctx, t)
}

func (r *TransferRepo) insertItems(ctx context.Context, t *entity.Transfer) error {
	query := `
		INSERT INTO transfer_items (transfer_id, position, item_id, item_kind, quantity_requested, quantity_shipped,
			quantity_received, unit_cost, notes, shipped_lots)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for i, it := range t.Items {
		lots := it.ShippedLots
		if lots == nil {
			lots = []entity.LotDepletion{}
		}
		_, err := r.q.Exec(ctx, query,
			t.ID, i, it.ItemID, string(it.ItemKind), it.QuantityRequested, it.QuantityShipped,
			it.QuantityReceived, it.UnitCost, it.Notes, lots,
		)
		if err != nil {
			return writeErr(err, "crear línea de traslado")
		}
	}
	return nil
}

// GetByID traslado con sus líneas.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "traslado", id, "get traslado")
	}
	if err := r.loadItems(ctx, []*entity.Transfer{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// Update reescribe cabecera y líneas si la versión almacenada es expectedVersion.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer, expectedVersion int) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE transfers SET
			status = $3, notes = $4, approver = $5, received_by = $6, rejection_reason = $7,
			approved_at = $8, shipped_at = $9, received_at = $10, rejected_at = $11,
			version = version + 1
		WHERE id = $1 AND version = $2`,
		t.ID, expectedVersion, string(t.Status), t.Notes, t.Approver, t.ReceivedBy, t.RejectionReason,
		t.ApprovedAt, t.ShippedAt, t.ReceivedAt, t.RejectedAt,
	)
	if err != nil {
		return fmt.Errorf("update traslado: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return versionMiss(ctx, r.q, "transfers", "traslado", t.ID, expectedVersion)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM transfer_items WHERE transfer_id = $1`, t.ID); err != nil {
		return fmt.Errorf("reemplazar líneas de traslado: %w", err)
	}
	if err := r.insertItems(ctx, t); err != nil {
		return err
	}
	t.Version = expectedVersion + 1
	return nil
}

// ListByWarehouse traslados donde la bodega es origen o destino, más recientes primero.
func (r *TransferRepo) ListByWarehouse(ctx context.Context, warehouseID string, status entity.TransferStatus) ([]*entity.Transfer, error) {
	rows, err := r.q.Query(ctx, `SELECT `+transferColumns+` FROM transfers
		WHERE (source_warehouse_id = $1 OR dest_warehouse_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY requested_at DESC`, warehouseID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list traslados: %w", err)
	}
	out := make([]*entity.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan traslado: %w", err)
		}
		out = append(out, t)
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

func (r *TransferRepo) loadItems(ctx context.Context, transfers []*entity.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Transfer, len(transfers))
	ids := make([]string, 0, len(transfers))
	for _, t := range transfers {
		t.Items = make([]entity.TransferItem, 0)
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT transfer_id, item_id, item_kind, quantity_requested, quantity_shipped, quantity_received,
			unit_cost, notes, shipped_lots
		FROM transfer_items WHERE transfer_id = ANY($1)
		ORDER BY transfer_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list líneas de traslado: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var transferID, kind string
		var it entity.TransferItem
		if err := rows.Scan(&transferID, &it.ItemID, &kind, &it.QuantityRequested, &it.QuantityShipped,
			&it.QuantityReceived, &it.UnitCost, &it.Notes, &it.ShippedLots); err != nil {
			return fmt.Errorf("scan línea de traslado: %w", err)
		}
		it.ItemKind = entity.ItemKind(kind)
		if len(it.ShippedLots) == 0 {
			it.ShippedLots = nil
		}
		if t := byID[transferID]; t != nil {
			t.Items = append(t.Items, it)
		}
	}
	return rows.Err()
}
