package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

var _ repository.CashSessionRepository = (*CashSessionRepo)(nil)

// CashSessionRepo sesiones de caja y sus registros sobre PostgreSQL.
// Los acumulados por forma de pago y categoría se guardan como JSONB.
type CashSessionRepo struct {
	q Querier
}

// NewCashSessionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCashSessionRepository(q Querier) *CashSessionRepo {
	return &CashSessionRepo{q: q}
}

const openRegisterConstraint = "uq_cash_sessions_open_register"

const cashSessionColumns = `id, name, responsible, register_id, cashiers, status,
	opening_float_by_method, sales_by_method, expenses_by_type, expenses_by_method,
	cash_paid_expenses_by_method, manual_income_by_type, manual_income_by_method,
	tolerance, declared_cash, expected_cash, difference, balanced,
	notes, opened_by, closed_by, reviewed_by, rejection_reason, opened_at, closed_at, reviewed_at, version`

func scanCashSession(row pgx.Row) (*entity.CashSession, error) {
	var s entity.CashSession
	var status string
	err := row.Scan(&s.ID, &s.Name, &s.Responsible, &s.RegisterID, &s.Cashiers, &status,
		&s.OpeningFloatByMethod, &s.SalesByMethod, &s.ExpensesByType, &s.ExpensesByMethod,
		&s.CashPaidExpensesByMethod, &s.ManualIncomeByType, &s.ManualIncomeByMethod,
		&s.Tolerance, &s.DeclaredCash, &s.ExpectedCash, &s.Difference, &s.Balanced,
		&s.Notes, &s.OpenedBy, &s.ClosedBy, &s.ReviewedBy, &s.RejectionReason, &s.OpenedAt, &s.ClosedAt, &s.ReviewedAt,
		&s.Version)
	if err != nil {
		return nil, err
	}
	s.Status = entity.CashSessionStatus(status)
	return &s, nil
}

func orEmpty(a entity.Amounts) entity.Amounts {
	if a == nil {
		return entity.Amounts{}
	}
	return a
}

// Create inserta la sesión. Una segunda sesión OPEN en la misma caja es domain.ErrSessionAlreadyOpen.
func (r *CashSessionRepo) Create(ctx context.Context, s *entity.CashSession) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	cashiers := s.Cashiers
	if cashiers == nil {
		cashiers = []string{}
	}
	query := `INSERT INTO cash_sessions (` + cashSessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Name, s.Responsible, s.RegisterID, cashiers, string(s.Status),
		orEmpty(s.OpeningFloatByMethod), orEmpty(s.SalesByMethod), orEmpty(s.ExpensesByType), orEmpty(s.ExpensesByMethod),
		orEmpty(s.CashPaidExpensesByMethod), orEmpty(s.ManualIncomeByType), orEmpty(s.ManualIncomeByMethod),
		s.Tolerance, s.DeclaredCash, s.ExpectedCash, s.Difference, s.Balanced,
		s.Notes, s.OpenedBy, s.ClosedBy, s.ReviewedBy, s.RejectionReason, s.OpenedAt, s.ClosedAt, s.ReviewedAt,
		s.Version,
	)
	if err != nil {
		if isUniqueViolation(err) && constraintName(err) == openRegisterConstraint {
			return domain.ErrSessionAlreadyOpen
		}
		return writeErr(err, "crear sesión de caja")
	}
	return nil
}

// GetByID sesión por id.
func (r *CashSessionRepo) GetByID(ctx context.Context, id string) (*entity.CashSession, error) {
	s, err := scanCashSession(r.q.QueryRow(ctx, `SELECT `+cashSessionColumns+` FROM cash_sessions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "sesión de caja", id, "get sesión de caja")
	}
	return s, nil
}

// GetOpenByRegister sesión OPEN de la caja.
func (r *CashSessionRepo) GetOpenByRegister(ctx context.Context, registerID string) (*entity.CashSession, error) {
	if registerID == "" {
		return nil, domain.NotFound("sesión abierta de la caja", registerID)
	}
	s, err := scanCashSession(r.q.QueryRow(ctx, `SELECT `+cashSessionColumns+` FROM cash_sessions
		WHERE register_id = $1 AND status = $2`, registerID, string(entity.CashSessionOpen)))
	if err != nil {
		return nil, notFound(err, "sesión abierta de la caja", registerID, "get sesión abierta")
	}
	return s, nil
}

// Update persiste acumulados y estado con control optimista por versión.
func (r *CashSessionRepo) Update(ctx context.Context, s *entity.CashSession, expectedVersion int) error {
	cashiers := s.Cashiers
	if cashiers == nil {
		cashiers = []string{}
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE cash_sessions SET
			name = $3, responsible = $4, cashiers = $5, status = $6,
			opening_float_by_method = $7, sales_by_method = $8, expenses_by_type = $9, expenses_by_method = $10,
			cash_paid_expenses_by_method = $11, manual_income_by_type = $12, manual_income_by_method = $13,
			tolerance = $14, declared_cash = $15, expected_cash = $16, difference = $17, balanced = $18,
			notes = $19, closed_by = $20, reviewed_by = $21, rejection_reason = $22, closed_at = $23, reviewed_at = $24,
			version = version + 1
		WHERE id = $1 AND version = $2`,
		s.ID, expectedVersion, s.Name, s.Responsible, cashiers, string(s.Status),
		orEmpty(s.OpeningFloatByMethod), orEmpty(s.SalesByMethod), orEmpty(s.ExpensesByType), orEmpty(s.ExpensesByMethod),
		orEmpty(s.CashPaidExpensesByMethod), orEmpty(s.ManualIncomeByType), orEmpty(s.ManualIncomeByMethod),
		s.Tolerance, s.DeclaredCash, s.ExpectedCash, s.Difference, s.Balanced,
		s.Notes, s.ClosedBy, s.ReviewedBy, s.RejectionReason, s.ClosedAt, s.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("update sesión de caja: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return versionMiss(ctx, r.q, "cash_sessions", "sesión de caja", s.ID, expectedVersion)
	}
	s.Version = expectedVersion + 1
	return nil
}

// List sesiones más recientes primero; limit 0 es sin límite.
func (r *CashSessionRepo) List(ctx context.Context, status entity.CashSessionStatus, limit, offset int) ([]*entity.CashSession, error) {
	rows, err := r.q.Query(ctx, `SELECT `+cashSessionColumns+` FROM cash_sessions
		WHERE ($1 = '' OR status = $1)
		ORDER BY opened_at DESC
		LIMIT NULLIF($2, 0) OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sesiones de caja: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.CashSession, 0)
	for rows.Next() {
		s, err := scanCashSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sesión de caja: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AppendEntry agrega un registro a la sesión; una sesión inexistente es domain.ErrNotFound.
func (r *CashSessionRepo) AppendEntry(ctx context.Context, e *entity.CashEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO cash_entries (id, session_id, kind, method, category, amount, paid_from_cash, reference_id, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.SessionID, string(e.Kind), e.Method, e.Category, e.Amount, e.PaidFromCash, e.ReferenceID, e.Actor, e.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return domain.NotFound("sesión de caja", e.SessionID)
		}
		return writeErr(err, "crear registro de caja")
	}
	return nil
}

// ListEntries registros de la sesión en orden de captura.
func (r *CashSessionRepo) ListEntries(ctx context.Context, sessionID string) ([]*entity.CashEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, session_id, kind, method, category, amount, paid_from_cash, reference_id, actor, created_at
		FROM cash_entries WHERE session_id = $1 ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list registros de caja: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.CashEntry, 0)
	for rows.Next() {
		var e entity.CashEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &e.Method, &e.Category, &e.Amount, &e.PaidFromCash,
			&e.ReferenceID, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registro de caja: %w", err)
		}
		e.Kind = entity.CashEntryKind(kind)
		out = append(out, &e)
	}
	return out, rows.Err()
}
