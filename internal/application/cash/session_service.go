package cash

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// Deps dependencias del servicio de caja.
type Deps struct {
	Tx               TxRunner
	Locker           Locker
	Events           EventPublisher  // opcional
	Metrics          Metrics         // opcional
	Reports          ReportGenerator // opcional; sin él no hay PDF de cuadre
	Logger           zerolog.Logger
	DefaultTolerance decimal.Decimal
	Now              func() time.Time // opcional
}

// SessionService ciclo de vida de las sesiones de caja: apertura, registros, cierre y revisión.
type SessionService struct {
	deps Deps
	log  zerolog.Logger
}

// NewSessionService construye el servicio.
func NewSessionService(deps Deps) *SessionService {
	if deps.Events == nil {
		deps.Events = noopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &SessionService{deps: deps, log: deps.Logger.With().Str("component", "cash").Logger()}
}

func (s *SessionService) now() time.Time { return s.deps.Now().UTC() }

// run bloquea las llaves, ejecuta fn en una transacción y publica los eventos tras el commit.
func (s *SessionService) run(ctx context.Context, op string, keys []string, fn func(r repository.Repos, now time.Time) ([]entity.Event, error)) error {
	started := time.Now()
	release, err := s.deps.Locker.Acquire(ctx, keys...)
	if err != nil {
		s.deps.Metrics.OperationDone(op, time.Since(started), err)
		return err
	}
	defer release()

	var events []entity.Event
	err = s.deps.Tx.Run(ctx, func(r repository.Repos) error {
		var err error
		events, err = fn(r, s.now())
		return err
	})
	s.deps.Metrics.OperationDone(op, time.Since(started), err)
	if err != nil {
		return err
	}
	s.deps.Events.Publish(ctx, events...)
	return nil
}

// mutate aplica fn a la sesión bajo su llave y persiste con control de versión.
func (s *SessionService) mutate(ctx context.Context, op, sessionID string, fn func(r repository.Repos, cs *entity.CashSession, now time.Time) ([]entity.Event, error)) (*entity.CashSession, error) {
	var out *entity.CashSession
	err := s.run(ctx, op, []string{sessionLockKey(sessionID)}, func(r repository.Repos, now time.Time) ([]entity.Event, error) {
		cs, err := r.CashSessions.GetByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		expected := cs.Version
		events, err := fn(r, cs, now)
		if err != nil {
			return nil, err
		}
		if err := r.CashSessions.Update(ctx, cs, expected); err != nil {
			return nil, err
		}
		out = cs
		return events, nil
	})
	return out, err
}

// OpenSessionInput apertura de caja. Tolerance nil toma la tolerancia por defecto.
type OpenSessionInput struct {
	Name                 string
	Responsible          string
	RegisterID           string
	Cashiers             []string
	OpeningFloatByMethod map[string]decimal.Decimal
	Tolerance            *decimal.Decimal
	OpenedBy             string
}

// Open abre una sesión. Con RegisterID no puede haber otra sesión OPEN en la misma caja.
func (s *SessionService) Open(ctx context.Context, in OpenSessionInput) (*entity.CashSession, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.Invalid("el nombre de la sesión es obligatorio")
	}
	if strings.TrimSpace(in.Responsible) == "" {
		return nil, domain.Invalid("el responsable es obligatorio")
	}
	for method, amount := range in.OpeningFloatByMethod {
		if amount.IsNegative() {
			return nil, domain.Invalid("base inicial negativa para %s", method)
		}
	}
	tolerance := s.deps.DefaultTolerance
	if in.Tolerance != nil {
		tolerance = *in.Tolerance
	}
	if tolerance.IsNegative() {
		return nil, domain.Invalid("tolerancia negativa")
	}

	var keys []string
	if in.RegisterID != "" {
		keys = []string{registerLockKey(in.RegisterID)}
	}
	var cs *entity.CashSession
	err := s.run(ctx, "cash_open", keys, func(r repository.Repos, now time.Time) ([]entity.Event, error) {
		if in.RegisterID != "" {
			_, err := r.CashSessions.GetOpenByRegister(ctx, in.RegisterID)
			if err == nil {
				return nil, domain.ErrSessionAlreadyOpen
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
		}
		cs = entity.NewCashSession(uuid.New().String(), in.Name, in.Responsible, in.RegisterID,
			entity.Amounts(in.OpeningFloatByMethod), tolerance, now)
		cs.OpenedBy = in.OpenedBy
		cs.Version = 1
		for _, c := range in.Cashiers {
			if c = strings.TrimSpace(c); c != "" && !cs.HasCashier(c) {
				cs.Cashiers = append(cs.Cashiers, c)
			}
		}
		return nil, r.CashSessions.Create(ctx, cs)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("session_id", cs.ID).Str("register_id", cs.RegisterID).Str("responsible", cs.Responsible).
		Str("opening_cash", cs.OpeningFloatByMethod.Get(entity.MethodCash).String()).Msg("sesión de caja abierta")
	return cs, nil
}

// AddCashier asigna un cajero a una sesión OPEN. Repetir el mismo cajero no tiene efecto.
func (s *SessionService) AddCashier(ctx context.Context, sessionID, cashier string) (*entity.CashSession, error) {
	cashier = strings.TrimSpace(cashier)
	if cashier == "" {
		return nil, domain.Invalid("cajero requerido")
	}
	return s.mutate(ctx, "cash_add_cashier", sessionID, func(_ repository.Repos, cs *entity.CashSession, _ time.Time) ([]entity.Event, error) {
		if !cs.IsOpen() {
			return nil, sessionNotOpen(cs)
		}
		if !cs.HasCashier(cashier) {
			cs.Cashiers = append(cs.Cashiers, cashier)
		}
		return nil, nil
	})
}

// SaleInput venta cobrada en la caja.
type SaleInput struct {
	SessionID   string
	Method      string
	Amount      decimal.Decimal
	ReferenceID string
	Actor       string
}

// PostSale suma una venta al acumulado de su forma de pago.
func (s *SessionService) PostSale(ctx context.Context, in SaleInput) (*entity.CashSession, error) {
	return s.post(ctx, &entity.CashEntry{
		SessionID: in.SessionID, Kind: entity.CashEntrySale,
		Method: entity.NormalizeMethod(in.Method), Amount: in.Amount,
		ReferenceID: in.ReferenceID, Actor: in.Actor,
	})
}

// ExpenseInput gasto de la sesión. Solo los pagados desde la caja afectan el efectivo esperado.
type ExpenseInput struct {
	SessionID    string
	Category     string
	Method       string
	Amount       decimal.Decimal
	PaidFromCash bool
	ReferenceID  string
	Actor        string
}

// PostExpense registra un gasto.
func (s *SessionService) PostExpense(ctx context.Context, in ExpenseInput) (*entity.CashSession, error) {
	return s.post(ctx, &entity.CashEntry{
		SessionID: in.SessionID, Kind: entity.CashEntryExpense,
		Method: entity.NormalizeMethod(in.Method), Category: entity.NormalizeCategory(in.Category),
		Amount: in.Amount, PaidFromCash: in.PaidFromCash,
		ReferenceID: in.ReferenceID, Actor: in.Actor,
	})
}

// IncomeInput ingreso manual (distinto de ventas).
type IncomeInput struct {
	SessionID   string
	Category    string
	Method      string
	Amount      decimal.Decimal
	ReferenceID string
	Actor       string
}

// PostIncome registra un ingreso manual.
func (s *SessionService) PostIncome(ctx context.Context, in IncomeInput) (*entity.CashSession, error) {
	return s.post(ctx, &entity.CashEntry{
		SessionID: in.SessionID, Kind: entity.CashEntryIncome,
		Method: entity.NormalizeMethod(in.Method), Category: entity.NormalizeCategory(in.Category),
		Amount: in.Amount, ReferenceID: in.ReferenceID, Actor: in.Actor,
	})
}

// post agrega el registro y actualiza los acumulados en la misma transacción.
func (s *SessionService) post(ctx context.Context, e *entity.CashEntry) (*entity.CashSession, error) {
	if e.SessionID == "" {
		return nil, domain.Invalid("session_id requerido")
	}
	if !e.Amount.IsPositive() {
		return nil, domain.Invalid("el monto debe ser mayor que cero")
	}
	op := "cash_post_" + strings.ToLower(string(e.Kind))
	cs, err := s.mutate(ctx, op, e.SessionID, func(r repository.Repos, cs *entity.CashSession, now time.Time) ([]entity.Event, error) {
		if !cs.IsOpen() {
			return nil, sessionNotOpen(cs)
		}
		e.ID = uuid.New().String()
		e.CreatedAt = now
		if err := r.CashSessions.AppendEntry(ctx, e); err != nil {
			return nil, err
		}
		cs.Apply(e)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("session_id", cs.ID).Str("kind", string(e.Kind)).Str("method", e.Method).
		Str("amount", e.Amount.String()).Msg("registro de caja")
	return cs, nil
}

// CloseInput cierre con el efectivo contado.
type CloseInput struct {
	SessionID    string
	DeclaredCash decimal.Decimal
	ClosedBy     string
	Notes        string
}

// Close pasa a PENDING_REVIEW calculando esperado, diferencia y cuadre.
func (s *SessionService) Close(ctx context.Context, in CloseInput) (*entity.CashSession, error) {
	if in.DeclaredCash.IsNegative() {
		return nil, domain.Invalid("el efectivo declarado no puede ser negativo")
	}
	cs, err := s.mutate(ctx, "cash_close", in.SessionID, func(_ repository.Repos, cs *entity.CashSession, now time.Time) ([]entity.Event, error) {
		if err := cs.Close(in.DeclaredCash, in.ClosedBy, now); err != nil {
			return nil, err
		}
		cs.Notes = in.Notes
		return []entity.Event{{
			Type: entity.EventCashSessionClosed, AggregateID: cs.ID, OccurredAt: now,
			Payload: map[string]any{
				"register_id":   cs.RegisterID,
				"expected_cash": cs.ExpectedCash,
				"declared_cash": in.DeclaredCash,
				"difference":    cs.Difference,
				"balanced":      cs.Balanced,
			},
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	s.deps.Metrics.CashSessionClosed(cs.Balanced, cs.Difference)
	ev := s.log.Info()
	if !cs.Balanced {
		ev = s.log.Warn()
	}
	ev.Str("session_id", cs.ID).Str("expected", cs.ExpectedCash.String()).Str("declared", in.DeclaredCash.String()).
		Str("difference", cs.Difference.String()).Bool("balanced", cs.Balanced).Msg("sesión de caja cerrada")
	return cs, nil
}

// Approve aprueba el cuadre.
func (s *SessionService) Approve(ctx context.Context, sessionID, supervisor string) (*entity.CashSession, error) {
	if supervisor == "" {
		return nil, domain.Invalid("supervisor requerido")
	}
	cs, err := s.mutate(ctx, "cash_approve", sessionID, func(_ repository.Repos, cs *entity.CashSession, now time.Time) ([]entity.Event, error) {
		if err := cs.Approve(supervisor, now); err != nil {
			return nil, err
		}
		return []entity.Event{reviewed(cs, now)}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("session_id", cs.ID).Str("supervisor", supervisor).Msg("cuadre de caja aprobado")
	return cs, nil
}

// Reject rechaza el cuadre; no reabre la sesión.
func (s *SessionService) Reject(ctx context.Context, sessionID, supervisor, reason string) (*entity.CashSession, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.Invalid("el motivo del rechazo es obligatorio")
	}
	cs, err := s.mutate(ctx, "cash_reject", sessionID, func(_ repository.Repos, cs *entity.CashSession, now time.Time) ([]entity.Event, error) {
		if err := cs.Reject(supervisor, reason, now); err != nil {
			return nil, err
		}
		return []entity.Event{reviewed(cs, now)}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("session_id", cs.ID).Str("reason", reason).Msg("cuadre de caja rechazado")
	return cs, nil
}

func reviewed(cs *entity.CashSession, now time.Time) entity.Event {
	return entity.Event{
		Type: entity.EventCashSessionReview, AggregateID: cs.ID, OccurredAt: now,
		Payload: map[string]any{
			"status":      cs.Status,
			"reviewed_by": cs.ReviewedBy,
			"reason":      cs.RejectionReason,
			"balanced":    cs.Balanced,
		},
	}
}

// Get obtiene una sesión.
func (s *SessionService) Get(ctx context.Context, id string) (*entity.CashSession, error) {
	var cs *entity.CashSession
	err := s.deps.Tx.Run(ctx, func(r repository.Repos) error {
		var err error
		cs, err = r.CashSessions.GetByID(ctx, id)
		return err
	})
	return cs, err
}

// ActiveByRegister sesión OPEN de una caja, o ErrNotFound.
func (s *SessionService) ActiveByRegister(ctx context.Context, registerID string) (*entity.CashSession, error) {
	var cs *entity.CashSession
	err := s.deps.Tx.Run(ctx, func(r repository.Repos) error {
		var err error
		cs, err = r.CashSessions.GetOpenByRegister(ctx, registerID)
		return err
	})
	return cs, err
}

// List sesiones, opcionalmente por estado, más recientes primero.
func (s *SessionService) List(ctx context.Context, status entity.CashSessionStatus, limit, offset int) ([]*entity.CashSession, error) {
	var list []*entity.CashSession
	err := s.deps.Tx.Run(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.CashSessions.List(ctx, status, limit, offset)
		return err
	})
	return list, err
}

// Entries registros de la sesión en orden de escritura.
func (s *SessionService) Entries(ctx context.Context, sessionID string) ([]*entity.CashEntry, error) {
	var list []*entity.CashEntry
	err := s.deps.Tx.Run(ctx, func(r repository.Repos) error {
		if _, err := r.CashSessions.GetByID(ctx, sessionID); err != nil {
			return err
		}
		var err error
		list, err = r.CashSessions.ListEntries(ctx, sessionID)
		return err
	})
	return list, err
}

// ClosingReport PDF del cuadre; solo existe para sesiones cerradas.
func (s *SessionService) ClosingReport(ctx context.Context, sessionID string) ([]byte, error) {
	if s.deps.Reports == nil {
		return nil, errors.New("generador de reportes no configurado")
	}
	cs, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cs.IsOpen() {
		return nil, domain.InvalidTransition("sesión de caja", string(cs.Status), "reporte de cierre")
	}
	entries, err := s.Entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pdf, err := s.deps.Reports.CashClosingReport(ctx, cs, entries)
	if err != nil {
		return nil, fmt.Errorf("generar reporte de cierre: %w", err)
	}
	return pdf, nil
}

func sessionNotOpen(cs *entity.CashSession) error {
	return fmt.Errorf("%w: sesión %s en estado %s", domain.ErrSessionNotOpen, cs.ID, cs.Status)
}
