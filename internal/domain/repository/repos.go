package repository

// Repos agrupa los repositorios atados a una misma unidad de trabajo (transacción).
type Repos struct {
	Stock        StockRepository
	Lots         LotRepository
	Movements    MovementRepository
	Adjustments  AdjustmentRepository
	Transfers    TransferRepository
	CashSessions CashSessionRepository
}
