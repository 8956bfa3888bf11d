package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hairline-erp/hairline/internal/platform/db"
	"github.com/hairline-erp/hairline/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Stock(ctx context.Context, warehouseID, productID int64) (decimal.Decimal, error)
	LowStock(ctx context.Context, threshold decimal.Decimal) ([]StockLevel, error)
	StockCard(ctx context.Context, filter StockCardFilter) ([]StockCardEntry, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Recorder receives ledger metrics.
type Recorder interface {
	StockMovement(movementType string)
	CacheLookup(cache string, hit bool)
}

// Labeler names products and warehouses in staff-facing errors.
type Labeler interface {
	ProductLabel(ctx context.Context, id int64) (name, unit string)
	WarehouseLabel(ctx context.Context, id int64) string
}

// Service coordinates inventory operations. Stock is never stored; it is always
// the sum of movements for a (warehouse, product) pair.
type Service struct {
	repo    RepositoryPort
	cache   *Cache
	audit   AuditPort
	metrics Recorder
	labels  Labeler
	logger  *slog.Logger
}

// ServiceConfig groups optional collaborators.
type ServiceConfig struct {
	Cache   *Cache
	Audit   AuditPort
	Metrics Recorder
	Labels  Labeler
	Logger  *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cfg.Cache, audit: cfg.Audit, metrics: cfg.Metrics, labels: cfg.Labels, logger: logger}
}

// Post appends one movement in its own transaction.
func (s *Service) Post(ctx context.Context, input MovementInput) (Movement, error) {
	var posted Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		posted, err = s.PostTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.afterWrite(ctx, "inventory:post", posted.ReferenceID, posted)
	return posted, nil
}

// PostTx appends one movement through a transaction owned by the caller. Issues
// and outgoing transfers lock the stock key and may fail with ErrInsufficientStock.
// Callers must call Invalidate after their transaction commits.
func (s *Service) PostTx(ctx context.Context, tx TxRepository, input MovementInput) (Movement, error) {
	if err := validateMovement(input); err != nil {
		return Movement{}, err
	}
	if input.Type.guarded() {
		if err := tx.LockStock(ctx, input.WarehouseID, input.ProductID); err != nil {
			return Movement{}, missingReference(err, input, "inventory: lock stock")
		}
		stock, err := tx.Stock(ctx, input.WarehouseID, input.ProductID)
		if err != nil {
			return Movement{}, fmt.Errorf("inventory: derive stock: %w", err)
		}
		if after := stock.Add(input.Quantity); after.IsNegative() {
			return Movement{}, s.shortfall(ctx, input.WarehouseID, input.ProductID, after.Neg())
		}
	}
	caller, _ := shared.CallerFromContext(ctx)
	posted, err := tx.InsertMovement(ctx, Movement{
		WarehouseID: input.WarehouseID,
		ProductID:   input.ProductID,
		Quantity:    input.Quantity,
		Type:        input.Type,
		ReferenceID: input.ReferenceID,
		Reason:      input.Reason,
		CreatedBy:   caller.StaffID,
	})
	if err != nil {
		return Movement{}, missingReference(err, input, "inventory: insert movement")
	}
	if s.metrics != nil {
		s.metrics.StockMovement(string(posted.Type))
	}
	return posted, nil
}

// Invalidate drops cached stock reports after a committed ledger write.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("inventory cache bump failed", slog.Any("error", err))
	}
}

// CurrentStock derives stock for a pair.
func (s *Service) CurrentStock(ctx context.Context, warehouseID, productID int64) (decimal.Decimal, error) {
	if warehouseID <= 0 || productID <= 0 {
		return decimal.Zero, shared.Validation("Warehouse and product are required.")
	}
	return s.repo.Stock(ctx, warehouseID, productID)
}

// Transfer moves stock between warehouses as transfer_out and transfer_in legs
// sharing one reference id. Nothing is written when the source is short.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if err := shared.Validate(input); err != nil {
		return TransferResult{}, err
	}
	if !shared.QuantityFits(input.Quantity) {
		return TransferResult{}, shared.ValidationFields(map[string]string{"quantity": shared.QuantityScaleMessage})
	}
	result := TransferResult{ReferenceID: uuid.NewString()}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		result.Out, err = s.PostTx(ctx, tx, MovementInput{
			WarehouseID: input.FromWarehouseID,
			ProductID:   input.ProductID,
			Quantity:    input.Quantity.Neg(),
			Type:        MovementTransferOut,
			ReferenceID: result.ReferenceID,
			Reason:      input.Reason,
		})
		if err != nil {
			return err
		}
		result.In, err = s.PostTx(ctx, tx, MovementInput{
			WarehouseID: input.ToWarehouseID,
			ProductID:   input.ProductID,
			Quantity:    input.Quantity,
			Type:        MovementTransferIn,
			ReferenceID: result.ReferenceID,
			Reason:      input.Reason,
		})
		return err
	})
	if err != nil {
		return TransferResult{}, err
	}
	s.afterWrite(ctx, "inventory:transfer", result.ReferenceID, result.Out)
	return result, nil
}

// Adjust posts a stock count correction. Positive quantities become
// adjustment_in, negative ones adjustment_out. There is no stock precondition.
func (s *Service) Adjust(ctx context.Context, input AdjustmentInput) (Movement, error) {
	if err := shared.Validate(input); err != nil {
		return Movement{}, err
	}
	if input.Quantity.IsZero() {
		return Movement{}, shared.ValidationFields(map[string]string{"quantity": "must not be zero"})
	}
	if !shared.QuantityFits(input.Quantity) {
		return Movement{}, shared.ValidationFields(map[string]string{"quantity": shared.QuantityScaleMessage})
	}
	kind := MovementAdjustmentIn
	if input.Quantity.IsNegative() {
		kind = MovementAdjustmentOut
	}
	return s.Post(ctx, MovementInput{
		WarehouseID: input.WarehouseID,
		ProductID:   input.ProductID,
		Quantity:    input.Quantity,
		Type:        kind,
		ReferenceID: "adjustment:" + uuid.NewString(),
		Reason:      input.Reason,
	})
}

// LowStock lists pairs at or below threshold. Results are cached per threshold
// until the next ledger write.
func (s *Service) LowStock(ctx context.Context, threshold decimal.Decimal) ([]StockLevel, error) {
	if threshold.IsNegative() {
		return nil, shared.ValidationFields(map[string]string{"threshold": "must be at least 0"})
	}
	key, err := s.cache.BuildKey(ctx, keyLowStock(threshold.String()))
	if err != nil {
		s.logger.Warn("inventory cache unavailable", slog.Any("error", err))
		return s.repo.LowStock(ctx, threshold)
	}
	var levels []StockLevel
	hit, err := s.cache.FetchJSON(ctx, key, &levels, func(ctx context.Context) (any, error) {
		return s.repo.LowStock(ctx, threshold)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.CacheLookup("low_stock", hit)
	}
	return levels, nil
}

// StockCard lists movement history of a pair with running balances.
func (s *Service) StockCard(ctx context.Context, filter StockCardFilter) ([]StockCardEntry, error) {
	if filter.WarehouseID <= 0 || filter.ProductID <= 0 {
		return nil, shared.Validation("Warehouse and product are required.")
	}
	return s.repo.StockCard(ctx, filter)
}

func (s *Service) afterWrite(ctx context.Context, action, reference string, m Movement) {
	s.Invalidate(ctx)
	if s.audit == nil {
		return
	}
	if reference == "" {
		reference = fmt.Sprintf("movement:%d", m.ID)
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  m.CreatedBy,
		Action:   action,
		Entity:   "inventory_movement",
		EntityID: reference,
		Meta: map[string]any{
			"warehouse_id":  m.WarehouseID,
			"product_id":    m.ProductID,
			"quantity":      m.Quantity.String(),
			"movement_type": m.Type,
		},
	})
	if err != nil {
		s.logger.Warn("inventory audit failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) shortfall(ctx context.Context, warehouseID, productID int64, missing decimal.Decimal) error {
	product, unit := fmt.Sprintf("product #%d", productID), ""
	warehouse := fmt.Sprintf("warehouse #%d", warehouseID)
	if s.labels != nil {
		product, unit = s.labels.ProductLabel(ctx, productID)
		warehouse = s.labels.WarehouseLabel(ctx, warehouseID)
	}
	return shared.InsufficientStock(product, warehouse, shared.Qty(missing), unit)
}

// missingReference turns a foreign-key violation on the ledger tables into NotFound
// for the absent warehouse or product. Other errors are wrapped with op.
func missingReference(err error, input MovementInput, op string) error {
	constraint, ok := db.ForeignKeyViolation(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	if strings.Contains(constraint, "warehouse") {
		return shared.NotFound("Warehouse", input.WarehouseID)
	}
	return shared.NotFound("Product", input.ProductID)
}

func validateMovement(input MovementInput) error {
	if err := shared.Validate(input); err != nil {
		return err
	}
	if !input.Type.Valid() {
		return shared.ValidationFields(map[string]string{"movement_type": "is not a known movement type"})
	}
	if input.Quantity.IsZero() {
		return shared.ValidationFields(map[string]string{"quantity": "must not be zero"})
	}
	if !shared.QuantityFits(input.Quantity) {
		return shared.ValidationFields(map[string]string{"quantity": shared.QuantityScaleMessage})
	}
	if input.Type.Inbound() != input.Quantity.IsPositive() {
		return shared.ValidationFields(map[string]string{"quantity": fmt.Sprintf("has the wrong sign for %s", input.Type)})
	}
	return nil
}
