package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const orderColumns = `
	id, customer_name, customer_email, customer_phone,
	delivery_address, delivery_city, delivery_postal_code, delivery_country,
	notes, items, total_amount, status, created_at
`

const defaultOrderListLimit = 50

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logging.LoggerV2
	now    func() time.Time
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sql.DB, logger *logging.LoggerV2) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Create records a draft as a new pending order.
func (r *PostgresOrderRepository) Create(ctx context.Context, draft *models.OrderDraft) (*models.Order, error) {
	row, err := OrderDraftToRow(uuid.New().String(), draft, r.now().UTC())
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(ctx, query,
		row.ID,
		row.CustomerName,
		row.CustomerEmail,
		row.CustomerPhone,
		row.DeliveryAddress,
		row.DeliveryCity,
		row.DeliveryPostalCode,
		row.DeliveryCountry,
		row.Notes,
		row.Items,
		row.TotalAmount,
		row.Status,
		row.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", logging.Fields{
			"email": draft.Contact.Email,
			"error": err.Error(),
		})
		return nil, errors.Wrap(err, "insert order")
	}

	r.logger.Info("Order created successfully", logging.Fields{
		"order_id": row.ID,
		"total":    row.TotalAmount.StringFixed(2),
		"items":    len(draft.Items),
	})

	return OrderFromRow(row)
}

// GetByID retrieves an order by its identifier.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	row, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}
	return OrderFromRow(row)
}

// List returns orders newest first along with the total matching count.
func (r *PostgresOrderRepository) List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	if filter == nil {
		filter = &models.OrderListFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultOrderListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := make([]interface{}, 0, 3)
	if status, ok := filter.Status.Get(); ok {
		args = append(args, string(status))
		where = fmt.Sprintf(" WHERE status = $%d", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		row, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		order, err := OrderFromRow(row)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate orders")
	}

	r.logger.Debug("Orders listed", logging.Fields{
		"count": len(orders),
		"total": total,
	})
	return orders, total, nil
}

// UpdateStatus moves an order to status.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, errors.NewValidationError("status", "unknown order status")
	}

	query := `UPDATE orders SET status = $2 WHERE id = $1 RETURNING ` + orderColumns

	row, err := scanOrder(r.db.QueryRowContext(ctx, query, id, string(status)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to update order status", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	r.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})
	return OrderFromRow(row)
}

// Delete removes an order.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return errors.Wrap(err, "delete order")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrNotFound
	}

	r.logger.Info("Order deleted", logging.Fields{"order_id": id})
	return nil
}

// Stats aggregates the dashboard counters in one round trip.
func (r *PostgresOrderRepository) Stats(ctx context.Context) (*models.OrderStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders WHERE status = 'pending'),
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders)
	`

	var stats models.OrderStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Orders,
		&stats.Products,
		&stats.PendingOrders,
		&stats.Revenue,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query order stats")
	}
	return &stats, nil
}

func scanOrder(s rowScanner) (OrderRow, error) {
	var row OrderRow
	err := s.Scan(
		&row.ID,
		&row.CustomerName,
		&row.CustomerEmail,
		&row.CustomerPhone,
		&row.DeliveryAddress,
		&row.DeliveryCity,
		&row.DeliveryPostalCode,
		&row.DeliveryCountry,
		&row.Notes,
		&row.Items,
		&row.TotalAmount,
		&row.Status,
		&row.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return row, err
	}
	if err != nil {
		return row, errors.Wrap(err, "scan order")
	}
	return row, nil
}
