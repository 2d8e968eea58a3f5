package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const productColumns = `
	id, name, description, price, original_price, category, subcategory,
	images, in_stock, unit, specs, featured, created_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// PostgresProductRepository implements ProductRepository using PostgreSQL.
type PostgresProductRepository struct {
	db     *sql.DB
	logger *logging.LoggerV2
	now    func() time.Time
}

// NewPostgresProductRepository creates a new PostgreSQL product repository.
func NewPostgresProductRepository(db *sql.DB, logger *logging.LoggerV2) *PostgresProductRepository {
	return &PostgresProductRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// List returns every product, newest first.
func (r *PostgresProductRepository) List(ctx context.Context) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list products", logging.Fields{"error": err.Error()})
		return nil, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		row, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, ProductFromRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate products")
	}

	r.logger.Debug("Products listed", logging.Fields{"count": len(products)})
	return products, nil
}

// GetByID retrieves a product by its identifier.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	row, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch product", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}

	p := ProductFromRow(row)
	return &p, nil
}

// Create inserts a new product and returns it as stored.
func (r *PostgresProductRepository) Create(ctx context.Context, p models.Product) (*models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}
	row := ProductToRow(p)

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		row.ID,
		row.Name,
		row.Description,
		row.Price,
		row.OriginalPrice,
		row.Category,
		row.Subcategory,
		row.Images,
		row.InStock,
		row.Unit,
		row.Specs,
		row.Featured,
		row.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create product", logging.Fields{
			"name":  p.Name,
			"error": err.Error(),
		})
		return nil, errors.Wrap(err, "insert product")
	}

	r.logger.Info("Product created", logging.Fields{
		"product_id": row.ID,
		"category":   row.Category,
	})

	return r.GetByID(ctx, row.ID)
}

// Update applies a partial update inside a transaction.
func (r *PostgresProductRepository) Update(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin product update")
	}
	defer tx.Rollback() //nolint:errcheck

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	current, err := scanProduct(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p := ProductFromRow(current)
	req.Apply(&p)
	row := ProductToRow(p)
	row.Featured = current.Featured
	if !req.Unit.IsPresent() {
		row.Unit = current.Unit
	}
	if !req.OriginalPrice.IsPresent() {
		row.OriginalPrice = current.OriginalPrice
	}

	update := `
		UPDATE products
		SET name = $2, description = $3, price = $4, original_price = $5,
		    category = $6, subcategory = $7, images = $8, in_stock = $9,
		    unit = $10, specs = $11, featured = $12
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		id,
		row.Name,
		row.Description,
		row.Price,
		row.OriginalPrice,
		row.Category,
		row.Subcategory,
		row.Images,
		row.InStock,
		row.Unit,
		row.Specs,
		row.Featured,
	)
	if err != nil {
		r.logger.Error("Failed to update product", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, errors.Wrap(err, "update product")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit product update")
	}

	r.logger.Info("Product updated", logging.Fields{"product_id": id})
	return r.GetByID(ctx, id)
}

// Delete removes a product.
func (r *PostgresProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete product", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return errors.Wrap(err, "delete product")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrNotFound
	}

	r.logger.Info("Product deleted", logging.Fields{"product_id": id})
	return nil
}

func scanProduct(s rowScanner) (ProductRow, error) {
	var row ProductRow
	err := s.Scan(
		&row.ID,
		&row.Name,
		&row.Description,
		&row.Price,
		&row.OriginalPrice,
		&row.Category,
		&row.Subcategory,
		&row.Images,
		&row.InStock,
		&row.Unit,
		&row.Specs,
		&row.Featured,
		&row.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return row, err
	}
	if err != nil {
		return row, errors.Wrap(err, "scan product")
	}
	return row, nil
}
