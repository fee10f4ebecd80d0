package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/abgdnv/product-catalog/internal/product/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const selectProducts = `SELECT id, name, description, price, quantity FROM products`

var _ ProductStore = (*PgStore)(nil)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	rows, err := p.db.Query(ctx, selectProducts+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	product, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

// FindByIDs retrieves products by IDs.
func (p *PgStore) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	return p.query(ctx, selectProducts+` WHERE id = ANY($1)`, ids)
}

// FindAll retrieves all products ordered by id.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	return p.query(ctx, selectProducts+` ORDER BY id`)
}

func (p *PgStore) FindAllSortedByPrice(ctx context.Context, order SortOrder) ([]Product, error) {
	orderBy := ` ORDER BY price ASC NULLS FIRST, id`
	if order == Descending {
		orderBy = ` ORDER BY price DESC NULLS LAST, id DESC`
	}
	return p.query(ctx, selectProducts+orderBy)
}

// Insert adds all products in one transaction; nothing is stored when one id is taken.
func (p *PgStore) Insert(ctx context.Context, products []Product) error {
	return p.withTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, product := range products {
			batch.Queue(`INSERT INTO products (id, name, description, price, quantity) VALUES ($1, $2, $3, $4, $5)`,
				product.ID, product.Name, product.Description, toNumeric(product.Price), product.Quantity)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			var pgErr *pgconn.PgError
			if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("failed to insert products: %w", errors.ErrProductExists)
			}
			return fmt.Errorf("failed to insert products: %w", err)
		}
		return nil
	})
}

func (p *PgStore) Upsert(ctx context.Context, products []Product) error {
	return p.withTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, product := range products {
			batch.Queue(`INSERT INTO products (id, name, description, price, quantity) VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					description = EXCLUDED.description,
					price = EXCLUDED.price,
					quantity = EXCLUDED.quantity`,
				product.ID, product.Name, product.Description, toNumeric(product.Price), product.Quantity)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert products: %w", err)
		}
		return nil
	})
}

// DeleteByID deletes a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) DeleteByID(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrProductNotFound
	}
	return nil
}

func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *PgStore) query(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// withTransaction runs fn in a transaction, rolling back when fn fails.
func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !stderrors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("failed to roll back after %v: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (Product, error) {
	var (
		product Product
		price   pgtype.Numeric
	)
	if err := row.Scan(&product.ID, &product.Name, &product.Description, &price, &product.Quantity); err != nil {
		return Product{}, err
	}
	if price.Valid {
		if price.NaN || price.InfinityModifier != pgtype.Finite {
			return Product{}, fmt.Errorf("product %d has a non-finite price", product.ID)
		}
		d := decimal.NewFromBigInt(price.Int, price.Exp)
		product.Price = &d
	}
	return product, nil
}

func toNumeric(price *decimal.Decimal) pgtype.Numeric {
	if price == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: price.Coefficient(), Exp: price.Exponent(), Valid: true}
}
