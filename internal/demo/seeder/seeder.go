package seeder

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

type Seeder struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Seeder {
	return &Seeder{db: db, logger: logger}
}

// Seed inserts the dataset. Statements are built as literals so the same
// scripts run against both supported dialects.
func (s *Seeder) Seed(ctx context.Context, dataset Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, statement := range buildStatements(dataset) {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("seed statement failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	s.logger.InfoContext(ctx, "demo data seeded",
		"products", len(dataset.Products),
		"orders", len(dataset.Orders),
		"returns", len(dataset.Returns),
	)
	return nil
}

func buildStatements(dataset Dataset) []string {
	statements := make([]string, 0, len(dataset.Products)+len(dataset.Orders)+len(dataset.Returns))
	for _, product := range dataset.Products {
		statements = append(statements, fmt.Sprintf(
			"INSERT INTO products (product_id, name, price, stock) VALUES (%s, %s, %.2f, %d)",
			quote(product.ID), quote(product.Name), product.Price, product.Stock,
		))
	}
	for _, order := range dataset.Orders {
		statements = append(statements, fmt.Sprintf(
			"INSERT INTO orders (order_id, customer_name, status, tracking_number, created_at) VALUES (%s, %s, %s, %s, %s)",
			quote(order.ID), quote(order.CustomerName), quote(order.Status), quote(order.TrackingNumber), quote(order.CreatedAt),
		))
	}
	for _, item := range dataset.Returns {
		statements = append(statements, fmt.Sprintf(
			"INSERT INTO returns (return_id, order_id, status, reason, created_at) VALUES (%s, %s, %s, %s, %s)",
			quote(item.ID), quote(item.OrderID), quote(item.Status), quote(item.Reason), quote(item.CreatedAt),
		))
	}
	return statements
}

func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
