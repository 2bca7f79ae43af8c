package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListCatalogProducts returns active products in insertion order.
func (r *Repository) ListCatalogProducts(ctx context.Context, tenantID uuid.UUID) ([]CatalogProduct, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, name, description, features, position
		FROM catalog_products
		WHERE tenant_id = $1 AND is_active = true
		ORDER BY position ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list catalog products: %w", err)
	}
	defer rows.Close()

	products := make([]CatalogProduct, 0)
	for rows.Next() {
		var p CatalogProduct
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Features, &p.Position); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return products, nil
}

func (r *Repository) ListProductSynonyms(ctx context.Context, tenantID uuid.UUID) ([]ProductSynonym, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, synonym
		FROM catalog_product_synonyms
		WHERE tenant_id = $1
		ORDER BY product_id, synonym
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list product synonyms: %w", err)
	}
	defer rows.Close()

	synonyms := make([]ProductSynonym, 0)
	for rows.Next() {
		var s ProductSynonym
		if err := rows.Scan(&s.ProductID, &s.Synonym); err != nil {
			return nil, err
		}
		synonyms = append(synonyms, s)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return synonyms, nil
}

// ReplaceProductSynonyms swaps a product's curated synonyms for the given set.
func (r *Repository) ReplaceProductSynonyms(ctx context.Context, tenantID, productID uuid.UUID, synonyms []string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin synonyms tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT true FROM catalog_products WHERE id = $1 AND tenant_id = $2
	`, productID, tenantID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM catalog_product_synonyms WHERE product_id = $1 AND tenant_id = $2`, productID, tenantID); err != nil {
		return fmt.Errorf("delete synonyms: %w", err)
	}

	for _, synonym := range synonyms {
		value := strings.TrimSpace(synonym)
		if value == "" {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO catalog_product_synonyms (tenant_id, product_id, synonym)
			VALUES ($1, $2, $3)
			ON CONFLICT (product_id, synonym) DO NOTHING
		`, tenantID, productID, value); err != nil {
			return fmt.Errorf("insert synonym: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit synonyms tx: %w", err)
	}
	return nil
}
