// Package readmodel is the Postgres projection of the registry ledger.
package readmodel

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
)

// Transfer is one change of ownership caused by a purchase.
type Transfer struct {
	TxID       string           `json:"tx_id"`
	PropertyID string           `json:"property_id"`
	Seller     registry.UserRef `json:"seller"`
	Buyer      registry.UserRef `json:"buyer"`
	Price      int64            `json:"price"`
	At         time.Time        `json:"transferred_at"`
}

// Projection is everything one chaincode event changes in the read model.
type Projection struct {
	Users    []*registry.User
	Property *registry.Property
	Transfer *Transfer
}

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema files in apply order.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// PostgresStore keeps the read model in Postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Rows only move forward in time, so replayed or reordered events never roll a record back.
const upsertUser = `
INSERT INTO users (name, aadhaar_number, email, phone_number, state, credit_balance, created_by, created_at, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (name, aadhaar_number) DO UPDATE SET
	email = EXCLUDED.email,
	phone_number = EXCLUDED.phone_number,
	state = EXCLUDED.state,
	credit_balance = EXCLUDED.credit_balance,
	updated_by = EXCLUDED.updated_by,
	updated_at = EXCLUDED.updated_at
WHERE users.updated_at <= EXCLUDED.updated_at`

const upsertProperty = `
INSERT INTO properties (property_id, price, status, owner_name, owner_aadhaar_number, created_by, created_at, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (property_id) DO UPDATE SET
	price = EXCLUDED.price,
	status = EXCLUDED.status,
	owner_name = EXCLUDED.owner_name,
	owner_aadhaar_number = EXCLUDED.owner_aadhaar_number,
	updated_by = EXCLUDED.updated_by,
	updated_at = EXCLUDED.updated_at
WHERE properties.updated_at <= EXCLUDED.updated_at`

const insertTransfer = `
INSERT INTO ownership_transfers (tx_id, property_id, seller_name, seller_aadhaar_number, buyer_name, buyer_aadhaar_number, price, transferred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (tx_id) DO NOTHING`

// Apply writes a projection in a single database transaction.
func (s *PostgresStore) Apply(ctx context.Context, p Projection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range p.Users {
		_, err := tx.ExecContext(ctx, upsertUser,
			u.Name, u.AadhaarNumber, u.Email, u.PhoneNumber, string(u.State), u.CreditBalance,
			u.CreatedBy, u.CreatedAt, u.UpdatedBy, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", u.Name, err)
		}
	}

	if prop := p.Property; prop != nil {
		_, err := tx.ExecContext(ctx, upsertProperty,
			prop.PropertyID, prop.Price, string(prop.Status), prop.Owner.Name, prop.Owner.AadhaarNumber,
			prop.CreatedBy, prop.CreatedAt, prop.UpdatedBy, prop.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert property %s: %w", prop.PropertyID, err)
		}
	}

	if t := p.Transfer; t != nil {
		_, err := tx.ExecContext(ctx, insertTransfer,
			t.TxID, t.PropertyID, t.Seller.Name, t.Seller.AadhaarNumber,
			t.Buyer.Name, t.Buyer.AadhaarNumber, t.Price, t.At)
		if err != nil {
			return fmt.Errorf("failed to record transfer %s: %w", t.TxID, err)
		}
	}

	return tx.Commit()
}

// PropertyIDs lists every indexed property.
func (s *PostgresStore) PropertyIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT property_id FROM properties ORDER BY property_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
