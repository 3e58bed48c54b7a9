package readmodel

import (
	"context"
	"time"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
)

// Stats summarises the registry for the operations console.
type Stats struct {
	UsersByState       map[string]int `json:"users_by_state"`
	PropertiesByStatus map[string]int `json:"properties_by_status"`
	Transfers          int            `json:"transfers"`
	TransferVolume     int64          `json:"transfer_volume"`
	CoinsHeld          int64          `json:"coins_held"`
	Since              time.Time      `json:"since"`
}

func (s *PostgresStore) countBy(ctx context.Context, query string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// Stats counts records by lifecycle state and sums the transfers made after since.
func (s *PostgresStore) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	stats := &Stats{Since: since}
	var err error
	if stats.UsersByState, err = s.countBy(ctx, "SELECT state, COUNT(*) FROM users GROUP BY state"); err != nil {
		return nil, err
	}
	if stats.PropertiesByStatus, err = s.countBy(ctx, "SELECT status, COUNT(*) FROM properties GROUP BY status"); err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(price), 0) FROM ownership_transfers WHERE transferred_at > $1", since).
		Scan(&stats.Transfers, &stats.TransferVolume)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(credit_balance), 0) FROM users").Scan(&stats.CoinsHeld)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Properties lists indexed properties with the given status, or all of them when status is empty.
func (s *PostgresStore) Properties(ctx context.Context, status registry.PropertyStatus, limit int) ([]registry.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT property_id, price, status, owner_name, owner_aadhaar_number, created_by, created_at, updated_by, updated_at
		FROM properties WHERE ($1 = '' OR status = $1) ORDER BY updated_at DESC LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []registry.Property
	for rows.Next() {
		var p registry.Property
		err := rows.Scan(&p.PropertyID, &p.Price, &p.Status, &p.Owner.Name, &p.Owner.AadhaarNumber,
			&p.CreatedBy, &p.CreatedAt, &p.UpdatedBy, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Users lists indexed users in the given state, oldest request first.
func (s *PostgresStore) Users(ctx context.Context, state registry.UserState, limit int) ([]registry.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, aadhaar_number, email, phone_number, state, credit_balance, created_by, created_at, updated_by, updated_at
		FROM users WHERE state = $1 ORDER BY created_at LIMIT $2`,
		string(state), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []registry.User
	for rows.Next() {
		var u registry.User
		err := rows.Scan(&u.Name, &u.AadhaarNumber, &u.Email, &u.PhoneNumber, &u.State, &u.CreditBalance,
			&u.CreatedBy, &u.CreatedAt, &u.UpdatedBy, &u.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Transfers returns the ownership history of a property, oldest first.
func (s *PostgresStore) Transfers(ctx context.Context, propertyID string) ([]Transfer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_id, property_id, seller_name, seller_aadhaar_number, buyer_name, buyer_aadhaar_number, price, transferred_at
		FROM ownership_transfers WHERE property_id = $1 ORDER BY transferred_at`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		var t Transfer
		err := rows.Scan(&t.TxID, &t.PropertyID, &t.Seller.Name, &t.Seller.AadhaarNumber,
			&t.Buyer.Name, &t.Buyer.AadhaarNumber, &t.Price, &t.At)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
