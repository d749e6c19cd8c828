package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Dimension describes the columns needed to resolve a business key to the
// current surrogate key of a versioned dimension.
type Dimension struct {
	Table          string
	KeyColumn      string
	BusinessColumn string
}

var (
	DimFarmer  = Dimension{Table: "dim_farmer", KeyColumn: "farmer_key", BusinessColumn: "farmer_id"}
	DimProduct = Dimension{Table: "dim_product", KeyColumn: "product_key", BusinessColumn: "product_id"}
	DimMarket  = Dimension{Table: "dim_market", KeyColumn: "market_key", BusinessColumn: "market_id"}
	DimBuyer   = Dimension{Table: "dim_buyer", KeyColumn: "buyer_key", BusinessColumn: "buyer_id"}
)

// DefaultBuyerKey is the seeded sentinel surrogate key used when a
// transaction's trading partner cannot be resolved.
const DefaultBuyerKey int64 = 1

// unknownBuyerID is the sentinel's business key; staging rows carrying it are
// never versioned by the buyer dimension load.
const unknownBuyerID = "UNKNOWN"

// KeyResolver maps business keys to current surrogate keys. It holds no
// cache; every lookup runs against the caller's transaction so resolution is
// consistent within one table load.
type KeyResolver struct {
	store *Store
}

// NewKeyResolver returns a resolver bound to the store's dialect.
func NewKeyResolver(store *Store) *KeyResolver {
	return &KeyResolver{store: store}
}

// Resolve returns the surrogate key of the current version of the dimension
// row with the given business key, or ErrKeyNotFound.
func (r *KeyResolver) Resolve(ctx context.Context, q Querier, dim Dimension, businessKey string) (int64, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND is_current = TRUE",
		dim.KeyColumn, dim.Table, dim.BusinessColumn)
	var key int64
	err := q.QueryRowContext(ctx, r.store.rebind(query), businessKey).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s %q: %w", dim.Table, businessKey, ErrKeyNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve %s %q: %w", dim.Table, businessKey, err)
	}
	return key, nil
}

// ResolveLocation returns the single location surrogate key for a district.
// Districts can carry several subcounty-level rows; the smallest key wins so
// reruns pick the same row.
func (r *KeyResolver) ResolveLocation(ctx context.Context, q Querier, district string) (int64, error) {
	var key sql.NullInt64
	err := q.QueryRowContext(ctx,
		r.store.rebind(`SELECT MIN(location_key) FROM dim_location WHERE district = ?`),
		district).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("resolve location for district %q: %w", district, err)
	}
	if !key.Valid {
		return 0, fmt.Errorf("dim_location district %q: %w", district, ErrKeyNotFound)
	}
	return key.Int64, nil
}

// ResolveLocationPair returns the location surrogate key for an exact
// district+subcounty pair.
func (r *KeyResolver) ResolveLocationPair(ctx context.Context, q Querier, district, subcounty string) (int64, error) {
	var key int64
	err := q.QueryRowContext(ctx,
		r.store.rebind(`SELECT location_key FROM dim_location WHERE district = ? AND subcounty = ?`),
		district, subcounty).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("dim_location %q/%q: %w", district, subcounty, ErrKeyNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve location %q/%q: %w", district, subcounty, err)
	}
	return key, nil
}

// ResolvePaymentMethod returns the payment method surrogate key and its
// transaction fee percentage.
func (r *KeyResolver) ResolvePaymentMethod(ctx context.Context, q Querier, method string) (int64, float64, error) {
	var key int64
	var fee sql.NullFloat64
	err := q.QueryRowContext(ctx,
		r.store.rebind(`SELECT payment_key, transaction_fee_pct FROM dim_payment_method WHERE payment_method = ?`),
		method).Scan(&key, &fee)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("dim_payment_method %q: %w", method, ErrKeyNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("resolve payment method %q: %w", method, err)
	}
	return key, fee.Float64, nil
}

// ResolveQuality returns the quality grade surrogate key.
func (r *KeyResolver) ResolveQuality(ctx context.Context, q Querier, grade string) (int64, error) {
	var key int64
	err := q.QueryRowContext(ctx,
		r.store.rebind(`SELECT quality_key FROM dim_quality WHERE quality_grade = ?`),
		grade).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("dim_quality %q: %w", grade, ErrKeyNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve quality %q: %w", grade, err)
	}
	return key, nil
}
