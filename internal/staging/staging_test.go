package staging

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"agrimart/internal/infra/persistence/sqlite"
	"agrimart/internal/schema"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-08-15", time.Date(2024, time.August, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-08-15 13:45:00", time.Date(2024, time.August, 15, 13, 45, 0, 0, time.UTC)},
		{"2024-08-15T13:45:00Z", time.Date(2024, time.August, 15, 13, 45, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, err := ParseDate(c.in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", c.in, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := ParseDate("15/08/2024"); err == nil {
		t.Error("expected error for unrecognized layout")
	}
	if _, err := ParseDate(""); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestReaderRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "staging.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, `INSERT INTO stg_farmers (farmer_id, national_id, first_name,
		last_name, gender, date_of_birth, phone_number, district, subcounty, village, gps_latitude,
		gps_longitude, farm_size_acres, primary_crop, cooperative_id, blockchain_wallet,
		registration_date, is_active)
		VALUES ('F001', 'CM900101', 'Alice', 'Okello', 'F', '1990-05-10', '+256700000001', 'Kampala',
		'Nakawa', 'Kiswa', 0.33, 32.61, 1.5, 'Maize', 'COOP-001', '0xf001', '2021-01-15', TRUE)`); err != nil {
		t.Fatalf("seed farmer: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO stg_products (product_id, product_name, category,
		variety, unit_of_measure, season, avg_growing_days, is_perishable)
		VALUES ('P001', 'Tomato', 'Vegetables', 'Roma', 'kg', 'First Season', 75, TRUE)`); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	r := NewReader(schema.DialectSQLite)

	farmers, err := r.Farmers(ctx, db)
	if err != nil {
		t.Fatalf("read farmers: %v", err)
	}
	if len(farmers) != 1 {
		t.Fatalf("got %d farmers", len(farmers))
	}
	f := farmers[0]
	if f.FarmerID != "F001" || f.FirstName != "Alice" || f.District != "Kampala" {
		t.Errorf("unexpected farmer: %+v", f)
	}
	if !f.DateOfBirth.Equal(time.Date(1990, time.May, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date_of_birth = %v", f.DateOfBirth)
	}
	if f.FarmSizeAcres != 1.5 {
		t.Errorf("farm_size_acres = %v", f.FarmSizeAcres)
	}

	products, err := r.Products(ctx, db)
	if err != nil {
		t.Fatalf("read products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products", len(products))
	}
	if !products[0].IsPerishable {
		t.Error("is_perishable lost in scan")
	}

	// Empty tables read as empty slices, not errors.
	markets, err := r.Markets(ctx, db)
	if err != nil {
		t.Fatalf("read markets: %v", err)
	}
	if len(markets) != 0 {
		t.Fatalf("got %d markets from empty table", len(markets))
	}
}

func TestReaderCarriesNullColumns(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "staging.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Non-cooperative farmers and unpaid transactions stage NULLs, not empty
	// strings; readers must carry them through instead of failing the scan.
	if _, err := db.ExecContext(ctx, `INSERT INTO stg_farmers (farmer_id, national_id, first_name,
		last_name, gender, date_of_birth, phone_number, district, subcounty, village, gps_latitude,
		gps_longitude, farm_size_acres, primary_crop, cooperative_id, blockchain_wallet,
		registration_date, is_active)
		VALUES ('F002', 'CM850202', 'Ben', 'Odongo', 'M', '1985-02-02', '+256700000002', 'Gulu',
		'Laroo', 'Pece', 2.78, 32.30, 4.0, 'Cassava', NULL, '0xf002', '2022-06-01', TRUE)`); err != nil {
		t.Fatalf("seed farmer: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO stg_transactions (transaction_id, farmer_id, buyer_id,
		product_id, market_id, quantity_kg, quality_grade, unit_price, total_amount, transaction_date,
		payment_method, payment_status, blockchain_hash)
		VALUES ('T002', 'F002', 'B001', 'P001', 'M001', 120, 'B', 15, 1800, '2024-09-01',
		'Cash', 'Pending', NULL)`); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	r := NewReader(schema.DialectSQLite)

	farmers, err := r.Farmers(ctx, db)
	if err != nil {
		t.Fatalf("read farmers: %v", err)
	}
	if len(farmers) != 1 {
		t.Fatalf("got %d farmers", len(farmers))
	}
	if farmers[0].CooperativeID.Valid {
		t.Errorf("cooperative_id = %+v, want NULL", farmers[0].CooperativeID)
	}

	txs, err := r.Transactions(ctx, db)
	if err != nil {
		t.Fatalf("read transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions", len(txs))
	}
	if txs[0].BlockchainHash.Valid {
		t.Errorf("blockchain_hash = %+v, want NULL", txs[0].BlockchainHash)
	}
}
