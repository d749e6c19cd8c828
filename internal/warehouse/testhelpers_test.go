package warehouse

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"agrimart/internal/infra/persistence/sqlite"
	"agrimart/internal/schema"
	"agrimart/internal/staging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "warehouse.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, schema.DialectSQLite)
}

func mustExec(t *testing.T, s *Store, query string, args ...any) {
	t.Helper()
	if _, err := s.db.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func queryInt(t *testing.T, s *Store, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := s.db.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return n
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testFarmer(id string) staging.Farmer {
	return staging.Farmer{
		FarmerID:         id,
		NationalID:       "CM900101" + id,
		FirstName:        "Alice",
		LastName:         "Okello",
		Gender:           "F",
		DateOfBirth:      day(1990, time.May, 10),
		PhoneNumber:      "+256700000001",
		District:         "Kampala",
		Subcounty:        "Nakawa",
		Village:          "Kiswa",
		GPSLatitude:      0.33,
		GPSLongitude:     32.61,
		FarmSizeAcres:    1.5,
		PrimaryCrop:      "Maize",
		CooperativeID:    sql.NullString{String: "COOP-001", Valid: true},
		BlockchainWallet: "0xf001",
		RegistrationDate: day(2021, time.January, 15),
	}
}

func testProduct(id string) staging.Product {
	return staging.Product{
		ProductID:      id,
		ProductName:    "Maize",
		Category:       "Cereals",
		Variety:        "Longe 5",
		UnitOfMeasure:  "kg",
		Season:         "First Season",
		AvgGrowingDays: 120,
		IsPerishable:   false,
	}
}

func testMarket(id string) staging.Market {
	return staging.Market{
		MarketID:      id,
		MarketName:    "Nakasero Market",
		MarketType:    "Urban",
		District:      "Kampala",
		Subcounty:     "Central",
		GPSLatitude:   0.32,
		GPSLongitude:  32.58,
		OperatingDays: "Mon-Sat",
		CapacityKG:    25000,
		IsActive:      true,
	}
}

func testBuyer(id string) staging.Buyer {
	return staging.Buyer{
		BuyerID:            id,
		BuyerName:          "Kampala Grain Traders",
		BuyerType:          "Wholesaler",
		ContactPerson:      "J. Ssemanda",
		PhoneNumber:        "+256700000100",
		Email:              "buyers@example.com",
		District:           "Kampala",
		RegistrationNumber: "REG-100",
		BlockchainWallet:   "0xb001",
		IsActive:           true,
	}
}

// loadBaseDimensions loads one farmer, product, market, and buyer plus the
// derived locations, so fact tests can resolve every foreign key.
func loadBaseDimensions(t *testing.T, p *Pipeline, runDate time.Time) {
	t.Helper()
	ctx := context.Background()
	if _, err := p.LoadFarmerDimension(ctx, p.store.db, []staging.Farmer{testFarmer("F001")}, runDate); err != nil {
		t.Fatalf("load farmers: %v", err)
	}
	if _, err := p.LoadProductDimension(ctx, p.store.db, []staging.Product{testProduct("P001")}, runDate); err != nil {
		t.Fatalf("load products: %v", err)
	}
	if _, err := p.LoadMarketDimension(ctx, p.store.db, []staging.Market{testMarket("M001")}, runDate); err != nil {
		t.Fatalf("load markets: %v", err)
	}
	if _, err := p.LoadBuyerDimension(ctx, p.store.db, []staging.Buyer{testBuyer("B001")}, runDate); err != nil {
		t.Fatalf("load buyers: %v", err)
	}
	if _, err := p.LoadLocationDimension(ctx, p.store.db, []staging.Farmer{testFarmer("F001")}, runDate); err != nil {
		t.Fatalf("load locations: %v", err)
	}
}

type logRecord struct {
	level string
	msg   string
}

// captureLogger records emitted messages for assertions.
type captureLogger struct {
	mu      sync.Mutex
	records []logRecord
}

func (l *captureLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, logRecord{level: level, msg: msg})
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *captureLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.level == level && r.msg == msg {
			return true
		}
	}
	return false
}

// captureSink records archived run reports.
type captureSink struct {
	mu      sync.Mutex
	reports []*RunReport
}

func (s *captureSink) Archive(_ context.Context, rep *RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, rep)
	return nil
}

func (s *captureSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}
