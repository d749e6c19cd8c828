// Package staging defines the flat staging-row shapes and the readers that
// snapshot them out of the staging tables. Staging is truncate-and-reload and
// owned by the external bulk loader; this package only reads.
package staging

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"agrimart/internal/schema"
)

// Querier is the minimal query surface the readers need. Both *sql.DB and
// *sql.Tx satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Farmer mirrors one stg_farmers row.
type Farmer struct {
	FarmerID         string
	NationalID       string
	FirstName        string
	LastName         string
	Gender           string
	DateOfBirth      time.Time
	PhoneNumber      string
	District         string
	Subcounty        string
	Village          string
	GPSLatitude      float64
	GPSLongitude     float64
	FarmSizeAcres    float64
	PrimaryCrop      string
	CooperativeID    sql.NullString // NULL for farmers outside a cooperative
	BlockchainWallet string
	RegistrationDate time.Time
}

// Product mirrors one stg_products row.
type Product struct {
	ProductID      string
	ProductName    string
	Category       string
	Variety        string
	UnitOfMeasure  string
	Season         string
	AvgGrowingDays int
	IsPerishable   bool
}

// Market mirrors one stg_markets row.
type Market struct {
	MarketID      string
	MarketName    string
	MarketType    string
	District      string
	Subcounty     string
	GPSLatitude   float64
	GPSLongitude  float64
	OperatingDays string
	CapacityKG    float64
	IsActive      bool
}

// Buyer mirrors one stg_buyers row.
type Buyer struct {
	BuyerID            string
	BuyerName          string
	BuyerType          string
	ContactPerson      string
	PhoneNumber        string
	Email              string
	District           string
	RegistrationNumber string
	BlockchainWallet   string
	IsActive           bool
}

// Transaction mirrors one stg_transactions row.
type Transaction struct {
	TransactionID  string
	FarmerID       string
	BuyerID        string
	ProductID      string
	MarketID       string
	QuantityKG     float64
	QualityGrade   string
	UnitPrice      float64
	TotalAmount    float64
	TransactionAt  time.Time
	PaymentMethod  string
	PaymentStatus  string
	BlockchainHash sql.NullString // NULL until the payment settles on chain
}

// Harvest mirrors one stg_harvests row.
type Harvest struct {
	HarvestID          string
	FarmerID           string
	ProductID          string
	PlantingDate       time.Time
	HarvestDate        time.Time
	QuantityKG         float64
	QualityAssessment  string
	PostHarvestLossPct float64
	StorageMethod      string
	Season             string
}

// Pricing mirrors one stg_pricing row.
type Pricing struct {
	PriceID        string
	ProductID      string
	MarketID       string
	PriceDate      time.Time
	WholesalePrice float64
	RetailPrice    float64
	PriceTrend     string
	Source         string
}

// Weather mirrors one stg_weather row.
type Weather struct {
	WeatherID        string
	District         string
	WeatherDate      time.Time
	TemperatureMin   float64
	TemperatureMax   float64
	TemperatureAvg   float64
	RainfallMM       float64
	HumidityPct      float64
	WindSpeedKMH     float64
	WeatherCondition string
	Source           string
}

// Subsidy mirrors one stg_subsidies row.
type Subsidy struct {
	FarmerSubsidyID    string
	FarmerID           string
	SubsidyID          string
	ProgramName        string
	SubsidyType        string
	AmountValue        float64
	DistributionDate   time.Time
	VerificationStatus string
}

// Reader snapshots staging tables into typed slices.
type Reader struct {
	dialect schema.Dialect
}

// NewReader returns a reader rebinding queries for the given dialect.
func NewReader(dialect schema.Dialect) *Reader {
	return &Reader{dialect: dialect}
}

func (r *Reader) rebind(query string) string {
	return schema.Rebind(r.dialect, query)
}

// Farmers reads every stg_farmers row.
func (r *Reader) Farmers(ctx context.Context, q Querier) ([]Farmer, error) {
	rows, err := q.QueryContext(ctx, r.rebind(`SELECT farmer_id, national_id, first_name, last_name, gender,
		date_of_birth, phone_number, district, subcounty, village, gps_latitude, gps_longitude,
		farm_size_acres, primary_crop, cooperative_id, blockchain_wallet, registration_date
		FROM stg_farmers`))
	if err != nil {
		return nil, fmt.Errorf("select stg_farmers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Farmer
	for rows.Next() {
		var f Farmer
		var dob, reg string
		if err := rows.Scan(&f.FarmerID, &f.NationalID, &f.FirstName, &f.LastName, &f.Gender,
			&dob, &f.PhoneNumber, &f.District, &f.Subcounty, &f.Village, &f.GPSLatitude, &f.GPSLongitude,
			&f.FarmSizeAcres, &f.PrimaryCrop, &f.CooperativeID, &f.BlockchainWallet, &reg); err != nil {
			return nil, fmt.Errorf("scan stg_farmers: %w", err)
		}
		if f.DateOfBirth, err = ParseDate(dob); err != nil {
			return nil, fmt.Errorf("farmer %s date_of_birth: %w", f.FarmerID, err)
		}
		if f.RegistrationDate, err = ParseDate(reg); err != nil {
			return nil, fmt.Errorf("farmer %s registration_date: %w", f.FarmerID, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Products reads every stg_products row.
func (r *Reader) Products(ctx context.Context, q Querier) ([]Product, error) {
	rows, err := q.QueryContext(ctx, r.rebind(`SELECT product_id, product_name, category, variety,
		unit_of_measure, season, avg_growing_days, is_perishable FROM stg_products`))
	if err != nil {
		return nil, fmt.Errorf("select stg_products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Category, &p.Variety,
			&p.UnitOfMeasure, &p.Season, &p.AvgGrowingDays, &p.IsPerishable); err != nil {
			return nil, fmt.Errorf("scan stg_products: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Markets reads every stg_markets row.
func (r *Reader) Markets(ctx context.Context, q Querier) ([]Market, error) {
	rows, err := q.QueryContext(ctx, r.rebind(`SELECT market_id, market_name, market_type, district,
		subcounty, gps_latitude, gps_longitude, operating_days, capacity_kg, is_active FROM stg_markets`))
	if err != nil {
		return nil, fmt.Errorf("select stg_markets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Market
	for rows.Next() {
		var m Market
		if err := rows.Scan(&m.MarketID, &m.MarketName, &m.MarketType, &m.District,
			&m.Subcounty, &m.GPSLatitude, &m.GPSLongitude, &m.OperatingDays, &m.CapacityKG, &m.IsActive); err != nil {
			return nil, fmt.Errorf("scan stg_markets: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Buyers reads every stg_buyers row.
func (r *Reader) Buyers(ctx context.Context, q Querier) ([]Buyer, error) {
	rows, err := q.QueryContext(ctx, r.rebind(`SELECT buyer_id, buyer_name, buyer_type, contact_person,
		phone_number, email, district, registration_number, blockchain_wallet, is_active FROM stg_buyers`))
	if err != nil {
		return nil, fmt.Errorf("select stg_buyers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Buyer
	for rows.Next() {
		var b Buyer
		if err := rows.Scan(&b.BuyerID, &b.BuyerName, &b.BuyerType, &b.ContactPerson,
			&b.PhoneNumber, &b.Email, &b.District, &b.RegistrationNumber, &b.BlockchainWallet, &b.IsActive); err != nil {
			return nil, fmt.Errorf("scan stg_buyers: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Transactions reads every stg_transactions row.
func (r *Reader) Transactions(ctx context.Context, q Querier) ([]Transaction, error) {
	rows, err := q.QueryContext(ctx, r.rebind(`SELECT transaction_id, farmer_id, buyer_id, product_id,
		market_id, quantity_kg, quality_grade, unit_price, total_amount, transaction_date,
		payment_method, payment_status, blockchain_hash FROM stg_transactions`))
	if err != nil {
		return nil, fmt.Errorf("select stg_transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var at string
		if err := rows.Scan(&t.TransactionID, &t.FarmerID, &t.BuyerID, &t.ProductID,
			&t.MarketID, &t.QuantityKG, &t.QualityGrade, &t.UnitPrice, &t.TotalAmount, &at,
			&t.PaymentMethod, &t.PaymentStatus, &t.BlockchainHash); err != nil {
			return nil, fmt.Errorf("scan stg_transactions: %w", err)
		}
		if t.TransactionAt, err = ParseDate(at); err != nil {
			return nil, fmt.Errorf("transaction %s transaction_date: %w", t.TransactionID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Harvests reads every stg_harvests row.
func (r *Reader) Harvests(ctx context.Context, q Querier) ([]Harvest, error) {
	rows, err := q.QueryContext(ctx, r.rebind(`SELECT harvest_id, farmer_id, product_id, planting_date,
		harvest_date, quantity_kg, quality_assessment, post_harvest_loss_pct, storage_method, season
		FROM stg_harvests`))
	if err != nil {
		return nil, fmt.Errorf("select stg_harvests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Harvest
	for rows.Next() {
		var h Harvest
		var planting, harvest string
		if err := rows.Scan(&h.HarvestID, &h.FarmerID, &h.ProductID, &planting,
			&harvest, &h.QuantityKG, &h.QualityAssessment, &h.PostHarvestLossPct, &h.StorageMethod, &h.Season); err != nil {
			return nil, fmt.Errorf("scan stg_harvests: %w", err)
		}
		if h.PlantingDate, err = ParseDate(planting); err != nil {
			return nil, fmt.Errorf("harvest %s planting_date: %w", h.HarvestID, err)
		}
		if h.HarvestDate, err = ParseDate(harvest); err != nil {
			return nil, fmt.Errorf("harvest %s harvest_date: %w", h.HarvestID, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Pricings reads every stg_pricing row.
func (r *Reader) Pricings(ctx context.Context, q Querier) ([]Pricing, error) {
	rows, err := q.QueryContext(ctx, r.rebind(`SELECT price_id, product_id, market_id, price_date,
		wholesale_price, retail_price, price_trend, source FROM stg_pricing`))
	if err != nil {
		return nil, fmt.Errorf("select stg_pricing: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Pricing
	for rows.Next() {
		var p Pricing
		var day string
		if err := rows.Scan(&p.PriceID, &p.ProductID, &p.MarketID, &day,
			&p.WholesalePrice, &p.RetailPrice, &p.PriceTrend, &p.Source); err != nil {
			return nil, fmt.Errorf("scan stg_pricing: %w", err)
		}
		if p.PriceDate, err = ParseDate(day); err != nil {
			return nil, fmt.Errorf("price %s price_date: %w", p.PriceID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// WeatherReadings reads every stg_weather row.
func (r *Reader) WeatherReadings(ctx context.Context, q Querier) ([]Weather, error) {
	rows, err := q.QueryContext(ctx, r.rebind(`SELECT weather_id, district, weather_date, temperature_min,
		temperature_max, temperature_avg, rainfall_mm, humidity_pct, wind_speed_kmh, weather_condition, source
		FROM stg_weather`))
	if err != nil {
		return nil, fmt.Errorf("select stg_weather: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Weather
	for rows.Next() {
		var w Weather
		var day string
		if err := rows.Scan(&w.WeatherID, &w.District, &day, &w.TemperatureMin,
			&w.TemperatureMax, &w.TemperatureAvg, &w.RainfallMM, &w.HumidityPct, &w.WindSpeedKMH,
			&w.WeatherCondition, &w.Source); err != nil {
			return nil, fmt.Errorf("scan stg_weather: %w", err)
		}
		if w.WeatherDate, err = ParseDate(day); err != nil {
			return nil, fmt.Errorf("weather %s weather_date: %w", w.WeatherID, err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Subsidies reads every stg_subsidies row.
func (r *Reader) Subsidies(ctx context.Context, q Querier) ([]Subsidy, error) {
	rows, err := q.QueryContext(ctx, r.rebind(`SELECT farmer_subsidy_id, farmer_id, subsidy_id, program_name,
		subsidy_type, amount_value, distribution_date, verification_status FROM stg_subsidies`))
	if err != nil {
		return nil, fmt.Errorf("select stg_subsidies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Subsidy
	for rows.Next() {
		var s Subsidy
		var day string
		if err := rows.Scan(&s.FarmerSubsidyID, &s.FarmerID, &s.SubsidyID, &s.ProgramName,
			&s.SubsidyType, &s.AmountValue, &day, &s.VerificationStatus); err != nil {
			return nil, fmt.Errorf("scan stg_subsidies: %w", err)
		}
		if s.DistributionDate, err = ParseDate(day); err != nil {
			return nil, fmt.Errorf("subsidy %s distribution_date: %w", s.FarmerSubsidyID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// ParseDate parses the ISO date and timestamp layouts staging files carry.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
