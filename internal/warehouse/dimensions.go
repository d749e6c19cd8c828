package warehouse

import (
	"context"
	"fmt"
	"sort"
	"time"

	"agrimart/internal/derive"
	"agrimart/internal/staging"
)

var farmerSpec = dimensionSpec{
	table:       "dim_farmer",
	keyColumn:   "farmer_key",
	businessCol: "farmer_id",
	attrColumns: []string{
		"national_id", "first_name", "last_name", "full_name", "gender",
		"date_of_birth", "age_group", "phone_number", "district", "subcounty",
		"village", "region", "gps_latitude", "gps_longitude", "farm_size_acres",
		"farm_size_category", "primary_crop", "cooperative_id",
		"blockchain_wallet", "registration_date",
	},
}

var productSpec = dimensionSpec{
	table:       "dim_product",
	keyColumn:   "product_key",
	businessCol: "product_id",
	attrColumns: []string{
		"product_name", "category", "category_group", "variety",
		"unit_of_measure", "season", "avg_growing_days",
		"growing_period_category", "is_perishable", "perishability_category",
	},
}

var marketSpec = dimensionSpec{
	table:       "dim_market",
	keyColumn:   "market_key",
	businessCol: "market_id",
	attrColumns: []string{
		"market_name", "market_type", "district", "subcounty", "region",
		"gps_latitude", "gps_longitude", "operating_days", "capacity_kg",
		"capacity_category", "is_active",
	},
}

var buyerSpec = dimensionSpec{
	table:       "dim_buyer",
	keyColumn:   "buyer_key",
	businessCol: "buyer_id",
	attrColumns: []string{
		"buyer_name", "buyer_type", "contact_person", "phone_number", "email",
		"district", "region", "registration_number", "blockchain_wallet",
		"is_active",
	},
}

// LoadFarmerDimension applies SCD Type 2 maintenance to dim_farmer.
func (p *Pipeline) LoadFarmerDimension(ctx context.Context, q Querier, farmers []staging.Farmer, runDate time.Time) (Counts, error) {
	entities := make([]dimensionEntity, 0, len(farmers))
	for _, f := range farmers {
		entities = append(entities, dimensionEntity{
			businessKey: f.FarmerID,
			attrs: []any{
				f.NationalID, f.FirstName, f.LastName, f.FirstName + " " + f.LastName, f.Gender,
				fmtDate(f.DateOfBirth), derive.AgeGroup(f.DateOfBirth, runDate), f.PhoneNumber,
				f.District, f.Subcounty, f.Village, derive.Region(f.District),
				f.GPSLatitude, f.GPSLongitude, f.FarmSizeAcres,
				derive.FarmSizeCategory(f.FarmSizeAcres), f.PrimaryCrop, f.CooperativeID,
				f.BlockchainWallet, fmtDate(f.RegistrationDate),
			},
		})
	}
	return loadVersionedDimension(ctx, p.store, q, farmerSpec, entities, runDate)
}

// LoadProductDimension applies SCD Type 2 maintenance to dim_product.
func (p *Pipeline) LoadProductDimension(ctx context.Context, q Querier, products []staging.Product, runDate time.Time) (Counts, error) {
	entities := make([]dimensionEntity, 0, len(products))
	for _, pr := range products {
		entities = append(entities, dimensionEntity{
			businessKey: pr.ProductID,
			attrs: []any{
				pr.ProductName, pr.Category, derive.CategoryGroup(pr.Category), pr.Variety,
				pr.UnitOfMeasure, pr.Season, pr.AvgGrowingDays,
				derive.GrowingPeriodCategory(pr.AvgGrowingDays), pr.IsPerishable,
				derive.PerishabilityCategory(pr.IsPerishable),
			},
		})
	}
	return loadVersionedDimension(ctx, p.store, q, productSpec, entities, runDate)
}

// LoadMarketDimension applies SCD Type 2 maintenance to dim_market.
func (p *Pipeline) LoadMarketDimension(ctx context.Context, q Querier, markets []staging.Market, runDate time.Time) (Counts, error) {
	entities := make([]dimensionEntity, 0, len(markets))
	for _, m := range markets {
		entities = append(entities, dimensionEntity{
			businessKey: m.MarketID,
			attrs: []any{
				m.MarketName, m.MarketType, m.District, m.Subcounty, derive.Region(m.District),
				m.GPSLatitude, m.GPSLongitude, m.OperatingDays, m.CapacityKG,
				derive.CapacityCategory(m.CapacityKG), m.IsActive,
			},
		})
	}
	return loadVersionedDimension(ctx, p.store, q, marketSpec, entities, runDate)
}

// LoadBuyerDimension applies SCD Type 2 maintenance to dim_buyer. The seeded
// fallback row keeps the UNKNOWN business key out of versioning.
func (p *Pipeline) LoadBuyerDimension(ctx context.Context, q Querier, buyers []staging.Buyer, runDate time.Time) (Counts, error) {
	entities := make([]dimensionEntity, 0, len(buyers))
	for _, b := range buyers {
		if b.BuyerID == unknownBuyerID {
			continue
		}
		entities = append(entities, dimensionEntity{
			businessKey: b.BuyerID,
			attrs: []any{
				b.BuyerName, b.BuyerType, b.ContactPerson, b.PhoneNumber, b.Email,
				b.District, derive.Region(b.District), b.RegistrationNumber,
				b.BlockchainWallet, b.IsActive,
			},
		})
	}
	return loadVersionedDimension(ctx, p.store, q, buyerSpec, entities, runDate)
}

// LoadLocationDimension inserts any district+subcounty pair observed in
// farmer staging that the static location dimension does not yet carry.
// Locations are reference data, not SCD entities.
func (p *Pipeline) LoadLocationDimension(ctx context.Context, q Querier, farmers []staging.Farmer, runDate time.Time) (Counts, error) {
	var counts Counts

	type pair struct{ district, subcounty string }
	seen := make(map[pair]struct{})
	var pairs []pair
	for _, f := range farmers {
		key := pair{f.District, f.Subcounty}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		pairs = append(pairs, key)
	}
	// Deterministic insert order keeps the per-district minimum key stable.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].district != pairs[j].district {
			return pairs[i].district < pairs[j].district
		}
		return pairs[i].subcounty < pairs[j].subcounty
	})

	nextKey, err := nextSurrogate(ctx, p.store, q, "dim_location", "location_key")
	if err != nil {
		return counts, err
	}

	existsStmt := p.store.rebind(`SELECT location_key FROM dim_location WHERE district = ? AND subcounty = ?`)
	insertStmt := p.store.rebind(`INSERT INTO dim_location (location_key, district, subcounty, region, created_at) VALUES (?, ?, ?, ?, ?)`)

	for _, pr := range pairs {
		counts.Read++
		var existing int64
		err := q.QueryRowContext(ctx, existsStmt, pr.district, pr.subcounty).Scan(&existing)
		if err == nil {
			counts.Skipped++
			continue
		}
		if !errIsNoRows(err) {
			return counts, fmt.Errorf("select dim_location %q/%q: %w", pr.district, pr.subcounty, err)
		}
		if _, err := q.ExecContext(ctx, insertStmt,
			nextKey, pr.district, pr.subcounty, derive.Region(pr.district), fmtTimestamp(runDate)); err != nil {
			return counts, fmt.Errorf("insert dim_location %q/%q: %w", pr.district, pr.subcounty, err)
		}
		nextKey++
		counts.Inserted++
	}

	return counts, nil
}

// Date dimension window: ten years plus a day, 2020-01-01 through 2030-12-31.
var (
	dateDimStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	dateDimEnd   = time.Date(2030, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// LoadDateDimension generates the fixed calendar window once. Dates are
// immutable facts, so a populated table is left untouched.
func (p *Pipeline) LoadDateDimension(ctx context.Context, q Querier) (Counts, error) {
	var counts Counts

	var existing int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM dim_date`).Scan(&existing); err != nil {
		return counts, fmt.Errorf("count dim_date: %w", err)
	}
	if existing > 0 {
		p.log.Debug("dim_date already populated", "rows", existing)
		return counts, nil
	}

	insertStmt := p.store.rebind(`INSERT INTO dim_date (
		date_key, full_date, day_of_week, day_name, day_of_month, day_of_year,
		week_of_year, month, month_name, quarter, quarter_name, year,
		is_weekend, season, fiscal_year, fiscal_quarter, fiscal_month
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for d := dateDimStart; !d.After(dateDimEnd); d = d.AddDate(0, 0, 1) {
		counts.Read++
		_, week := d.ISOWeek()
		quarter := (int(d.Month())-1)/3 + 1
		weekday := int(d.Weekday())
		if _, err := q.ExecContext(ctx, insertStmt,
			derive.DateKey(d), fmtDate(d), weekday, d.Weekday().String(),
			d.Day(), d.YearDay(), week, int(d.Month()), d.Month().String(),
			quarter, fmt.Sprintf("Q%d", quarter), d.Year(),
			weekday == 0 || weekday == 6, derive.Season(d.Month()),
			derive.FiscalYear(d), derive.FiscalQuarter(d), derive.FiscalMonth(d),
		); err != nil {
			return counts, fmt.Errorf("insert dim_date %s: %w", fmtDate(d), err)
		}
		counts.Inserted++
	}

	return counts, nil
}
