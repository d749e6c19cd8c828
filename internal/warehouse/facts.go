package warehouse

import (
	"context"
	"errors"
	"fmt"

	"agrimart/internal/derive"
	"agrimart/internal/staging"
)

// factExists reports whether a fact row with the natural key is already
// loaded. The natural key is the idempotency key: reruns over the same
// staging snapshot insert nothing.
func (p *Pipeline) factExists(ctx context.Context, q Querier, table, keyColumn, naturalKey string) (bool, error) {
	query := p.store.rebind(fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", table, keyColumn))
	var one int
	err := q.QueryRowContext(ctx, query, naturalKey).Scan(&one)
	if errIsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s %q: %w", table, naturalKey, err)
	}
	return true, nil
}

// LoadTransactionFacts joins staged transactions to current dimension keys
// and inserts new rows. Farmer, product, market, payment method and quality
// are structurally required; an unresolvable buyer falls back to the default
// buyer key.
func (p *Pipeline) LoadTransactionFacts(ctx context.Context, q Querier, rows []staging.Transaction) (Counts, error) {
	var counts Counts

	insertStmt := p.store.rebind(`INSERT INTO fact_transaction (
		transaction_id, farmer_key, buyer_key, product_key, market_key, date_key,
		payment_key, quality_key, blockchain_hash, payment_status,
		quantity_kg, unit_price, total_amount, transaction_count, payment_fee, net_amount,
		transaction_timestamp
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, t := range rows {
		counts.Read++
		exists, err := p.factExists(ctx, q, "fact_transaction", "transaction_id", t.TransactionID)
		if err != nil {
			return counts, err
		}
		if exists {
			counts.Skipped++
			continue
		}

		farmerKey, err := p.resolver.Resolve(ctx, q, DimFarmer, t.FarmerID)
		if err != nil {
			return counts, &RowError{Table: "fact_transaction", NaturalKey: t.TransactionID, Err: err}
		}
		productKey, err := p.resolver.Resolve(ctx, q, DimProduct, t.ProductID)
		if err != nil {
			return counts, &RowError{Table: "fact_transaction", NaturalKey: t.TransactionID, Err: err}
		}
		marketKey, err := p.resolver.Resolve(ctx, q, DimMarket, t.MarketID)
		if err != nil {
			return counts, &RowError{Table: "fact_transaction", NaturalKey: t.TransactionID, Err: err}
		}
		paymentKey, feePct, err := p.resolver.ResolvePaymentMethod(ctx, q, t.PaymentMethod)
		if err != nil {
			return counts, &RowError{Table: "fact_transaction", NaturalKey: t.TransactionID, Err: err}
		}
		qualityKey, err := p.resolver.ResolveQuality(ctx, q, t.QualityGrade)
		if err != nil {
			return counts, &RowError{Table: "fact_transaction", NaturalKey: t.TransactionID, Err: err}
		}

		buyerKey, err := p.resolver.Resolve(ctx, q, DimBuyer, t.BuyerID)
		if errors.Is(err, ErrKeyNotFound) {
			// Not every transaction carries a verifiable trading partner.
			buyerKey = DefaultBuyerKey
		} else if err != nil {
			return counts, &RowError{Table: "fact_transaction", NaturalKey: t.TransactionID, Err: err}
		}

		fee := derive.PaymentFee(t.TotalAmount, feePct)
		if _, err := q.ExecContext(ctx, insertStmt,
			t.TransactionID, farmerKey, buyerKey, productKey, marketKey, derive.DateKey(t.TransactionAt),
			paymentKey, qualityKey, t.BlockchainHash, t.PaymentStatus,
			t.QuantityKG, t.UnitPrice, t.TotalAmount, 1, fee, derive.NetAmount(t.TotalAmount, feePct),
			fmtTimestamp(t.TransactionAt),
		); err != nil {
			return counts, fmt.Errorf("insert fact_transaction %q: %w", t.TransactionID, err)
		}
		counts.Inserted++
	}

	return counts, nil
}

// LoadHarvestFacts inserts staged harvests with loss-adjusted quantities and
// the location of the harvesting farmer.
func (p *Pipeline) LoadHarvestFacts(ctx context.Context, q Querier, rows []staging.Harvest) (Counts, error) {
	var counts Counts

	farmerLocStmt := p.store.rebind(`SELECT district, subcounty FROM dim_farmer WHERE farmer_key = ?`)
	insertStmt := p.store.rebind(`INSERT INTO fact_harvest (
		harvest_id, farmer_key, product_key, planting_date_key, harvest_date_key, location_key,
		quantity_kg, quality_assessment, post_harvest_loss_pct, post_harvest_loss_kg,
		net_quantity_kg, growing_days, season
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, h := range rows {
		counts.Read++
		exists, err := p.factExists(ctx, q, "fact_harvest", "harvest_id", h.HarvestID)
		if err != nil {
			return counts, err
		}
		if exists {
			counts.Skipped++
			continue
		}

		farmerKey, err := p.resolver.Resolve(ctx, q, DimFarmer, h.FarmerID)
		if err != nil {
			return counts, &RowError{Table: "fact_harvest", NaturalKey: h.HarvestID, Err: err}
		}
		productKey, err := p.resolver.Resolve(ctx, q, DimProduct, h.ProductID)
		if err != nil {
			return counts, &RowError{Table: "fact_harvest", NaturalKey: h.HarvestID, Err: err}
		}

		var district, subcounty string
		if err := q.QueryRowContext(ctx, farmerLocStmt, farmerKey).Scan(&district, &subcounty); err != nil {
			return counts, fmt.Errorf("farmer %d location: %w", farmerKey, err)
		}
		locationKey, err := p.resolver.ResolveLocationPair(ctx, q, district, subcounty)
		if err != nil {
			return counts, &RowError{Table: "fact_harvest", NaturalKey: h.HarvestID, Err: err}
		}

		growingDays := int(h.HarvestDate.Sub(h.PlantingDate).Hours() / 24)
		if _, err := q.ExecContext(ctx, insertStmt,
			h.HarvestID, farmerKey, productKey,
			derive.DateKey(h.PlantingDate), derive.DateKey(h.HarvestDate), locationKey,
			h.QuantityKG, h.QualityAssessment, h.PostHarvestLossPct,
			derive.LossQuantity(h.QuantityKG, h.PostHarvestLossPct),
			derive.NetQuantity(h.QuantityKG, h.PostHarvestLossPct),
			growingDays, h.Season,
		); err != nil {
			return counts, fmt.Errorf("insert fact_harvest %q: %w", h.HarvestID, err)
		}
		counts.Inserted++
	}

	return counts, nil
}

// LoadPricingFacts inserts staged market prices with spread measures. A zero
// wholesale price leaves the spread percentage undefined and fails the row.
func (p *Pipeline) LoadPricingFacts(ctx context.Context, q Querier, rows []staging.Pricing) (Counts, error) {
	var counts Counts

	insertStmt := p.store.rebind(`INSERT INTO fact_pricing (
		price_id, product_key, market_key, date_key,
		wholesale_price, retail_price, price_spread, price_spread_pct, price_trend, source
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, pr := range rows {
		counts.Read++
		exists, err := p.factExists(ctx, q, "fact_pricing", "price_id", pr.PriceID)
		if err != nil {
			return counts, err
		}
		if exists {
			counts.Skipped++
			continue
		}

		productKey, err := p.resolver.Resolve(ctx, q, DimProduct, pr.ProductID)
		if err != nil {
			return counts, &RowError{Table: "fact_pricing", NaturalKey: pr.PriceID, Err: err}
		}
		marketKey, err := p.resolver.Resolve(ctx, q, DimMarket, pr.MarketID)
		if err != nil {
			return counts, &RowError{Table: "fact_pricing", NaturalKey: pr.PriceID, Err: err}
		}

		spreadPct, err := derive.PriceSpreadPct(pr.WholesalePrice, pr.RetailPrice)
		if err != nil {
			return counts, &RowError{Table: "fact_pricing", NaturalKey: pr.PriceID, Err: err}
		}

		if _, err := q.ExecContext(ctx, insertStmt,
			pr.PriceID, productKey, marketKey, derive.DateKey(pr.PriceDate),
			pr.WholesalePrice, pr.RetailPrice,
			derive.PriceSpread(pr.WholesalePrice, pr.RetailPrice), spreadPct,
			pr.PriceTrend, pr.Source,
		); err != nil {
			return counts, fmt.Errorf("insert fact_pricing %q: %w", pr.PriceID, err)
		}
		counts.Inserted++
	}

	return counts, nil
}

// LoadWeatherFacts inserts staged weather readings keyed to one location per
// district.
func (p *Pipeline) LoadWeatherFacts(ctx context.Context, q Querier, rows []staging.Weather) (Counts, error) {
	var counts Counts

	insertStmt := p.store.rebind(`INSERT INTO fact_weather (
		weather_id, location_key, date_key, weather_date,
		temperature_min, temperature_max, temperature_avg,
		rainfall_mm, humidity_pct, wind_speed_kmh, weather_condition, source
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, w := range rows {
		counts.Read++
		exists, err := p.factExists(ctx, q, "fact_weather", "weather_id", w.WeatherID)
		if err != nil {
			return counts, err
		}
		if exists {
			counts.Skipped++
			continue
		}

		locationKey, err := p.resolver.ResolveLocation(ctx, q, w.District)
		if err != nil {
			return counts, &RowError{Table: "fact_weather", NaturalKey: w.WeatherID, Err: err}
		}

		if _, err := q.ExecContext(ctx, insertStmt,
			w.WeatherID, locationKey, derive.DateKey(w.WeatherDate), fmtDate(w.WeatherDate),
			w.TemperatureMin, w.TemperatureMax, w.TemperatureAvg,
			w.RainfallMM, w.HumidityPct, w.WindSpeedKMH, w.WeatherCondition, w.Source,
		); err != nil {
			return counts, fmt.Errorf("insert fact_weather %q: %w", w.WeatherID, err)
		}
		counts.Inserted++
	}

	return counts, nil
}

// LoadSubsidyFacts inserts staged subsidy disbursements.
func (p *Pipeline) LoadSubsidyFacts(ctx context.Context, q Querier, rows []staging.Subsidy) (Counts, error) {
	var counts Counts

	insertStmt := p.store.rebind(`INSERT INTO fact_subsidy (
		farmer_subsidy_id, farmer_key, date_key,
		program_name, subsidy_type, amount_value, distribution_date, verification_status
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, s := range rows {
		counts.Read++
		exists, err := p.factExists(ctx, q, "fact_subsidy", "farmer_subsidy_id", s.FarmerSubsidyID)
		if err != nil {
			return counts, err
		}
		if exists {
			counts.Skipped++
			continue
		}

		farmerKey, err := p.resolver.Resolve(ctx, q, DimFarmer, s.FarmerID)
		if err != nil {
			return counts, &RowError{Table: "fact_subsidy", NaturalKey: s.FarmerSubsidyID, Err: err}
		}

		if _, err := q.ExecContext(ctx, insertStmt,
			s.FarmerSubsidyID, farmerKey, derive.DateKey(s.DistributionDate),
			s.ProgramName, s.SubsidyType, s.AmountValue, fmtDate(s.DistributionDate), s.VerificationStatus,
		); err != nil {
			return counts, fmt.Errorf("insert fact_subsidy %q: %w", s.FarmerSubsidyID, err)
		}
		counts.Inserted++
	}

	return counts, nil
}
