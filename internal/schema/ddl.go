package schema

// All date and timestamp columns are stored as ISO-8601 TEXT so that the same
// bundle loads on PostgreSQL and SQLite. Surrogate keys are assigned by the
// loaders, not by the database, so no identity columns are declared.
const ddlTemplate = `
-- staging tables (truncate-and-reload, owned by the external bulk loader)

CREATE TABLE IF NOT EXISTS stg_farmers (
    farmer_id TEXT NOT NULL,
    national_id TEXT,
    first_name TEXT,
    last_name TEXT,
    gender TEXT,
    date_of_birth TEXT,
    phone_number TEXT,
    district TEXT,
    subcounty TEXT,
    village TEXT,
    gps_latitude {FLOAT},
    gps_longitude {FLOAT},
    farm_size_acres {FLOAT},
    primary_crop TEXT,
    cooperative_id TEXT,
    blockchain_wallet TEXT,
    registration_date TEXT,
    is_active BOOLEAN
);

CREATE TABLE IF NOT EXISTS stg_products (
    product_id TEXT NOT NULL,
    product_name TEXT,
    category TEXT,
    variety TEXT,
    unit_of_measure TEXT,
    season TEXT,
    avg_growing_days INTEGER,
    is_perishable BOOLEAN
);

CREATE TABLE IF NOT EXISTS stg_markets (
    market_id TEXT NOT NULL,
    market_name TEXT,
    market_type TEXT,
    district TEXT,
    subcounty TEXT,
    gps_latitude {FLOAT},
    gps_longitude {FLOAT},
    operating_days TEXT,
    capacity_kg {FLOAT},
    is_active BOOLEAN
);

CREATE TABLE IF NOT EXISTS stg_buyers (
    buyer_id TEXT NOT NULL,
    buyer_name TEXT,
    buyer_type TEXT,
    contact_person TEXT,
    phone_number TEXT,
    email TEXT,
    district TEXT,
    registration_number TEXT,
    blockchain_wallet TEXT,
    is_active BOOLEAN
);

CREATE TABLE IF NOT EXISTS stg_transactions (
    transaction_id TEXT NOT NULL,
    farmer_id TEXT,
    buyer_id TEXT,
    product_id TEXT,
    market_id TEXT,
    quantity_kg {FLOAT},
    quality_grade TEXT,
    unit_price {FLOAT},
    total_amount {FLOAT},
    transaction_date TEXT,
    payment_method TEXT,
    payment_status TEXT,
    blockchain_hash TEXT
);

CREATE TABLE IF NOT EXISTS stg_harvests (
    harvest_id TEXT NOT NULL,
    farmer_id TEXT,
    product_id TEXT,
    planting_date TEXT,
    harvest_date TEXT,
    quantity_kg {FLOAT},
    quality_assessment TEXT,
    post_harvest_loss_pct {FLOAT},
    storage_method TEXT,
    season TEXT
);

CREATE TABLE IF NOT EXISTS stg_pricing (
    price_id TEXT NOT NULL,
    product_id TEXT,
    market_id TEXT,
    price_date TEXT,
    wholesale_price {FLOAT},
    retail_price {FLOAT},
    price_trend TEXT,
    source TEXT
);

CREATE TABLE IF NOT EXISTS stg_weather (
    weather_id TEXT NOT NULL,
    district TEXT,
    weather_date TEXT,
    temperature_min {FLOAT},
    temperature_max {FLOAT},
    temperature_avg {FLOAT},
    rainfall_mm {FLOAT},
    humidity_pct {FLOAT},
    wind_speed_kmh {FLOAT},
    weather_condition TEXT,
    source TEXT
);

CREATE TABLE IF NOT EXISTS stg_subsidies (
    farmer_subsidy_id TEXT NOT NULL,
    farmer_id TEXT,
    subsidy_id TEXT,
    program_name TEXT,
    subsidy_type TEXT,
    amount_value {FLOAT},
    distribution_date TEXT,
    verification_status TEXT
);

-- dimension tables

CREATE TABLE IF NOT EXISTS dim_farmer (
    farmer_key BIGINT PRIMARY KEY,
    farmer_id TEXT NOT NULL,
    national_id TEXT,
    first_name TEXT,
    last_name TEXT,
    full_name TEXT,
    gender TEXT,
    date_of_birth TEXT,
    age_group TEXT,
    phone_number TEXT,
    district TEXT,
    subcounty TEXT,
    village TEXT,
    region TEXT,
    gps_latitude {FLOAT},
    gps_longitude {FLOAT},
    farm_size_acres {FLOAT},
    farm_size_category TEXT,
    primary_crop TEXT,
    cooperative_id TEXT,
    blockchain_wallet TEXT,
    registration_date TEXT,
    effective_date TEXT NOT NULL,
    expiration_date TEXT,
    is_current BOOLEAN NOT NULL,
    version INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dim_farmer_current ON dim_farmer (farmer_id, is_current);

CREATE TABLE IF NOT EXISTS dim_product (
    product_key BIGINT PRIMARY KEY,
    product_id TEXT NOT NULL,
    product_name TEXT,
    category TEXT,
    category_group TEXT,
    variety TEXT,
    unit_of_measure TEXT,
    season TEXT,
    avg_growing_days INTEGER,
    growing_period_category TEXT,
    is_perishable BOOLEAN,
    perishability_category TEXT,
    effective_date TEXT NOT NULL,
    expiration_date TEXT,
    is_current BOOLEAN NOT NULL,
    version INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dim_product_current ON dim_product (product_id, is_current);

CREATE TABLE IF NOT EXISTS dim_market (
    market_key BIGINT PRIMARY KEY,
    market_id TEXT NOT NULL,
    market_name TEXT,
    market_type TEXT,
    district TEXT,
    subcounty TEXT,
    region TEXT,
    gps_latitude {FLOAT},
    gps_longitude {FLOAT},
    operating_days TEXT,
    capacity_kg {FLOAT},
    capacity_category TEXT,
    is_active BOOLEAN,
    effective_date TEXT NOT NULL,
    expiration_date TEXT,
    is_current BOOLEAN NOT NULL,
    version INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dim_market_current ON dim_market (market_id, is_current);

CREATE TABLE IF NOT EXISTS dim_buyer (
    buyer_key BIGINT PRIMARY KEY,
    buyer_id TEXT NOT NULL,
    buyer_name TEXT,
    buyer_type TEXT,
    contact_person TEXT,
    phone_number TEXT,
    email TEXT,
    district TEXT,
    region TEXT,
    registration_number TEXT,
    blockchain_wallet TEXT,
    is_active BOOLEAN,
    effective_date TEXT NOT NULL,
    expiration_date TEXT,
    is_current BOOLEAN NOT NULL,
    version INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dim_buyer_current ON dim_buyer (buyer_id, is_current);

CREATE TABLE IF NOT EXISTS dim_location (
    location_key BIGINT PRIMARY KEY,
    district TEXT NOT NULL,
    subcounty TEXT NOT NULL,
    region TEXT,
    created_at TEXT,
    UNIQUE (district, subcounty)
);

CREATE TABLE IF NOT EXISTS dim_date (
    date_key INTEGER PRIMARY KEY,
    full_date TEXT NOT NULL,
    day_of_week INTEGER,
    day_name TEXT,
    day_of_month INTEGER,
    day_of_year INTEGER,
    week_of_year INTEGER,
    month INTEGER,
    month_name TEXT,
    quarter INTEGER,
    quarter_name TEXT,
    year INTEGER,
    is_weekend BOOLEAN,
    season TEXT,
    fiscal_year INTEGER,
    fiscal_quarter INTEGER,
    fiscal_month INTEGER
);

CREATE TABLE IF NOT EXISTS dim_payment_method (
    payment_key BIGINT PRIMARY KEY,
    payment_method TEXT NOT NULL UNIQUE,
    is_digital BOOLEAN,
    transaction_fee_pct {FLOAT}
);

CREATE TABLE IF NOT EXISTS dim_quality (
    quality_key BIGINT PRIMARY KEY,
    quality_grade TEXT NOT NULL UNIQUE,
    quality_description TEXT,
    price_multiplier {FLOAT}
);

-- fact tables (natural business key doubles as the idempotency key)

CREATE TABLE IF NOT EXISTS fact_transaction (
    transaction_id TEXT PRIMARY KEY,
    farmer_key BIGINT NOT NULL,
    buyer_key BIGINT NOT NULL,
    product_key BIGINT NOT NULL,
    market_key BIGINT NOT NULL,
    date_key INTEGER NOT NULL,
    payment_key BIGINT NOT NULL,
    quality_key BIGINT NOT NULL,
    blockchain_hash TEXT,
    payment_status TEXT,
    quantity_kg {FLOAT},
    unit_price {FLOAT},
    total_amount {FLOAT},
    transaction_count INTEGER,
    payment_fee {FLOAT},
    net_amount {FLOAT},
    transaction_timestamp TEXT
);

CREATE TABLE IF NOT EXISTS fact_harvest (
    harvest_id TEXT PRIMARY KEY,
    farmer_key BIGINT NOT NULL,
    product_key BIGINT NOT NULL,
    planting_date_key INTEGER,
    harvest_date_key INTEGER,
    location_key BIGINT,
    quantity_kg {FLOAT},
    quality_assessment TEXT,
    post_harvest_loss_pct {FLOAT},
    post_harvest_loss_kg {FLOAT},
    net_quantity_kg {FLOAT},
    growing_days INTEGER,
    season TEXT
);

CREATE TABLE IF NOT EXISTS fact_pricing (
    price_id TEXT PRIMARY KEY,
    product_key BIGINT NOT NULL,
    market_key BIGINT NOT NULL,
    date_key INTEGER NOT NULL,
    wholesale_price {FLOAT},
    retail_price {FLOAT},
    price_spread {FLOAT},
    price_spread_pct {FLOAT},
    price_trend TEXT,
    source TEXT
);

CREATE TABLE IF NOT EXISTS fact_weather (
    weather_id TEXT PRIMARY KEY,
    location_key BIGINT NOT NULL,
    date_key INTEGER NOT NULL,
    weather_date TEXT,
    temperature_min {FLOAT},
    temperature_max {FLOAT},
    temperature_avg {FLOAT},
    rainfall_mm {FLOAT},
    humidity_pct {FLOAT},
    wind_speed_kmh {FLOAT},
    weather_condition TEXT,
    source TEXT
);

CREATE TABLE IF NOT EXISTS fact_subsidy (
    farmer_subsidy_id TEXT PRIMARY KEY,
    farmer_key BIGINT NOT NULL,
    date_key INTEGER NOT NULL,
    program_name TEXT,
    subsidy_type TEXT,
    amount_value {FLOAT},
    distribution_date TEXT,
    verification_status TEXT
);

-- execution audit

CREATE TABLE IF NOT EXISTS etl_execution_log (
    execution_id BIGINT PRIMARY KEY,
    job_name TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT,
    status TEXT NOT NULL,
    rows_read BIGINT NOT NULL DEFAULT 0,
    rows_inserted BIGINT NOT NULL DEFAULT 0,
    rows_updated BIGINT NOT NULL DEFAULT 0,
    error_message TEXT
);
`

// Seed rows for the static dimensions. All inserts are idempotent so the
// bundle can be re-applied on every open. The buyer row with surrogate key 1
// is the fallback for transactions without a resolvable trading partner.
const seedStatements = `
INSERT INTO dim_buyer (
    buyer_key, buyer_id, buyer_name, buyer_type, contact_person, phone_number,
    email, district, region, registration_number, blockchain_wallet, is_active,
    effective_date, expiration_date, is_current, version
) VALUES (
    1, 'UNKNOWN', 'Unknown Buyer', 'Unknown', NULL, NULL,
    NULL, NULL, NULL, NULL, NULL, TRUE,
    '2020-01-01', NULL, TRUE, 1
) ON CONFLICT (buyer_key) DO NOTHING;

INSERT INTO dim_payment_method (payment_key, payment_method, is_digital, transaction_fee_pct)
VALUES (1, 'Mobile Money', TRUE, 1.5) ON CONFLICT (payment_method) DO NOTHING;
INSERT INTO dim_payment_method (payment_key, payment_method, is_digital, transaction_fee_pct)
VALUES (2, 'Cash', FALSE, 0) ON CONFLICT (payment_method) DO NOTHING;
INSERT INTO dim_payment_method (payment_key, payment_method, is_digital, transaction_fee_pct)
VALUES (3, 'Bank Transfer', TRUE, 1.0) ON CONFLICT (payment_method) DO NOTHING;
INSERT INTO dim_payment_method (payment_key, payment_method, is_digital, transaction_fee_pct)
VALUES (4, 'Cooperative Account', TRUE, 0.5) ON CONFLICT (payment_method) DO NOTHING;

INSERT INTO dim_quality (quality_key, quality_grade, quality_description, price_multiplier)
VALUES (1, 'A', 'Premium grade', 1.2) ON CONFLICT (quality_grade) DO NOTHING;
INSERT INTO dim_quality (quality_key, quality_grade, quality_description, price_multiplier)
VALUES (2, 'B', 'Standard grade', 1.0) ON CONFLICT (quality_grade) DO NOTHING;
INSERT INTO dim_quality (quality_key, quality_grade, quality_description, price_multiplier)
VALUES (3, 'C', 'Fair grade', 0.8) ON CONFLICT (quality_grade) DO NOTHING;
`
