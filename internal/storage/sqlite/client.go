package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/exportai/backend/pkg/errs"
	"github.com/exportai/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	if dbPath == "" {
		return nil, errs.ErrConnection
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping() error {
	return c.db.Ping()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		email TEXT UNIQUE NOT NULL,
		image TEXT,
		company_name TEXT,
		industry TEXT,
		country TEXT,
		phone TEXT,
		address TEXT,
		website TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		type TEXT NOT NULL DEFAULT 'credentials',
		password TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_user ON auth_accounts(user_id);

	CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		company_name TEXT NOT NULL,
		industry TEXT,
		country TEXT,
		employee_count TEXT,
		annual_revenue REAL,
		website TEXT,
		description TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_companies_user ON companies(user_id);

	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		product_name TEXT NOT NULL,
		hs_code TEXT,
		category TEXT,
		material TEXT,
		technical_specs TEXT,
		unit_price REAL,
		currency TEXT,
		description TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_products_company ON products(company_id);

	CREATE TABLE IF NOT EXISTS target_markets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		country TEXT NOT NULL,
		market_potential TEXT,
		import_volume REAL,
		average_price REAL,
		growth_rate REAL,
		competition_level TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_markets_product ON target_markets(product_id);

	CREATE TABLE IF NOT EXISTS campaigns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER,
		campaign_name TEXT NOT NULL,
		target_country TEXT,
		email_template TEXT,
		status TEXT NOT NULL DEFAULT 'Draft',
		total_recipients INTEGER NOT NULL DEFAULT 0,
		emails_sent INTEGER NOT NULL DEFAULT 0,
		open_rate REAL NOT NULL DEFAULT 0,
		response_rate REAL NOT NULL DEFAULT 0,
		conversion_rate REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_campaigns_company ON campaigns(company_id);

	CREATE TABLE IF NOT EXISTS potential_buyers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		buyer_name TEXT NOT NULL,
		buyer_country TEXT,
		industry_segment TEXT,
		company_size TEXT,
		import_frequency TEXT,
		last_import_date TEXT,
		match_score REAL,
		contact_email TEXT,
		contact_phone TEXT,
		website TEXT,
		notes TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_buyers_company ON potential_buyers(company_id);
	CREATE INDEX IF NOT EXISTS idx_buyers_score ON potential_buyers(match_score);

	CREATE TABLE IF NOT EXISTS market_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		report_title TEXT NOT NULL,
		report_type TEXT,
		country TEXT,
		product_category TEXT,
		total_imports REAL,
		total_exports REAL,
		average_unit_price REAL,
		trend_direction TEXT,
		key_competitors TEXT,
		recommendations TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_reports_company ON market_reports(company_id);

	CREATE TABLE IF NOT EXISTS trade_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		country TEXT NOT NULL,
		product_category TEXT,
		hs_code TEXT,
		year INTEGER NOT NULL,
		import_value REAL NOT NULL DEFAULT 0,
		export_value REAL NOT NULL DEFAULT 0,
		growth_rate REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_trade_hs ON trade_data(hs_code);
	CREATE INDEX IF NOT EXISTS idx_trade_year ON trade_data(year);

	CREATE TABLE IF NOT EXISTS product_matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		target_market TEXT NOT NULL,
		match_score REAL NOT NULL,
		market_size TEXT,
		competition_level TEXT,
		entry_barriers TEXT,
		growth_potential TEXT,
		cultural_fit REAL NOT NULL DEFAULT 0,
		regulatory_complexity TEXT,
		key_advantages TEXT,
		risk_factors TEXT,
		recommendations TEXT,
		data_sources TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
		UNIQUE (company_id, product_id, target_market)
	);
	CREATE INDEX IF NOT EXISTS idx_matches_company ON product_matches(company_id);
	CREATE INDEX IF NOT EXISTS idx_matches_score ON product_matches(match_score);

	CREATE TABLE IF NOT EXISTS risk_assessments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		target_market TEXT NOT NULL,
		product_category TEXT NOT NULL,
		risk_type TEXT,
		overall_risk_score REAL NOT NULL,
		political_risk REAL NOT NULL DEFAULT 0,
		economic_risk REAL NOT NULL DEFAULT 0,
		regulatory_risk REAL NOT NULL DEFAULT 0,
		currency_risk REAL NOT NULL DEFAULT 0,
		market_risk REAL NOT NULL DEFAULT 0,
		operational_risk REAL NOT NULL DEFAULT 0,
		risk_factors TEXT,
		mitigation_strategies TEXT,
		recommendations TEXT,
		confidence_score REAL NOT NULL DEFAULT 0,
		data_sources TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE,
		UNIQUE (company_id, target_market, product_category)
	);
	CREATE INDEX IF NOT EXISTS idx_risks_company ON risk_assessments(company_id);

	CREATE TABLE IF NOT EXISTS trend_detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		trend_type TEXT NOT NULL,
		timeframe TEXT,
		market_scope TEXT,
		trend_strength REAL NOT NULL DEFAULT 0,
		growth_rate REAL NOT NULL DEFAULT 0,
		confidence_score REAL NOT NULL DEFAULT 0,
		trend_description TEXT,
		key_indicators TEXT,
		impact_assessment TEXT,
		opportunities TEXT,
		recommendations TEXT,
		data_sources TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_trends_company ON trend_detections(company_id);

	CREATE TABLE IF NOT EXISTS ai_predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		prediction_type TEXT NOT NULL,
		target_market TEXT,
		product_category TEXT,
		hs_code TEXT,
		period TEXT NOT NULL,
		confidence_score REAL NOT NULL DEFAULT 0,
		prediction_data TEXT,
		key_insights TEXT,
		recommendations TEXT,
		data_sources TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_company ON ai_predictions(company_id);

	CREATE TABLE IF NOT EXISTS price_optimizations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		target_market TEXT NOT NULL,
		current_price REAL NOT NULL DEFAULT 0,
		optimal_price REAL NOT NULL DEFAULT 0,
		price_range_min REAL NOT NULL DEFAULT 0,
		price_range_max REAL NOT NULL DEFAULT 0,
		profit_margin REAL NOT NULL DEFAULT 0,
		competitiveness_score REAL NOT NULL DEFAULT 0,
		market_positioning TEXT,
		pricing_strategy TEXT,
		key_factors TEXT,
		risks TEXT,
		recommendations TEXT,
		confidence_score REAL NOT NULL DEFAULT 0,
		data_sources TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
		UNIQUE (company_id, product_id, target_market)
	);
	CREATE INDEX IF NOT EXISTS idx_priceopts_company ON price_optimizations(company_id);

	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		data TEXT,
		read INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
	CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(user_id, read);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// IsUniqueViolation reports whether err is a unique-constraint failure
// surfaced by the driver.
func IsUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsForeignKeyViolation reports whether err is a foreign-key failure.
func IsForeignKeyViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// marshalList serializes an array-valued analytic field for storage in a
// TEXT column.
func marshalList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return string(data)
}

func unmarshalList(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(raw.String), &items); err != nil {
		return []string{}
	}
	return items
}

func fromUnix(ts int64) time.Time {
	return time.Unix(ts, 0)
}
