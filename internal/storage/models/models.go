package models

import (
	"encoding/json"
	"time"
)

type User struct {
	ID          int64     `json:"id"`
	Name        *string   `json:"name"`
	Email       string    `json:"email"`
	Image       *string   `json:"image"`
	CompanyName *string   `json:"company_name"`
	Industry    *string   `json:"industry"`
	Country     *string   `json:"country"`
	Phone       *string   `json:"phone"`
	Address     *string   `json:"address"`
	Website     *string   `json:"website"`
	CreatedAt   time.Time `json:"created_at"`
}

type Company struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	CompanyName   string    `json:"company_name"`
	Industry      *string   `json:"industry"`
	Country       *string   `json:"country"`
	EmployeeCount *string   `json:"employee_count"`
	AnnualRevenue *float64  `json:"annual_revenue"`
	Website       *string   `json:"website"`
	Description   *string   `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

type Product struct {
	ID             int64     `json:"id"`
	CompanyID      int64     `json:"company_id"`
	ProductName    string    `json:"product_name"`
	HSCode         *string   `json:"hs_code"`
	Category       *string   `json:"category"`
	Material       *string   `json:"material"`
	TechnicalSpecs *string   `json:"technical_specs"`
	UnitPrice      *float64  `json:"unit_price"`
	Currency       *string   `json:"currency"`
	Description    *string   `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

type TargetMarket struct {
	ID               int64     `json:"id"`
	ProductID        int64     `json:"product_id"`
	Country          string    `json:"country"`
	MarketPotential  *string   `json:"market_potential"`
	ImportVolume     *float64  `json:"import_volume"`
	AveragePrice     *float64  `json:"average_price"`
	GrowthRate       *float64  `json:"growth_rate"`
	CompetitionLevel *string   `json:"competition_level"`
	CreatedAt        time.Time `json:"created_at"`
}

type Campaign struct {
	ID              int64     `json:"id"`
	CompanyID       *int64    `json:"company_id"`
	CampaignName    string    `json:"campaign_name"`
	TargetCountry   *string   `json:"target_country"`
	EmailTemplate   *string   `json:"email_template"`
	Status          string    `json:"status"`
	TotalRecipients int       `json:"total_recipients"`
	EmailsSent      int       `json:"emails_sent"`
	OpenRate        float64   `json:"open_rate"`
	ResponseRate    float64   `json:"response_rate"`
	ConversionRate  float64   `json:"conversion_rate"`
	CreatedAt       time.Time `json:"created_at"`
}

type PotentialBuyer struct {
	ID              int64     `json:"id"`
	CompanyID       int64     `json:"company_id"`
	BuyerName       string    `json:"buyer_name"`
	BuyerCountry    *string   `json:"buyer_country"`
	IndustrySegment *string   `json:"industry_segment"`
	CompanySize     *string   `json:"company_size"`
	ImportFrequency *string   `json:"import_frequency"`
	LastImportDate  *string   `json:"last_import_date"`
	MatchScore      *float64  `json:"match_score"`
	ContactEmail    *string   `json:"contact_email"`
	ContactPhone    *string   `json:"contact_phone"`
	Website         *string   `json:"website"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
}

type MarketReport struct {
	ID               int64     `json:"id"`
	CompanyID        int64     `json:"company_id"`
	ReportTitle      string    `json:"report_title"`
	ReportType       *string   `json:"report_type"`
	Country          *string   `json:"country"`
	ProductCategory  *string   `json:"product_category"`
	TotalImports     *float64  `json:"total_imports"`
	TotalExports     *float64  `json:"total_exports"`
	AverageUnitPrice *float64  `json:"average_unit_price"`
	TrendDirection   *string   `json:"trend_direction"`
	KeyCompetitors   []string  `json:"key_competitors"`
	Recommendations  []string  `json:"recommendations"`
	CreatedAt        time.Time `json:"created_at"`
}

// TradeData rows are reference statistics used as prompt context by the
// analysis generators. They are loaded out of band, never via the API.
type TradeData struct {
	ID              int64   `json:"id"`
	Country         string  `json:"country"`
	ProductCategory string  `json:"product_category"`
	HSCode          string  `json:"hs_code"`
	Year            int     `json:"year"`
	ImportValue     float64 `json:"import_value"`
	ExportValue     float64 `json:"export_value"`
	GrowthRate      float64 `json:"growth_rate"`
}

type ProductMatch struct {
	ID                   int64     `json:"id"`
	CompanyID            int64     `json:"company_id"`
	ProductID            int64     `json:"product_id"`
	TargetMarket         string    `json:"target_market"`
	MatchScore           float64   `json:"match_score"`
	MarketSize           string    `json:"market_size"`
	CompetitionLevel     string    `json:"competition_level"`
	EntryBarriers        string    `json:"entry_barriers"`
	GrowthPotential      string    `json:"growth_potential"`
	CulturalFit          float64   `json:"cultural_fit"`
	RegulatoryComplexity string    `json:"regulatory_complexity"`
	KeyAdvantages        []string  `json:"key_advantages"`
	RiskFactors          []string  `json:"risk_factors"`
	Recommendations      []string  `json:"recommendations"`
	DataSources          string    `json:"data_sources"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Joined product columns, populated on reads only.
	ProductName *string `json:"product_name,omitempty"`
	HSCode      *string `json:"hs_code,omitempty"`
	Category    *string `json:"category,omitempty"`
}

type RiskAssessment struct {
	ID                   int64     `json:"id"`
	CompanyID            int64     `json:"company_id"`
	TargetMarket         string    `json:"target_market"`
	ProductCategory      string    `json:"product_category"`
	RiskType             string    `json:"risk_type"`
	OverallRiskScore     float64   `json:"overall_risk_score"`
	PoliticalRisk        float64   `json:"political_risk"`
	EconomicRisk         float64   `json:"economic_risk"`
	RegulatoryRisk       float64   `json:"regulatory_risk"`
	CurrencyRisk         float64   `json:"currency_risk"`
	MarketRisk           float64   `json:"market_risk"`
	OperationalRisk      float64   `json:"operational_risk"`
	RiskFactors          []string  `json:"risk_factors"`
	MitigationStrategies []string  `json:"mitigation_strategies"`
	Recommendations      []string  `json:"recommendations"`
	ConfidenceScore      float64   `json:"confidence_score"`
	DataSources          string    `json:"data_sources"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type TrendDetection struct {
	ID               int64     `json:"id"`
	CompanyID        int64     `json:"company_id"`
	TrendType        string    `json:"trend_type"`
	Timeframe        string    `json:"timeframe"`
	MarketScope      string    `json:"market_scope"`
	TrendStrength    float64   `json:"trend_strength"`
	GrowthRate       float64   `json:"growth_rate"`
	ConfidenceScore  float64   `json:"confidence_score"`
	TrendDescription string    `json:"trend_description"`
	KeyIndicators    []string  `json:"key_indicators"`
	ImpactAssessment string    `json:"impact_assessment"`
	Opportunities    []string  `json:"opportunities"`
	Recommendations  []string  `json:"recommendations"`
	DataSources      string    `json:"data_sources"`
	CreatedAt        time.Time `json:"created_at"`
}

type AIPrediction struct {
	ID              int64           `json:"id"`
	CompanyID       int64           `json:"company_id"`
	PredictionType  string          `json:"prediction_type"`
	TargetMarket    *string         `json:"target_market"`
	ProductCategory *string         `json:"product_category"`
	HSCode          *string         `json:"hs_code"`
	Period          string          `json:"period"`
	ConfidenceScore float64         `json:"confidence_score"`
	PredictionData  json.RawMessage `json:"prediction_data"`
	KeyInsights     []string        `json:"key_insights"`
	Recommendations []string        `json:"recommendations"`
	DataSources     string          `json:"data_sources"`
	CreatedAt       time.Time       `json:"created_at"`
}

type PriceOptimization struct {
	ID                   int64     `json:"id"`
	CompanyID            int64     `json:"company_id"`
	ProductID            int64     `json:"product_id"`
	TargetMarket         string    `json:"target_market"`
	CurrentPrice         float64   `json:"current_price"`
	OptimalPrice         float64   `json:"optimal_price"`
	PriceRangeMin        float64   `json:"price_range_min"`
	PriceRangeMax        float64   `json:"price_range_max"`
	ProfitMargin         float64   `json:"profit_margin"`
	CompetitivenessScore float64   `json:"competitiveness_score"`
	MarketPositioning    string    `json:"market_positioning"`
	PricingStrategy      string    `json:"pricing_strategy"`
	KeyFactors           []string  `json:"key_factors"`
	Risks                []string  `json:"risks"`
	Recommendations      []string  `json:"recommendations"`
	ConfidenceScore      float64   `json:"confidence_score"`
	DataSources          string    `json:"data_sources"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Joined product columns, populated on reads only.
	ProductName *string `json:"product_name,omitempty"`
	HSCode      *string `json:"hs_code,omitempty"`
	Category    *string `json:"category,omitempty"`
}

type Notification struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}
