package sqlite

import (
	"database/sql"
	"time"

	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/pkg/errs"
)

func (c *Client) InsertTradeData(td *models.TradeData) error {
	res, err := c.db.Exec(`
		INSERT INTO trade_data (
			country, product_category, hs_code, year, import_value,
			export_value, growth_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		td.Country, td.ProductCategory, td.HSCode, td.Year,
		td.ImportValue, td.ExportValue, td.GrowthRate,
	)
	if err != nil {
		return errs.Query("insert trade data", err)
	}

	td.ID, _ = res.LastInsertId()
	return nil
}

// ListTradeDataByHSCode returns the most recent statistics for a product
// code, bounded by limit.
func (c *Client) ListTradeDataByHSCode(hsCode string, limit int) ([]models.TradeData, error) {
	rows, err := c.db.Query(`
		SELECT id, country, product_category, hs_code, year, import_value,
		       export_value, growth_rate
		FROM trade_data
		WHERE hs_code = ?
		ORDER BY year DESC
		LIMIT ?`,
		hsCode, limit,
	)
	if err != nil {
		return nil, errs.Query("list trade data", err)
	}
	defer rows.Close()

	return scanTradeData(rows)
}

func (c *Client) ListTradeDataForMarket(hsCode, country string, limit int) ([]models.TradeData, error) {
	rows, err := c.db.Query(`
		SELECT id, country, product_category, hs_code, year, import_value,
		       export_value, growth_rate
		FROM trade_data
		WHERE hs_code = ? AND country = ?
		ORDER BY year DESC
		LIMIT ?`,
		hsCode, country, limit,
	)
	if err != nil {
		return nil, errs.Query("list trade data", err)
	}
	defer rows.Close()

	return scanTradeData(rows)
}

func (c *Client) ListTradeData(limit int) ([]models.TradeData, error) {
	rows, err := c.db.Query(`
		SELECT id, country, product_category, hs_code, year, import_value,
		       export_value, growth_rate
		FROM trade_data
		ORDER BY year DESC, country
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errs.Query("list trade data", err)
	}
	defer rows.Close()

	return scanTradeData(rows)
}

func scanTradeData(rows *sql.Rows) ([]models.TradeData, error) {
	data := []models.TradeData{}
	for rows.Next() {
		var td models.TradeData
		err := rows.Scan(
			&td.ID, &td.Country, &td.ProductCategory, &td.HSCode, &td.Year,
			&td.ImportValue, &td.ExportValue, &td.GrowthRate,
		)
		if err != nil {
			return nil, errs.Query("scan trade data", err)
		}
		data = append(data, td)
	}
	return data, rows.Err()
}

// UpsertProductMatch inserts or updates in place on the
// (company_id, product_id, target_market) key. The store's native conflict
// resolution keeps re-analysis idempotent.
func (c *Client) UpsertProductMatch(match *models.ProductMatch) error {
	now := time.Now()

	_, err := c.db.Exec(`
		INSERT INTO product_matches (
			company_id, product_id, target_market, match_score, market_size,
			competition_level, entry_barriers, growth_potential, cultural_fit,
			regulatory_complexity, key_advantages, risk_factors,
			recommendations, data_sources, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, product_id, target_market) DO UPDATE SET
			match_score = excluded.match_score,
			market_size = excluded.market_size,
			competition_level = excluded.competition_level,
			entry_barriers = excluded.entry_barriers,
			growth_potential = excluded.growth_potential,
			cultural_fit = excluded.cultural_fit,
			regulatory_complexity = excluded.regulatory_complexity,
			key_advantages = excluded.key_advantages,
			risk_factors = excluded.risk_factors,
			recommendations = excluded.recommendations,
			data_sources = excluded.data_sources,
			updated_at = excluded.updated_at`,
		match.CompanyID,
		match.ProductID,
		match.TargetMarket,
		match.MatchScore,
		match.MarketSize,
		match.CompetitionLevel,
		match.EntryBarriers,
		match.GrowthPotential,
		match.CulturalFit,
		match.RegulatoryComplexity,
		marshalList(match.KeyAdvantages),
		marshalList(match.RiskFactors),
		marshalList(match.Recommendations),
		match.DataSources,
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		return errs.Query("upsert product match", err)
	}

	// Re-read by natural key so the caller sees the surviving row id and
	// original created_at after an update-in-place.
	var createdAt, updatedAt int64
	err = c.db.QueryRow(`
		SELECT id, created_at, updated_at FROM product_matches
		WHERE company_id = ? AND product_id = ? AND target_market = ?`,
		match.CompanyID, match.ProductID, match.TargetMarket,
	).Scan(&match.ID, &createdAt, &updatedAt)
	if err != nil {
		return errs.Query("reload product match", err)
	}

	match.CreatedAt = fromUnix(createdAt)
	match.UpdatedAt = fromUnix(updatedAt)
	return nil
}

func (c *Client) ListProductMatches(companyID int64, productID *int64, minScore float64) ([]models.ProductMatch, error) {
	query := `
		SELECT pm.id, pm.company_id, pm.product_id, pm.target_market,
		       pm.match_score, pm.market_size, pm.competition_level,
		       pm.entry_barriers, pm.growth_potential, pm.cultural_fit,
		       pm.regulatory_complexity, pm.key_advantages, pm.risk_factors,
		       pm.recommendations, pm.data_sources, pm.created_at,
		       pm.updated_at, p.product_name, p.hs_code, p.category
		FROM product_matches pm
		JOIN products p ON pm.product_id = p.id
		WHERE pm.company_id = ? AND pm.match_score >= ?`
	args := []interface{}{companyID, minScore}

	if productID != nil {
		query += " AND pm.product_id = ?"
		args = append(args, *productID)
	}
	query += " ORDER BY pm.match_score DESC, pm.created_at DESC, pm.id DESC"

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, errs.Query("list product matches", err)
	}
	defer rows.Close()

	matches := []models.ProductMatch{}
	for rows.Next() {
		var m models.ProductMatch
		var createdAt, updatedAt int64
		var advantages, riskFactors, recommendations sql.NullString

		err := rows.Scan(
			&m.ID, &m.CompanyID, &m.ProductID, &m.TargetMarket, &m.MatchScore,
			&m.MarketSize, &m.CompetitionLevel, &m.EntryBarriers,
			&m.GrowthPotential, &m.CulturalFit, &m.RegulatoryComplexity,
			&advantages, &riskFactors, &recommendations, &m.DataSources,
			&createdAt, &updatedAt, &m.ProductName, &m.HSCode, &m.Category,
		)
		if err != nil {
			return nil, errs.Query("scan product match", err)
		}

		m.KeyAdvantages = unmarshalList(advantages)
		m.RiskFactors = unmarshalList(riskFactors)
		m.Recommendations = unmarshalList(recommendations)
		m.CreatedAt = fromUnix(createdAt)
		m.UpdatedAt = fromUnix(updatedAt)
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// UpsertRiskAssessment inserts or updates in place on the
// (company_id, target_market, product_category) key.
func (c *Client) UpsertRiskAssessment(ra *models.RiskAssessment) error {
	now := time.Now()

	_, err := c.db.Exec(`
		INSERT INTO risk_assessments (
			company_id, target_market, product_category, risk_type,
			overall_risk_score, political_risk, economic_risk, regulatory_risk,
			currency_risk, market_risk, operational_risk, risk_factors,
			mitigation_strategies, recommendations, confidence_score,
			data_sources, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, target_market, product_category) DO UPDATE SET
			risk_type = excluded.risk_type,
			overall_risk_score = excluded.overall_risk_score,
			political_risk = excluded.political_risk,
			economic_risk = excluded.economic_risk,
			regulatory_risk = excluded.regulatory_risk,
			currency_risk = excluded.currency_risk,
			market_risk = excluded.market_risk,
			operational_risk = excluded.operational_risk,
			risk_factors = excluded.risk_factors,
			mitigation_strategies = excluded.mitigation_strategies,
			recommendations = excluded.recommendations,
			confidence_score = excluded.confidence_score,
			data_sources = excluded.data_sources,
			updated_at = excluded.updated_at`,
		ra.CompanyID,
		ra.TargetMarket,
		ra.ProductCategory,
		ra.RiskType,
		ra.OverallRiskScore,
		ra.PoliticalRisk,
		ra.EconomicRisk,
		ra.RegulatoryRisk,
		ra.CurrencyRisk,
		ra.MarketRisk,
		ra.OperationalRisk,
		marshalList(ra.RiskFactors),
		marshalList(ra.MitigationStrategies),
		marshalList(ra.Recommendations),
		ra.ConfidenceScore,
		ra.DataSources,
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		return errs.Query("upsert risk assessment", err)
	}

	var createdAt, updatedAt int64
	err = c.db.QueryRow(`
		SELECT id, created_at, updated_at FROM risk_assessments
		WHERE company_id = ? AND target_market = ? AND product_category = ?`,
		ra.CompanyID, ra.TargetMarket, ra.ProductCategory,
	).Scan(&ra.ID, &createdAt, &updatedAt)
	if err != nil {
		return errs.Query("reload risk assessment", err)
	}

	ra.CreatedAt = fromUnix(createdAt)
	ra.UpdatedAt = fromUnix(updatedAt)
	return nil
}

func (c *Client) ListRiskAssessments(companyID int64, targetMarket, riskType string) ([]models.RiskAssessment, error) {
	query := `
		SELECT id, company_id, target_market, product_category, risk_type,
		       overall_risk_score, political_risk, economic_risk,
		       regulatory_risk, currency_risk, market_risk, operational_risk,
		       risk_factors, mitigation_strategies, recommendations,
		       confidence_score, data_sources, created_at, updated_at
		FROM risk_assessments
		WHERE company_id = ?`
	args := []interface{}{companyID}

	if targetMarket != "" {
		query += " AND target_market = ?"
		args = append(args, targetMarket)
	}
	if riskType != "" {
		query += " AND risk_type = ?"
		args = append(args, riskType)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, errs.Query("list risk assessments", err)
	}
	defer rows.Close()

	assessments := []models.RiskAssessment{}
	for rows.Next() {
		var ra models.RiskAssessment
		var createdAt, updatedAt int64
		var factors, mitigations, recommendations sql.NullString

		err := rows.Scan(
			&ra.ID, &ra.CompanyID, &ra.TargetMarket, &ra.ProductCategory,
			&ra.RiskType, &ra.OverallRiskScore, &ra.PoliticalRisk,
			&ra.EconomicRisk, &ra.RegulatoryRisk, &ra.CurrencyRisk,
			&ra.MarketRisk, &ra.OperationalRisk, &factors, &mitigations,
			&recommendations, &ra.ConfidenceScore, &ra.DataSources,
			&createdAt, &updatedAt,
		)
		if err != nil {
			return nil, errs.Query("scan risk assessment", err)
		}

		ra.RiskFactors = unmarshalList(factors)
		ra.MitigationStrategies = unmarshalList(mitigations)
		ra.Recommendations = unmarshalList(recommendations)
		ra.CreatedAt = fromUnix(createdAt)
		ra.UpdatedAt = fromUnix(updatedAt)
		assessments = append(assessments, ra)
	}

	return assessments, rows.Err()
}

// InsertTrendDetection always appends. Each analysis run is a new
// observation, never a correction of a previous one.
func (c *Client) InsertTrendDetection(td *models.TrendDetection) error {
	now := time.Now()

	res, err := c.db.Exec(`
		INSERT INTO trend_detections (
			company_id, trend_type, timeframe, market_scope, trend_strength,
			growth_rate, confidence_score, trend_description, key_indicators,
			impact_assessment, opportunities, recommendations, data_sources,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		td.CompanyID,
		td.TrendType,
		td.Timeframe,
		td.MarketScope,
		td.TrendStrength,
		td.GrowthRate,
		td.ConfidenceScore,
		td.TrendDescription,
		marshalList(td.KeyIndicators),
		td.ImpactAssessment,
		marshalList(td.Opportunities),
		marshalList(td.Recommendations),
		td.DataSources,
		now.Unix(),
	)
	if err != nil {
		return errs.Query("insert trend detection", err)
	}

	td.ID, _ = res.LastInsertId()
	td.CreatedAt = now
	return nil
}

func (c *Client) ListTrendDetections(companyID int64, trendType, timeframe string) ([]models.TrendDetection, error) {
	query := `
		SELECT id, company_id, trend_type, timeframe, market_scope,
		       trend_strength, growth_rate, confidence_score,
		       trend_description, key_indicators, impact_assessment,
		       opportunities, recommendations, data_sources, created_at
		FROM trend_detections
		WHERE company_id = ?`
	args := []interface{}{companyID}

	if trendType != "" {
		query += " AND trend_type = ?"
		args = append(args, trendType)
	}
	if timeframe != "" {
		query += " AND timeframe = ?"
		args = append(args, timeframe)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, errs.Query("list trend detections", err)
	}
	defer rows.Close()

	trends := []models.TrendDetection{}
	for rows.Next() {
		var td models.TrendDetection
		var createdAt int64
		var indicators, opportunities, recommendations sql.NullString

		err := rows.Scan(
			&td.ID, &td.CompanyID, &td.TrendType, &td.Timeframe,
			&td.MarketScope, &td.TrendStrength, &td.GrowthRate,
			&td.ConfidenceScore, &td.TrendDescription, &indicators,
			&td.ImpactAssessment, &opportunities, &recommendations,
			&td.DataSources, &createdAt,
		)
		if err != nil {
			return nil, errs.Query("scan trend detection", err)
		}

		td.KeyIndicators = unmarshalList(indicators)
		td.Opportunities = unmarshalList(opportunities)
		td.Recommendations = unmarshalList(recommendations)
		td.CreatedAt = fromUnix(createdAt)
		trends = append(trends, td)
	}

	return trends, rows.Err()
}

func (c *Client) InsertPrediction(p *models.AIPrediction) error {
	now := time.Now()

	res, err := c.db.Exec(`
		INSERT INTO ai_predictions (
			company_id, prediction_type, target_market, product_category,
			hs_code, period, confidence_score, prediction_data, key_insights,
			recommendations, data_sources, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CompanyID,
		p.PredictionType,
		p.TargetMarket,
		p.ProductCategory,
		p.HSCode,
		p.Period,
		p.ConfidenceScore,
		string(p.PredictionData),
		marshalList(p.KeyInsights),
		marshalList(p.Recommendations),
		p.DataSources,
		now.Unix(),
	)
	if err != nil {
		return errs.Query("insert prediction", err)
	}

	p.ID, _ = res.LastInsertId()
	p.CreatedAt = now
	return nil
}

func (c *Client) ListPredictions(companyID int64, predictionType, period string) ([]models.AIPrediction, error) {
	query := `
		SELECT id, company_id, prediction_type, target_market,
		       product_category, hs_code, period, confidence_score,
		       prediction_data, key_insights, recommendations, data_sources,
		       created_at
		FROM ai_predictions
		WHERE company_id = ?`
	args := []interface{}{companyID}

	if predictionType != "" {
		query += " AND prediction_type = ?"
		args = append(args, predictionType)
	}
	if period != "" {
		query += " AND period = ?"
		args = append(args, period)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, errs.Query("list predictions", err)
	}
	defer rows.Close()

	predictions := []models.AIPrediction{}
	for rows.Next() {
		var p models.AIPrediction
		var createdAt int64
		var data, insights, recommendations sql.NullString

		err := rows.Scan(
			&p.ID, &p.CompanyID, &p.PredictionType, &p.TargetMarket,
			&p.ProductCategory, &p.HSCode, &p.Period, &p.ConfidenceScore,
			&data, &insights, &recommendations, &p.DataSources, &createdAt,
		)
		if err != nil {
			return nil, errs.Query("scan prediction", err)
		}

		if data.Valid {
			p.PredictionData = []byte(data.String)
		}
		p.KeyInsights = unmarshalList(insights)
		p.Recommendations = unmarshalList(recommendations)
		p.CreatedAt = fromUnix(createdAt)
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}

// UpsertPriceOptimization inserts or updates in place on the
// (company_id, product_id, target_market) key.
func (c *Client) UpsertPriceOptimization(po *models.PriceOptimization) error {
	now := time.Now()

	_, err := c.db.Exec(`
		INSERT INTO price_optimizations (
			company_id, product_id, target_market, current_price,
			optimal_price, price_range_min, price_range_max, profit_margin,
			competitiveness_score, market_positioning, pricing_strategy,
			key_factors, risks, recommendations, confidence_score,
			data_sources, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, product_id, target_market) DO UPDATE SET
			current_price = excluded.current_price,
			optimal_price = excluded.optimal_price,
			price_range_min = excluded.price_range_min,
			price_range_max = excluded.price_range_max,
			profit_margin = excluded.profit_margin,
			competitiveness_score = excluded.competitiveness_score,
			market_positioning = excluded.market_positioning,
			pricing_strategy = excluded.pricing_strategy,
			key_factors = excluded.key_factors,
			risks = excluded.risks,
			recommendations = excluded.recommendations,
			confidence_score = excluded.confidence_score,
			data_sources = excluded.data_sources,
			updated_at = excluded.updated_at`,
		po.CompanyID,
		po.ProductID,
		po.TargetMarket,
		po.CurrentPrice,
		po.OptimalPrice,
		po.PriceRangeMin,
		po.PriceRangeMax,
		po.ProfitMargin,
		po.CompetitivenessScore,
		po.MarketPositioning,
		po.PricingStrategy,
		marshalList(po.KeyFactors),
		marshalList(po.Risks),
		marshalList(po.Recommendations),
		po.ConfidenceScore,
		po.DataSources,
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		return errs.Query("upsert price optimization", err)
	}

	var createdAt, updatedAt int64
	err = c.db.QueryRow(`
		SELECT id, created_at, updated_at FROM price_optimizations
		WHERE company_id = ? AND product_id = ? AND target_market = ?`,
		po.CompanyID, po.ProductID, po.TargetMarket,
	).Scan(&po.ID, &createdAt, &updatedAt)
	if err != nil {
		return errs.Query("reload price optimization", err)
	}

	po.CreatedAt = fromUnix(createdAt)
	po.UpdatedAt = fromUnix(updatedAt)
	return nil
}

func (c *Client) ListPriceOptimizations(companyID int64, productID *int64, targetMarket string) ([]models.PriceOptimization, error) {
	query := `
		SELECT po.id, po.company_id, po.product_id, po.target_market,
		       po.current_price, po.optimal_price, po.price_range_min,
		       po.price_range_max, po.profit_margin, po.competitiveness_score,
		       po.market_positioning, po.pricing_strategy, po.key_factors,
		       po.risks, po.recommendations, po.confidence_score,
		       po.data_sources, po.created_at, po.updated_at,
		       p.product_name, p.hs_code, p.category
		FROM price_optimizations po
		JOIN products p ON po.product_id = p.id
		WHERE po.company_id = ?`
	args := []interface{}{companyID}

	if productID != nil {
		query += " AND po.product_id = ?"
		args = append(args, *productID)
	}
	if targetMarket != "" {
		query += " AND po.target_market = ?"
		args = append(args, targetMarket)
	}
	query += " ORDER BY po.created_at DESC, po.id DESC"

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, errs.Query("list price optimizations", err)
	}
	defer rows.Close()

	optimizations := []models.PriceOptimization{}
	for rows.Next() {
		var po models.PriceOptimization
		var createdAt, updatedAt int64
		var factors, risks, recommendations sql.NullString

		err := rows.Scan(
			&po.ID, &po.CompanyID, &po.ProductID, &po.TargetMarket,
			&po.CurrentPrice, &po.OptimalPrice, &po.PriceRangeMin,
			&po.PriceRangeMax, &po.ProfitMargin, &po.CompetitivenessScore,
			&po.MarketPositioning, &po.PricingStrategy, &factors, &risks,
			&recommendations, &po.ConfidenceScore, &po.DataSources,
			&createdAt, &updatedAt, &po.ProductName, &po.HSCode, &po.Category,
		)
		if err != nil {
			return nil, errs.Query("scan price optimization", err)
		}

		po.KeyFactors = unmarshalList(factors)
		po.Risks = unmarshalList(risks)
		po.Recommendations = unmarshalList(recommendations)
		po.CreatedAt = fromUnix(createdAt)
		po.UpdatedAt = fromUnix(updatedAt)
		optimizations = append(optimizations, po)
	}

	return optimizations, rows.Err()
}
