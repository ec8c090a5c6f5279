package sqlite

import (
	"database/sql"
	"time"

	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/pkg/errs"
)

func (c *Client) InsertCampaign(campaign *models.Campaign) error {
	now := time.Now()

	if campaign.Status == "" {
		campaign.Status = "Draft"
	}

	res, err := c.db.Exec(`
		INSERT INTO campaigns (
			company_id, campaign_name, target_country, email_template, status,
			total_recipients, emails_sent, open_rate, response_rate,
			conversion_rate, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		campaign.CompanyID,
		campaign.CampaignName,
		campaign.TargetCountry,
		campaign.EmailTemplate,
		campaign.Status,
		campaign.TotalRecipients,
		campaign.EmailsSent,
		campaign.OpenRate,
		campaign.ResponseRate,
		campaign.ConversionRate,
		now.Unix(),
	)
	if err != nil {
		return errs.Query("insert campaign", err)
	}

	campaign.ID, _ = res.LastInsertId()
	campaign.CreatedAt = now
	return nil
}

// ListCampaigns filters by company when companyID is non-nil; otherwise it
// returns campaigns across all of the user's companies.
func (c *Client) ListCampaigns(userID int64, companyID *int64) ([]models.Campaign, error) {
	query := `
		SELECT id, company_id, campaign_name, target_country, email_template,
		       status, total_recipients, emails_sent, open_rate, response_rate,
		       conversion_rate, created_at
		FROM campaigns
		WHERE company_id IN (SELECT id FROM companies WHERE user_id = ?)`
	args := []interface{}{userID}

	if companyID != nil {
		query += " AND company_id = ?"
		args = append(args, *companyID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, errs.Query("list campaigns", err)
	}
	defer rows.Close()

	campaigns := []models.Campaign{}
	for rows.Next() {
		var cp models.Campaign
		var createdAt int64

		err := rows.Scan(
			&cp.ID, &cp.CompanyID, &cp.CampaignName, &cp.TargetCountry,
			&cp.EmailTemplate, &cp.Status, &cp.TotalRecipients, &cp.EmailsSent,
			&cp.OpenRate, &cp.ResponseRate, &cp.ConversionRate, &createdAt,
		)
		if err != nil {
			return nil, errs.Query("scan campaign", err)
		}

		cp.CreatedAt = fromUnix(createdAt)
		campaigns = append(campaigns, cp)
	}

	return campaigns, rows.Err()
}

func (c *Client) InsertBuyer(buyer *models.PotentialBuyer) error {
	now := time.Now()

	res, err := c.db.Exec(`
		INSERT INTO potential_buyers (
			company_id, buyer_name, buyer_country, industry_segment,
			company_size, import_frequency, last_import_date, match_score,
			contact_email, contact_phone, website, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		buyer.CompanyID,
		buyer.BuyerName,
		buyer.BuyerCountry,
		buyer.IndustrySegment,
		buyer.CompanySize,
		buyer.ImportFrequency,
		buyer.LastImportDate,
		buyer.MatchScore,
		buyer.ContactEmail,
		buyer.ContactPhone,
		buyer.Website,
		buyer.Notes,
		now.Unix(),
	)
	if err != nil {
		return errs.Query("insert potential buyer", err)
	}

	buyer.ID, _ = res.LastInsertId()
	buyer.CreatedAt = now
	return nil
}

// ListBuyers orders by match score first so the strongest leads surface,
// then newest-first.
func (c *Client) ListBuyers(companyID int64) ([]models.PotentialBuyer, error) {
	rows, err := c.db.Query(`
		SELECT id, company_id, buyer_name, buyer_country, industry_segment,
		       company_size, import_frequency, last_import_date, match_score,
		       contact_email, contact_phone, website, notes, created_at
		FROM potential_buyers
		WHERE company_id = ?
		ORDER BY match_score DESC, created_at DESC, id DESC`,
		companyID,
	)
	if err != nil {
		return nil, errs.Query("list potential buyers", err)
	}
	defer rows.Close()

	buyers := []models.PotentialBuyer{}
	for rows.Next() {
		var b models.PotentialBuyer
		var createdAt int64

		err := rows.Scan(
			&b.ID, &b.CompanyID, &b.BuyerName, &b.BuyerCountry,
			&b.IndustrySegment, &b.CompanySize, &b.ImportFrequency,
			&b.LastImportDate, &b.MatchScore, &b.ContactEmail, &b.ContactPhone,
			&b.Website, &b.Notes, &createdAt,
		)
		if err != nil {
			return nil, errs.Query("scan potential buyer", err)
		}

		b.CreatedAt = fromUnix(createdAt)
		buyers = append(buyers, b)
	}

	return buyers, rows.Err()
}

func (c *Client) InsertMarketReport(report *models.MarketReport) error {
	now := time.Now()

	res, err := c.db.Exec(`
		INSERT INTO market_reports (
			company_id, report_title, report_type, country, product_category,
			total_imports, total_exports, average_unit_price, trend_direction,
			key_competitors, recommendations, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.CompanyID,
		report.ReportTitle,
		report.ReportType,
		report.Country,
		report.ProductCategory,
		report.TotalImports,
		report.TotalExports,
		report.AverageUnitPrice,
		report.TrendDirection,
		marshalList(report.KeyCompetitors),
		marshalList(report.Recommendations),
		now.Unix(),
	)
	if err != nil {
		return errs.Query("insert market report", err)
	}

	report.ID, _ = res.LastInsertId()
	report.CreatedAt = now
	return nil
}

func (c *Client) ListMarketReports(companyID int64) ([]models.MarketReport, error) {
	rows, err := c.db.Query(`
		SELECT id, company_id, report_title, report_type, country,
		       product_category, total_imports, total_exports,
		       average_unit_price, trend_direction, key_competitors,
		       recommendations, created_at
		FROM market_reports
		WHERE company_id = ?
		ORDER BY created_at DESC, id DESC`,
		companyID,
	)
	if err != nil {
		return nil, errs.Query("list market reports", err)
	}
	defer rows.Close()

	reports := []models.MarketReport{}
	for rows.Next() {
		var r models.MarketReport
		var createdAt int64
		var competitors, recommendations sql.NullString

		err := rows.Scan(
			&r.ID, &r.CompanyID, &r.ReportTitle, &r.ReportType, &r.Country,
			&r.ProductCategory, &r.TotalImports, &r.TotalExports,
			&r.AverageUnitPrice, &r.TrendDirection, &competitors,
			&recommendations, &createdAt,
		)
		if err != nil {
			return nil, errs.Query("scan market report", err)
		}

		r.KeyCompetitors = unmarshalList(competitors)
		r.Recommendations = unmarshalList(recommendations)
		r.CreatedAt = fromUnix(createdAt)
		reports = append(reports, r)
	}

	return reports, rows.Err()
}
