package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/pkg/errs"
)

func (c *Client) InsertCompany(company *models.Company) error {
	now := time.Now()

	res, err := c.db.Exec(`
		INSERT INTO companies (
			user_id, company_name, industry, country, employee_count,
			annual_revenue, website, description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		company.UserID,
		company.CompanyName,
		company.Industry,
		company.Country,
		company.EmployeeCount,
		company.AnnualRevenue,
		company.Website,
		company.Description,
		now.Unix(),
	)
	if err != nil {
		return errs.Query("insert company", err)
	}

	company.ID, _ = res.LastInsertId()
	company.CreatedAt = now
	return nil
}

func (c *Client) ListCompanies(userID int64) ([]models.Company, error) {
	rows, err := c.db.Query(`
		SELECT id, user_id, company_name, industry, country, employee_count,
		       annual_revenue, website, description, created_at
		FROM companies
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, errs.Query("list companies", err)
	}
	defer rows.Close()

	companies := []models.Company{}
	for rows.Next() {
		var co models.Company
		var createdAt int64

		err := rows.Scan(
			&co.ID, &co.UserID, &co.CompanyName, &co.Industry, &co.Country,
			&co.EmployeeCount, &co.AnnualRevenue, &co.Website, &co.Description,
			&createdAt,
		)
		if err != nil {
			return nil, errs.Query("scan company", err)
		}

		co.CreatedAt = fromUnix(createdAt)
		companies = append(companies, co)
	}

	return companies, rows.Err()
}

// GetCompany returns the company only when it belongs to userID. Ownership
// mismatches look identical to missing rows.
func (c *Client) GetCompany(id, userID int64) (*models.Company, error) {
	var co models.Company
	var createdAt int64

	err := c.db.QueryRow(`
		SELECT id, user_id, company_name, industry, country, employee_count,
		       annual_revenue, website, description, created_at
		FROM companies
		WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&co.ID, &co.UserID, &co.CompanyName, &co.Industry, &co.Country,
		&co.EmployeeCount, &co.AnnualRevenue, &co.Website, &co.Description,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("company")
	}
	if err != nil {
		return nil, errs.Query("get company", err)
	}

	co.CreatedAt = fromUnix(createdAt)
	return &co, nil
}

func (c *Client) InsertProduct(product *models.Product) error {
	now := time.Now()

	res, err := c.db.Exec(`
		INSERT INTO products (
			company_id, product_name, hs_code, category, material,
			technical_specs, unit_price, currency, description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.CompanyID,
		product.ProductName,
		product.HSCode,
		product.Category,
		product.Material,
		product.TechnicalSpecs,
		product.UnitPrice,
		product.Currency,
		product.Description,
		now.Unix(),
	)
	if err != nil {
		return errs.Query("insert product", err)
	}

	product.ID, _ = res.LastInsertId()
	product.CreatedAt = now
	return nil
}

func (c *Client) ListProducts(companyID int64) ([]models.Product, error) {
	rows, err := c.db.Query(`
		SELECT id, company_id, product_name, hs_code, category, material,
		       technical_specs, unit_price, currency, description, created_at
		FROM products
		WHERE company_id = ?
		ORDER BY created_at DESC, id DESC`,
		companyID,
	)
	if err != nil {
		return nil, errs.Query("list products", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		var createdAt int64

		err := rows.Scan(
			&p.ID, &p.CompanyID, &p.ProductName, &p.HSCode, &p.Category,
			&p.Material, &p.TechnicalSpecs, &p.UnitPrice, &p.Currency,
			&p.Description, &createdAt,
		)
		if err != nil {
			return nil, errs.Query("scan product", err)
		}

		p.CreatedAt = fromUnix(createdAt)
		products = append(products, p)
	}

	return products, rows.Err()
}

func (c *Client) GetProduct(id, companyID int64) (*models.Product, error) {
	var p models.Product
	var createdAt int64

	err := c.db.QueryRow(`
		SELECT id, company_id, product_name, hs_code, category, material,
		       technical_specs, unit_price, currency, description, created_at
		FROM products
		WHERE id = ? AND company_id = ?`,
		id, companyID,
	).Scan(
		&p.ID, &p.CompanyID, &p.ProductName, &p.HSCode, &p.Category,
		&p.Material, &p.TechnicalSpecs, &p.UnitPrice, &p.Currency,
		&p.Description, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("product")
	}
	if err != nil {
		return nil, errs.Query("get product", err)
	}

	p.CreatedAt = fromUnix(createdAt)
	return &p, nil
}

func (c *Client) InsertTargetMarket(market *models.TargetMarket) error {
	now := time.Now()

	res, err := c.db.Exec(`
		INSERT INTO target_markets (
			product_id, country, market_potential, import_volume,
			average_price, growth_rate, competition_level, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		market.ProductID,
		market.Country,
		market.MarketPotential,
		market.ImportVolume,
		market.AveragePrice,
		market.GrowthRate,
		market.CompetitionLevel,
		now.Unix(),
	)
	if err != nil {
		return errs.Query("insert target market", err)
	}

	market.ID, _ = res.LastInsertId()
	market.CreatedAt = now
	return nil
}

// ListTargetMarkets returns markets across every product of the company.
func (c *Client) ListTargetMarkets(companyID int64) ([]models.TargetMarket, error) {
	rows, err := c.db.Query(`
		SELECT id, product_id, country, market_potential, import_volume,
		       average_price, growth_rate, competition_level, created_at
		FROM target_markets
		WHERE product_id IN (SELECT id FROM products WHERE company_id = ?)
		ORDER BY created_at DESC, id DESC`,
		companyID,
	)
	if err != nil {
		return nil, errs.Query("list target markets", err)
	}
	defer rows.Close()

	markets := []models.TargetMarket{}
	for rows.Next() {
		var m models.TargetMarket
		var createdAt int64

		err := rows.Scan(
			&m.ID, &m.ProductID, &m.Country, &m.MarketPotential,
			&m.ImportVolume, &m.AveragePrice, &m.GrowthRate,
			&m.CompetitionLevel, &createdAt,
		)
		if err != nil {
			return nil, errs.Query("scan target market", err)
		}

		m.CreatedAt = fromUnix(createdAt)
		markets = append(markets, m)
	}

	return markets, rows.Err()
}
