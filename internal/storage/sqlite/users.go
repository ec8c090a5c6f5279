package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/pkg/errs"
)

// CreateUser inserts the user row and its credentials account together.
func (c *Client) CreateUser(email string, name *string, passwordHash string) (*models.User, error) {
	now := time.Now()

	tx, err := c.db.Begin()
	if err != nil {
		return nil, errs.Query("begin create user", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO users (name, email, created_at) VALUES (?, ?, ?)`,
		name, email, now.Unix(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, &errs.ConflictError{Constraint: "users.email"}
		}
		return nil, errs.Query("insert user", err)
	}

	userID, _ := res.LastInsertId()

	_, err = tx.Exec(
		`INSERT INTO auth_accounts (user_id, type, password, created_at) VALUES (?, 'credentials', ?, ?)`,
		userID, passwordHash, now.Unix(),
	)
	if err != nil {
		return nil, errs.Query("insert credentials", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Query("commit create user", err)
	}

	return &models.User{ID: userID, Name: name, Email: email, CreatedAt: now}, nil
}

func (c *Client) GetUser(id int64) (*models.User, error) {
	var u models.User
	var createdAt int64

	err := c.db.QueryRow(`
		SELECT id, name, email, image, company_name, industry, country,
		       phone, address, website, created_at
		FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID, &u.Name, &u.Email, &u.Image, &u.CompanyName, &u.Industry,
		&u.Country, &u.Phone, &u.Address, &u.Website, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("user")
	}
	if err != nil {
		return nil, errs.Query("get user", err)
	}

	u.CreatedAt = fromUnix(createdAt)
	return &u, nil
}

// GetUserByEmail also returns the stored credentials hash for signin.
func (c *Client) GetUserByEmail(email string) (*models.User, string, error) {
	var u models.User
	var createdAt int64
	var hash sql.NullString

	err := c.db.QueryRow(`
		SELECT u.id, u.name, u.email, u.image, u.company_name, u.industry,
		       u.country, u.phone, u.address, u.website, u.created_at,
		       a.password
		FROM users u
		LEFT JOIN auth_accounts a ON a.user_id = u.id AND a.type = 'credentials'
		WHERE u.email = ?`,
		email,
	).Scan(
		&u.ID, &u.Name, &u.Email, &u.Image, &u.CompanyName, &u.Industry,
		&u.Country, &u.Phone, &u.Address, &u.Website, &createdAt, &hash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", errs.NotFound("user")
	}
	if err != nil {
		return nil, "", errs.Query("get user by email", err)
	}

	u.CreatedAt = fromUnix(createdAt)
	return &u, hash.String, nil
}

func (c *Client) GetCredential(userID int64) (string, error) {
	var hash string
	err := c.db.QueryRow(
		`SELECT password FROM auth_accounts WHERE user_id = ? AND type = 'credentials'`,
		userID,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errs.NotFound("credentials")
	}
	if err != nil {
		return "", errs.Query("get credential", err)
	}
	return hash, nil
}

func (c *Client) UpdatePassword(userID int64, passwordHash string) error {
	_, err := c.db.Exec(
		`UPDATE auth_accounts SET password = ? WHERE user_id = ? AND type = 'credentials'`,
		passwordHash, userID,
	)
	if err != nil {
		return errs.Query("update password", err)
	}
	return nil
}

// ProfilePatch carries the updatable profile fields. Nil means "leave
// untouched"; values are written as-is (trimming is the handler's job).
type ProfilePatch struct {
	Name        *string
	CompanyName *string
	Industry    *string
	Country     *string
	Phone       *string
	Address     *string
	Website     *string
}

// UpdateUserProfile applies patch semantics. Column names come from the
// fixed list below, never from request input.
func (c *Client) UpdateUserProfile(userID int64, patch ProfilePatch) (*models.User, error) {
	columns := []struct {
		name  string
		value *string
	}{
		{"name", patch.Name},
		{"company_name", patch.CompanyName},
		{"industry", patch.Industry},
		{"country", patch.Country},
		{"phone", patch.Phone},
		{"address", patch.Address},
		{"website", patch.Website},
	}

	setClauses := []string{}
	args := []interface{}{}
	for _, col := range columns {
		if col.value != nil {
			setClauses = append(setClauses, fmt.Sprintf("%s = ?", col.name))
			args = append(args, *col.value)
		}
	}

	if len(setClauses) == 0 {
		return nil, errs.Validation("no valid fields to update")
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	res, err := c.db.Exec(query, args...)
	if err != nil {
		return nil, errs.Query("update profile", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errs.NotFound("user")
	}

	return c.GetUser(userID)
}

// DeleteUser removes the user and everything hanging off it, ordered so
// foreign keys hold at every step.
func (c *Client) DeleteUser(userID int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return errs.Query("begin delete user", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM companies WHERE user_id = ?`,
		`DELETE FROM notifications WHERE user_id = ?`,
		`DELETE FROM auth_accounts WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt, userID); err != nil {
			return errs.Query("delete user", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Query("commit delete user", err)
	}
	return nil
}

func (c *Client) InsertNotification(n *models.Notification) error {
	now := time.Now()

	data := "{}"
	if len(n.Data) > 0 {
		data = string(n.Data)
	}

	res, err := c.db.Exec(`
		INSERT INTO notifications (user_id, type, title, message, data, read, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		n.UserID, n.Type, n.Title, n.Message, data, now.Unix(),
	)
	if err != nil {
		return errs.Query("insert notification", err)
	}

	n.ID, _ = res.LastInsertId()
	n.Read = false
	n.Data = []byte(data)
	n.CreatedAt = now
	return nil
}

// ListNotifications paginates newest-first and reports the total matching
// the filter plus the user's unread count.
func (c *Client) ListNotifications(userID int64, limit, offset int, unreadOnly bool) ([]models.Notification, int, int, error) {
	query := `
		SELECT id, user_id, type, title, message, data, read, created_at
		FROM notifications
		WHERE user_id = ?`
	args := []interface{}{userID}

	if unreadOnly {
		query += " AND read = 0"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, 0, 0, errs.Query("list notifications", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var createdAt int64
		var read int
		var data sql.NullString

		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &read, &createdAt)
		if err != nil {
			return nil, 0, 0, errs.Query("scan notification", err)
		}

		if data.Valid {
			n.Data = []byte(data.String)
		} else {
			n.Data = []byte("{}")
		}
		n.Read = read != 0
		n.CreatedAt = fromUnix(createdAt)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, errs.Query("list notifications", err)
	}

	countQuery := `SELECT COUNT(*) FROM notifications WHERE user_id = ?`
	if unreadOnly {
		countQuery += " AND read = 0"
	}
	var total int
	if err := c.db.QueryRow(countQuery, userID).Scan(&total); err != nil {
		return nil, 0, 0, errs.Query("count notifications", err)
	}

	unread, err := c.UnreadCount(userID)
	if err != nil {
		return nil, 0, 0, err
	}

	return notifications, total, unread, nil
}

func (c *Client) UnreadCount(userID int64) (int, error) {
	var unread int
	err := c.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`,
		userID,
	).Scan(&unread)
	if err != nil {
		return 0, errs.Query("count unread notifications", err)
	}
	return unread, nil
}

// MarkNotifications flips the read flag on the given ids and returns how
// many rows actually changed state.
func (c *Client) MarkNotifications(userID int64, ids []int64, read bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	readVal := 0
	if read {
		readVal = 1
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := []interface{}{readVal, userID, readVal}
	for _, id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf(
		`UPDATE notifications SET read = ? WHERE user_id = ? AND read != ? AND id IN (%s)`,
		placeholders,
	)

	res, err := c.db.Exec(query, args...)
	if err != nil {
		return 0, errs.Query("mark notifications", err)
	}

	updated, _ := res.RowsAffected()
	return updated, nil
}
