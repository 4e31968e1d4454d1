package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"hooshmetr/internal/models"
)

type UserRepository interface {
	GetByID(id int) (*models.User, error)
	GetByMobile(mobile string) (*models.User, error)
	Create(user *models.User) error
	UpdateLastLogin(id int, at time.Time) error
	UpdateProfile(id int, upd *models.ProfileUpdate) (*models.User, error)
	EmailTaken(email string, excludeID int) (bool, error)
	List(limit, offset int) ([]*models.User, error)
	Count() (int, error)
	SetActive(id int, active bool) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, mobile,
	COALESCE(display_name,''), COALESCE(first_name,''), COALESCE(last_name,''),
	COALESCE(email,''), role, COALESCE(avatar,''), COALESCE(bio,''),
	last_login, created_at, updated_at, is_active
`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Mobile,
		&u.DisplayName, &u.FirstName, &u.LastName,
		&u.Email, &u.Role, &u.Avatar, &u.Bio,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt, &u.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user scan: %w", err)
	}
	return u, nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRow(q, id))
}

func (r *userRepository) GetByMobile(mobile string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE mobile = $1`
	return scanUser(r.DB.QueryRow(q, mobile))
}

// Create inserts a new user. The unique constraint on mobile is the
// backstop against two concurrent first-time verifications; callers
// retry with GetByMobile on conflict.
func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (mobile, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := r.DB.QueryRow(q,
		user.Mobile, user.Role, user.IsActive, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(id int, at time.Time) error {
	if _, err := r.DB.Exec(`UPDATE users SET last_login = $1, updated_at = $1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("user update last_login: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateProfile(id int, upd *models.ProfileUpdate) (*models.User, error) {
	const q = `
		UPDATE users SET
			display_name = COALESCE($1, display_name),
			first_name   = COALESCE($2, first_name),
			last_name    = COALESCE($3, last_name),
			email        = COALESCE($4, email),
			bio          = COALESCE($5, bio),
			updated_at   = NOW()
		WHERE id = $6
		RETURNING ` + userColumns + `
	`
	return scanUser(r.DB.QueryRow(q,
		upd.DisplayName, upd.FirstName, upd.LastName, upd.Email, upd.Bio, id,
	))
}

func (r *userRepository) EmailTaken(email string, excludeID int) (bool, error) {
	const q = `SELECT COUNT(*) FROM users WHERE email = $1 AND id <> $2`
	var c int
	if err := r.DB.QueryRow(q, email, excludeID).Scan(&c); err != nil {
		return false, fmt.Errorf("user email taken: %w", err)
	}
	return c > 0, nil
}

func (r *userRepository) List(limit, offset int) ([]*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.DB.Query(q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user list: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(
			&u.ID, &u.Mobile,
			&u.DisplayName, &u.FirstName, &u.LastName,
			&u.Email, &u.Role, &u.Avatar, &u.Bio,
			&u.LastLogin, &u.CreatedAt, &u.UpdatedAt, &u.IsActive,
		); err != nil {
			return nil, fmt.Errorf("user list scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) Count() (int, error) {
	var c int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&c); err != nil {
		return 0, fmt.Errorf("user count: %w", err)
	}
	return c, nil
}

func (r *userRepository) SetActive(id int, active bool) error {
	res, err := r.DB.Exec(`UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("user set active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
