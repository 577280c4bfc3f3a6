package repository

import (
	"database/sql"
	"optimal-bank-api/logger"
	"optimal-bank-api/model"

	"github.com/sirupsen/logrus"
)

// IUserRepository defines the contract for user database operations.
type IUserRepository interface {
	CreateUser(user *model.User) error
	GetUserByID(id int) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetAllUsers() ([]*model.User, error)
	UpdateUserRole(userID int, newRole string) error
	UpdateLoginSecurity(user *model.User) error
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, username, email, password, role, failed_login_attempts, login_locked_until,
	last_login_ip, last_login_lat, last_login_lng, last_login_city, last_login_region, last_login_country, last_login_at,
	version, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	user := &model.User{}
	var (
		lockedUntil sql.NullTime
		ip, city    sql.NullString
		region      sql.NullString
		country     sql.NullString
		lat, lng    sql.NullFloat64
		at          sql.NullTime
	)

	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.Role,
		&user.FailedLoginAttempts, &lockedUntil,
		&ip, &lat, &lng, &city, &region, &country, &at,
		&user.Version, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	if lockedUntil.Valid {
		user.LoginLockedUntil = &lockedUntil.Time
	}
	if at.Valid {
		user.LastLogin = &model.LoginRecord{
			IP:      ip.String,
			Lat:     lat.Float64,
			Lng:     lng.Float64,
			City:    city.String,
			Region:  region.String,
			Country: country.String,
			At:      at.Time,
		}
	}
	return user, nil
}

func (r *UserRepository) CreateUser(user *model.User) error {
	log := logger.Log.WithFields(logrus.Fields{
		"username": user.Username,
		"email":    user.Email,
	})
	log.Info("Executing query to create a new user")

	query := `INSERT INTO users (username, email, password, role,
			last_login_ip, last_login_lat, last_login_lng, last_login_city, last_login_region, last_login_country, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, version, created_at`

	var ll model.LoginRecord
	if user.LastLogin != nil {
		ll = *user.LastLogin
	}
	err := r.DB.QueryRow(query, user.Username, user.Email, user.Password, user.Role,
		ll.IP, ll.Lat, ll.Lng, ll.City, ll.Region, ll.Country, ll.At).
		Scan(&user.ID, &user.Version, &user.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create user query")
		return err
	}
	return nil
}

func (r *UserRepository) GetUserByID(id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRow(query, id))
}

func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.DB.QueryRow(query, email))
}

func (r *UserRepository) GetUserByUsername(username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.DB.QueryRow(query, username))
}

func (r *UserRepository) GetAllUsers() ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.DB.Query(query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute query for all users")
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to scan user row")
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateUserRole(userID int, newRole string) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"role":    newRole,
	})
	log.Info("Executing query to update user role")

	query := `UPDATE users SET role = $1 WHERE id = $2`
	_, err := r.DB.Exec(query, newRole, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update user role query")
		return err
	}
	return nil
}

// UpdateLoginSecurity persists the user's attempt counter, lock timestamp and
// last-login record in a single versioned write. It returns
// ErrVersionConflict when a concurrent request won the race; on success the
// in-memory version is advanced to match the row.
func (r *UserRepository) UpdateLoginSecurity(user *model.User) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":         user.ID,
		"failed_attempts": user.FailedLoginAttempts,
	})
	log.Info("Executing versioned update of user login security state")

	var ll model.LoginRecord
	if user.LastLogin != nil {
		ll = *user.LastLogin
	}

	query := `UPDATE users
		SET failed_login_attempts = $1, login_locked_until = $2,
			last_login_ip = $3, last_login_lat = $4, last_login_lng = $5,
			last_login_city = $6, last_login_region = $7, last_login_country = $8, last_login_at = $9,
			version = version + 1
		WHERE id = $10 AND version = $11`

	res, err := r.DB.Exec(query, user.FailedLoginAttempts, user.LoginLockedUntil,
		ll.IP, ll.Lat, ll.Lng, ll.City, ll.Region, ll.Country, ll.At,
		user.ID, user.Version)
	if err != nil {
		log.WithError(err).Error("Failed to execute login security update query")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Warn("Login security update lost a concurrent write race")
		return ErrVersionConflict
	}

	user.Version++
	return nil
}
