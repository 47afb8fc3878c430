package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/examportal/internal/db"
)

type Store interface {
	Register(ctx context.Context, in RegisterInput) (Account, error)
	Authenticate(ctx context.Context, username, password string) (User, error)
	GetAccount(ctx context.Context, userID int64) (Account, error)
	SetPictureKey(ctx context.Context, userID int64, key string) error
	ChangePassword(ctx context.Context, userID int64, in PasswordChange) error
}

type SQLStore struct {
	db       *sql.DB
	hashCost int
}

type Option func(*SQLStore)

// WithHashCost overrides the bcrypt cost (tests use bcrypt.MinCost).
func WithHashCost(c int) Option { return func(s *SQLStore) { s.hashCost = c } }

func NewSQLStore(dbh *sql.DB, opts ...Option) *SQLStore {
	s := &SQLStore{db: dbh, hashCost: 12}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register validates the signup form and creates the identity and its
// profile in one transaction.
func (s *SQLStore) Register(ctx context.Context, in RegisterInput) (Account, error) {
	if err := checkForm(in); err != nil {
		return Account{}, err
	}
	if err := s.checkUnique(ctx, in.Username, in.Email); err != nil {
		return Account{}, err
	}
	if _, ok := ParseRole(in.Role); !ok {
		return Account{}, invalid("Please select a valid user type!")
	}
	return s.create(ctx, in)
}

func (s *SQLStore) checkUnique(ctx context.Context, username, email string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, username).Scan(&one)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email=$1`, email).Scan(&one)
	switch {
	case err == nil:
		return ErrEmailTaken
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}
	return nil
}

// create inserts users + profiles without form validation. Either both rows
// exist afterwards or neither does.
func (s *SQLStore) create(ctx context.Context, in RegisterInput) (acc Account, err error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return Account{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			if db.IsUniqueViolation(err) {
				err = ErrDuplicate
			}
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	u := User{Username: in.Username, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName, CreatedAt: now}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		u.Username, u.Email, string(hash), u.FirstName, u.LastName, now).Scan(&u.ID)
	if err != nil {
		return Account{}, fmt.Errorf("insert user: %w", err)
	}

	p := Profile{UserID: u.ID, Role: Role(in.Role), Phone: in.Phone, CreatedAt: now}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO profiles (user_id, role, phone, created_at) VALUES ($1,$2,$3,$4) RETURNING id`,
		p.UserID, string(p.Role), p.Phone, now).Scan(&p.ID)
	if err != nil {
		return Account{}, fmt.Errorf("insert profile: %w", err)
	}
	return Account{User: u, Profile: p}, nil
}

func (s *SQLStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	var u User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, first_name, last_name, created_at, password_hash FROM users WHERE username=$1`,
		username).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// GetAccount returns ErrNotFound for an unknown identity and ErrNoProfile
// when the identity exists without a profile.
func (s *SQLStore) GetAccount(ctx context.Context, userID int64) (Account, error) {
	var (
		a                       Account
		pid, pcreated           sql.NullInt64
		role, phone, pictureKey sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.created_at,
		       p.id, p.role, p.phone, p.picture_key, p.created_at
		  FROM users u
		  LEFT JOIN profiles p ON p.user_id = u.id
		 WHERE u.id=$1`, userID).Scan(
		&a.User.ID, &a.User.Username, &a.User.Email, &a.User.FirstName, &a.User.LastName, &a.User.CreatedAt,
		&pid, &role, &phone, &pictureKey, &pcreated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	if !pid.Valid {
		return a, ErrNoProfile
	}
	a.Profile = Profile{
		ID:         pid.Int64,
		UserID:     a.User.ID,
		Role:       Role(role.String),
		Phone:      phone.String,
		PictureKey: pictureKey.String,
		CreatedAt:  pcreated.Int64,
	}
	return a, nil
}

func (s *SQLStore) SetPictureKey(ctx context.Context, userID int64, key string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET picture_key=$1 WHERE user_id=$2`, key, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoProfile
	}
	return nil
}

// ChangePassword checks the current password before storing the new hash.
func (s *SQLStore) ChangePassword(ctx context.Context, userID int64, in PasswordChange) error {
	if in.New != in.Confirm {
		return invalid("Passwords do not match!")
	}
	if len(in.New) < 6 {
		return invalid("Password must be at least 6 characters long!")
	}

	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(in.Old)) != nil {
		return invalid("Current password is incorrect!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.New), s.hashCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), userID)
	return err
}
