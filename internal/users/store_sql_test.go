package users

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/examportal/internal/db"
)

func newTestStore(t *testing.T) (*SQLStore, *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return NewSQLStore(dbh, WithHashCost(bcrypt.MinCost)), dbh
}

func validInput() RegisterInput {
	return RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            "student",
		FirstName:       "Alice",
	}
}

func countRows(t *testing.T, dbh *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	acc, err := s.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acc.User.ID == 0 || acc.Profile.UserID != acc.User.ID || acc.Profile.Role != RoleStudent {
		t.Fatalf("unexpected account %+v", acc)
	}

	got, err := s.GetAccount(ctx, acc.User.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.User.Username != "alice" || got.Profile.Role != RoleStudent {
		t.Fatalf("got %+v", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		msg    string
	}{
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "other12" }, "Passwords do not match!"},
		{"short", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc", "abc" }, "Password must be at least 6 characters long!"},
		{"bad role", func(in *RegisterInput) { in.Role = "admin" }, "Please select a valid user type!"},
		{"no role", func(in *RegisterInput) { in.Role = "" }, "Please select a valid user type!"},
		{"bad email", func(in *RegisterInput) { in.Email = "nope" }, "Please enter a valid email address!"},
		{"no username", func(in *RegisterInput) { in.Username = "" }, "Username is required!"},
		{"long phone", func(in *RegisterInput) { in.Phone = "1234567890123456" }, "Phone must be at most 15 characters long!"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, dbh := newTestStore(t)
			in := validInput()
			c.mutate(&in)
			_, err := s.Register(context.Background(), in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Msg != c.msg {
				t.Fatalf("msg = %q, want %q", ve.Msg, c.msg)
			}
			if n := countRows(t, dbh, "users"); n != 0 {
				t.Fatalf("users = %d, want 0", n)
			}
			if n := countRows(t, dbh, "profiles"); n != 0 {
				t.Fatalf("profiles = %d, want 0", n)
			}
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	s, dbh := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Register(ctx, validInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	in := validInput()
	in.Email = "second@example.com"
	if _, err := s.Register(ctx, in); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	in = validInput()
	in.Username = "bob"
	if _, err := s.Register(ctx, in); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// a raced insert surfaces the driver's unique violation
	if _, err := s.create(ctx, validInput()); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if n := countRows(t, dbh, "users"); n != 1 {
		t.Fatalf("users = %d, want 1", n)
	}
}

func TestCreateRollsBackIdentityWhenProfileFails(t *testing.T) {
	s, dbh := newTestStore(t)
	in := validInput()
	in.Role = "admin" // rejected by the profiles CHECK constraint

	if _, err := s.create(context.Background(), in); err == nil {
		t.Fatal("expected profile insert to fail")
	}
	if n := countRows(t, dbh, "users"); n != 0 {
		t.Fatalf("identity not rolled back: %d users", n)
	}
}

func TestAuthenticate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	acc, err := s.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := s.Authenticate(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.ID != acc.User.ID || u.FirstName != "Alice" {
		t.Fatalf("got %+v", u)
	}
	if _, err := s.Authenticate(ctx, "alice", "wrong!!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := s.Authenticate(ctx, "nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestGetAccountWithoutProfile(t *testing.T) {
	s, dbh := newTestStore(t)
	ctx := context.Background()
	var id int64
	if err := dbh.QueryRow(
		`INSERT INTO users (username,email,password_hash,created_at) VALUES ('orphan','o@example.com','x',1) RETURNING id`,
	).Scan(&id); err != nil {
		t.Fatalf("seed: %v", err)
	}
	acc, err := s.GetAccount(ctx, id)
	if !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
	if acc.User.Username != "orphan" {
		t.Fatalf("identity should still be returned, got %+v", acc.User)
	}
	if _, err := s.GetAccount(ctx, id+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetPictureKey(ctx, id, "profiles/x.jpg"); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
}

func TestSetPictureKey(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	acc, err := s.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.SetPictureKey(ctx, acc.User.ID, "profiles/1.jpg"); err != nil {
		t.Fatalf("set picture: %v", err)
	}
	got, _ := s.GetAccount(ctx, acc.User.ID)
	if got.Profile.PictureKey != "profiles/1.jpg" {
		t.Fatalf("picture key = %q", got.Profile.PictureKey)
	}
}

func TestRoleDashboard(t *testing.T) {
	if RoleTeacher.Dashboard() != "/teacher/dashboard/" || RoleStudent.Dashboard() != "/student/dashboard/" {
		t.Fatal("dashboards")
	}
	if _, ok := ParseRole("admin"); ok {
		t.Fatal("admin is not a role")
	}
}

func TestChangePassword(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	acc, err := s.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	id := acc.User.ID

	cases := []struct {
		in   PasswordChange
		want string
	}{
		{PasswordChange{Old: "secret1", New: "newpass", Confirm: "other1"}, "Passwords do not match!"},
		{PasswordChange{Old: "secret1", New: "abc", Confirm: "abc"}, "Password must be at least 6 characters long!"},
		{PasswordChange{Old: "wrong!!", New: "newpass", Confirm: "newpass"}, "Current password is incorrect!"},
	}
	for _, c := range cases {
		var ve *ValidationError
		if err := s.ChangePassword(ctx, id, c.in); !errors.As(err, &ve) || ve.Msg != c.want {
			t.Fatalf("%+v: got %v, want %q", c.in, err, c.want)
		}
	}

	if err := s.ChangePassword(ctx, id, PasswordChange{Old: "secret1", New: "newpass", Confirm: "newpass"}); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := s.Authenticate(ctx, "alice", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
	if _, err := s.Authenticate(ctx, "alice", "newpass"); err != nil {
		t.Fatalf("new password: %v", err)
	}
	if err := s.ChangePassword(ctx, id+100, PasswordChange{Old: "x", New: "newpass", Confirm: "newpass"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
}
