package users

// Role is fixed when the profile is created; there is no update path.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleTeacher:
		return Role(s), true
	}
	return "", false
}

// Dashboard is the landing page for the role.
func (r Role) Dashboard() string {
	if r == RoleTeacher {
		return "/teacher/dashboard/"
	}
	return "/student/dashboard/"
}

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt int64  `json:"created_at"`
}

type Profile struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	Role       Role   `json:"role"`
	Phone      string `json:"phone"`
	PictureKey string `json:"picture_key,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

// Account is an identity together with its profile.
type Account struct {
	User    User    `json:"user"`
	Profile Profile `json:"profile"`
}

type RegisterInput struct {
	Username        string `validate:"required,max=150"`
	Email           string `validate:"required,email,max=254"`
	Password        string
	ConfirmPassword string
	Role            string
	Phone           string `validate:"max=15"`
	FirstName       string `validate:"max=150"`
	LastName        string `validate:"max=150"`
}

type PasswordChange struct {
	Old     string
	New     string
	Confirm string
}
