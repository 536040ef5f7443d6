package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                        uuid.UUID  `db:"id" json:"user_id"`
	SecurityStamp             uuid.UUID  `db:"security_stamp" json:"-"`
	Username                  string     `db:"username" json:"username"`
	Email                     string     `db:"email" json:"email"`
	PasswordHash              string     `db:"password_hash" json:"-"`
	Locked                    bool       `db:"locked" json:"-"`
	UnsuccessfulLoginAttempts int        `db:"unsuccessful_login_attempts" json:"-"`
	CreatedAt                 time.Time  `db:"created_at" json:"created_at"`
	LastLogin                 *time.Time `db:"last_login" json:"last_login,omitempty"`
}

func RegisterUser(
	username string,
	email string,
	password string,
	passwordHasher PasswordHasher,
) (User, error) {
	passwordHash, err := passwordHasher.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	return User{
		ID:            uuid.New(),
		SecurityStamp: uuid.New(),
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (u *User) Authenticate(password string, passwordHasher PasswordHasher) error {
	if u.Locked {
		return fmt.Errorf("authentication failed: account locked")
	}

	err := passwordHasher.Verify(u.PasswordHash, password)
	if err == nil {
		u.UnsuccessfulLoginAttempts = 0
		now := time.Now().UTC()
		u.LastLogin = &now
		return nil
	}

	reason := err.Error()

	u.UnsuccessfulLoginAttempts++

	if u.UnsuccessfulLoginAttempts >= 3 {
		u.Locked = true
		u.SecurityStamp = uuid.New()
		reason = "account locked"
	}

	return fmt.Errorf("authentication failed: %s", reason)
}
