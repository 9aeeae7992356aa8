package timeclock

import (
	"strings"
	"time"
)

// =============================================================================
// USER DIRECTORY
// =============================================================================

// User is an employee known to the engine. Punches are accepted for any user
// id; the directory adds a display name and a personal closing day.
type User struct {
	ID         UserID
	Name       string
	Email      string
	ClosingDay int // 0 means the company default
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ClosingDayFor returns the user's closing day, falling back to the
// company-wide one.
func (u User) ClosingDayFor(s Settings) int {
	if u.ClosingDay >= 1 && u.ClosingDay <= 31 {
		return u.ClosingDay
	}
	return s.ClosingDay
}

// DisplayName returns the name, or the id when no name is set.
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	return string(u.ID)
}

func findUser(users []User, id UserID) (User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// upsertUser replaces the user with the same id or appends it. CreatedAt is
// preserved across updates.
func upsertUser(users []User, u User, now time.Time) ([]User, User) {
	u.UpdatedAt = now
	for i := range users {
		if users[i].ID == u.ID {
			u.CreatedAt = users[i].CreatedAt
			users[i] = u
			return users, u
		}
	}
	u.CreatedAt = now
	return append(users, u), u
}
