package progression

import (
	"time"

	"github.com/julianstephens/questlog/internal/models"
)

// RecordLogin updates the profile's login streak for a sign-in at now.
// A second login on the same calendar day changes nothing, a login on the
// following day extends the streak, and any longer gap restarts it at 1.
// The boolean reports whether the streak changed.
func RecordLogin(p models.Profile, now time.Time) (models.Profile, bool) {
	out := p.Clone()
	today := dayOf(now)

	switch {
	case p.LastLogin == nil:
		out.LoginStreak = 1
	case dayOf(p.LastLogin.In(now.Location())).Equal(today):
		return out, false
	case dayOf(p.LastLogin.In(now.Location())).AddDate(0, 0, 1).Equal(today):
		out.LoginStreak = p.LoginStreak + 1
	default:
		out.LoginStreak = 1
	}

	out.LastLogin = &now
	return out, true
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
