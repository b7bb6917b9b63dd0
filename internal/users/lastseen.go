package users

import (
	"database/sql"
	"time"
)

// LastSeen satisfies presence.LastSeenStore: stamp the user on every
// connect and disconnect.
type LastSeen struct {
	DB *sql.DB
}

func (l LastSeen) TouchLastSeen(userID int64) error {
	_, err := l.DB.Exec(`UPDATE users SET last_seen=? WHERE id=?`, time.Now().UTC(), userID)
	return err
}
