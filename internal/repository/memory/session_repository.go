package memory

import (
	"time"

	"ai-flashdeck-be/pkg/deck"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository creates the live deck session cache. Sessions idle
// for a day are purged; the durable store still holds their document and
// cards for restore.
func NewSessionRepository() *SessionRepository {
	c := cache.New(24*time.Hour, 1*time.Hour)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *deck.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*deck.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*deck.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
