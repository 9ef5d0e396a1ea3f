package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

type cachedSession struct {
	session  *Session
	expireAt time.Time
}

// Cache Open sessions by id. Sessions idle for longer than the ttl are torn down.
type Cache struct {
	stop chan struct{}

	wg       sync.WaitGroup
	mu       sync.RWMutex
	clock    clockwork.Clock
	ttl      time.Duration
	sessions map[string]cachedSession
}

// NewCache Create a new session cache and start its cleanup loop
func NewCache(clock clockwork.Clock, ttl time.Duration, cleanupInterval time.Duration) *Cache {
	log.Info("Creating new session cache with cleanup interval ", cleanupInterval)
	c := &Cache{
		stop:     make(chan struct{}),
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[string]cachedSession),
	}

	ticker := clock.NewTicker(cleanupInterval)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()
		c.cleanupLoop(ticker)
	}()

	return c
}

// cleanupLoop Tear down and drop expired sessions on every tick
func (c *Cache) cleanupLoop(ticker clockwork.Ticker) {
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.Chan():
			c.Expire()
		}
	}
}

// Expire Tear down and drop every session whose ttl has passed
func (c *Cache) Expire() int {
	now := c.clock.Now()
	var expired []*Session

	c.mu.Lock()
	for id, cs := range c.sessions {
		if !cs.expireAt.After(now) {
			expired = append(expired, cs.session)
			delete(c.sessions, id)
		}
	}
	c.mu.Unlock()

	for _, s := range expired {
		log.Info("Session expired: ", s.ID)
		if err := s.Teardown(); err != nil {
			log.Warn(fmt.Sprintf("Teardown of expired session %s: %s", s.ID, err.Error()))
		}
	}
	return len(expired)
}

// Put Add a session to the cache
func (c *Cache) Put(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	log.Debug(fmt.Sprintf("Caching session %s", s.ID))
	c.sessions[s.ID] = cachedSession{session: s, expireAt: c.clock.Now().Add(c.ttl)}
	log.Debug(fmt.Sprintf("There are now %d sessions in cache", len(c.sessions)))
}

var ErrSessionNotInCache = errors.New("the session isn't in cache")

// Get Read a session from the cache and extend its ttl
func (c *Cache) Get(id string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cs, ok := c.sessions[id]
	if !ok {
		log.Debug("Session not found ", id)
		return nil, ErrSessionNotInCache
	}
	cs.expireAt = c.clock.Now().Add(c.ttl)
	c.sessions[id] = cs
	return cs.session, nil
}

// Delete Remove a session from the cache and tear it down
func (c *Cache) Delete(id string) error {
	c.mu.Lock()
	cs, ok := c.sessions[id]
	delete(c.sessions, id)
	c.mu.Unlock()

	if !ok {
		return ErrSessionNotInCache
	}
	return cs.session.Teardown()
}

// Len Number of cached sessions
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Close Stop the cleanup loop and tear down every session
func (c *Cache) Close() {
	close(c.stop)
	c.wg.Wait()

	c.mu.Lock()
	sessions := c.sessions
	c.sessions = make(map[string]cachedSession)
	c.mu.Unlock()

	log.Debug("Emptying complete session cache.")
	for id, cs := range sessions {
		if err := cs.session.Teardown(); err != nil {
			log.Warn(fmt.Sprintf("Teardown of session %s: %s", id, err.Error()))
		}
	}
}
