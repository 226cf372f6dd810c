package services

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
	"github.com/custodia-labs/deskfind/internal/logger"
)

// DefaultNicknameTTL bounds staleness of the active-nickname snapshot.
const DefaultNicknameTTL = 5 * time.Minute

type nicknameSnapshot struct {
	names    []string
	loadedAt time.Time
}

// NicknameCache holds the process-wide list of active member nicknames,
// sorted longest-first so substring matching prefers "안은지" over "은지".
//
// Readers get an immutable snapshot without locking; a single writer
// refreshes it when the TTL expires. Load failures keep the previous
// snapshot, so reads are stale-but-bounded, never missing.
type NicknameCache struct {
	members driven.MemberStore
	ttl     time.Duration
	now     func() time.Time

	refreshMu sync.Mutex
	snap      atomic.Pointer[nicknameSnapshot]
}

// NewNicknameCache creates a cache over the member directory.
// A non-positive ttl falls back to DefaultNicknameTTL.
func NewNicknameCache(members driven.MemberStore, ttl time.Duration) *NicknameCache {
	if ttl <= 0 {
		ttl = DefaultNicknameTTL
	}
	return &NicknameCache{members: members, ttl: ttl, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (c *NicknameCache) SetClock(now func() time.Time) {
	c.now = now
}

// Active returns the current nickname snapshot, refreshing it when expired.
func (c *NicknameCache) Active(ctx context.Context) []string {
	if snap := c.snap.Load(); snap != nil && len(snap.names) > 0 &&
		c.now().Sub(snap.loadedAt) < c.ttl {
		return snap.names
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another writer may have refreshed while we waited.
	if snap := c.snap.Load(); snap != nil && len(snap.names) > 0 &&
		c.now().Sub(snap.loadedAt) < c.ttl {
		return snap.names
	}

	loaded, err := c.members.ActiveNicknames(ctx)
	if err != nil {
		logger.Warn("Nickname cache refresh failed: %v", err)
		if snap := c.snap.Load(); snap != nil {
			return snap.names
		}
		return nil
	}

	names := make([]string, 0, len(loaded))
	for _, n := range loaded {
		if n != "" {
			names = append(names, n)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return utf8.RuneCountInString(names[i]) > utf8.RuneCountInString(names[j])
	})

	c.snap.Store(&nicknameSnapshot{names: names, loadedAt: c.now()})
	logger.Debug("Nickname cache refreshed: %d active nicknames", len(names))
	return names
}
