package redis

import (
	"context"
	"errors"

	"github.com/mathhive/math-practice-hub/internal/application/query"
	"github.com/mathhive/math-practice-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// Implements query.BoardCache and query.TopCache. A cache miss is
// (nil, false, nil); only real transport failures surface as errors, and the
// queries treat even those as soft.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache caches ranked weekly boards and the all-time top slice.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// GetBoard returns one league's cached ranked board.
func (c *LeaderboardCache) GetBoard(ctx context.Context, leagueID string) ([]query.WeeklyMemberEntry, bool, error) {
	var board []query.WeeklyMemberEntry
	err := c.cache.Get(ctx, BoardKey(leagueID), &board)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return board, true, nil
}

// SetBoard caches one league's ranked board.
func (c *LeaderboardCache) SetBoard(ctx context.Context, leagueID string, board []query.WeeklyMemberEntry) error {
	return c.cache.Set(ctx, BoardKey(leagueID), board, TTLBoardCache)
}

// GetTop returns the cached all-time top slice.
func (c *LeaderboardCache) GetTop(ctx context.Context) ([]student.RankedEntry, bool, error) {
	var top []student.RankedEntry
	err := c.cache.Get(ctx, PrefixAllTimeTop, &top)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return top, true, nil
}

// SetTop caches the all-time top slice.
func (c *LeaderboardCache) SetTop(ctx context.Context, entries []student.RankedEntry) error {
	return c.cache.Set(ctx, PrefixAllTimeTop, entries, TTLAllTimeTop)
}

// InvalidateBoards drops every cached weekly board. Called after the weekly
// rollover so stale promote/demote markers never outlive the closed week.
func (c *LeaderboardCache) InvalidateBoards(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixLeagueBoard+"*")
}
