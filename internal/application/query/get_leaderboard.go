package query

import (
	"context"
	"strings"
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/league"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY LEADERBOARD QUERY
// Composes the student's current-week league view: members ranked by weekly
// XP, the promote/demote thresholds recomputed with the rollover's formula,
// and the caller's own rank even when outside a display slice.
// ══════════════════════════════════════════════════════════════════════════════

// WeeklyMemberEntry is one ranked row of the league view.
type WeeklyMemberEntry struct {
	Rank        int    `json:"rank"`
	StudentID   string `json:"student_id"`
	DisplayName string `json:"display_name"`
	WeeklyXP    int    `json:"weekly_xp"`
	Promoted    bool   `json:"promoted,omitempty"`
	Demoted     bool   `json:"demoted,omitempty"`
}

// WeeklyLeagueView is the composed weekly leaderboard.
type WeeklyLeagueView struct {
	LeagueID     string              `json:"league_id"`
	Tier         int                 `json:"tier"`
	TierName     string              `json:"tier_name"`
	WeekStart    time.Time           `json:"week_start"`
	Members      []WeeklyMemberEntry `json:"members"`
	TotalMembers int                 `json:"total_members"`
	PromoteCount int                 `json:"promote_count"`
	DemoteCount  int                 `json:"demote_count"`
	OwnRank      int                 `json:"own_rank"`
	OwnWeeklyXP  int                 `json:"own_weekly_xp"`
}

// BoardCache caches ranked league boards. A miss is (nil, false, nil);
// cache failures are soft, the query falls through to the repository.
type BoardCache interface {
	GetBoard(ctx context.Context, leagueID string) ([]WeeklyMemberEntry, bool, error)
	SetBoard(ctx context.Context, leagueID string, board []WeeklyMemberEntry) error
}

// MembershipProvider resolves the caller's current-week membership,
// creating it when missing. Implemented by the league lifecycle service.
type MembershipProvider interface {
	EnsureMembership(ctx context.Context, studentID string) (*league.Membership, *league.League, error)
}

// GetLeaderboardQuery identifies the requesting student.
type GetLeaderboardQuery struct {
	StudentID string
}

// Validate validates the query.
func (q GetLeaderboardQuery) Validate() error {
	if strings.TrimSpace(q.StudentID) == "" {
		return shared.NewDomainError("league", "GetLeaderboard", shared.ErrInvalidInput, "student_id is required")
	}
	return nil
}

// GetLeaderboardHandler handles GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	memberships MembershipProvider
	leagues     league.Repository
	cache       BoardCache
	logger      *logger.Logger
}

// NewGetLeaderboardHandler creates a GetLeaderboardHandler. The cache is
// optional.
func NewGetLeaderboardHandler(
	memberships MembershipProvider,
	leagues league.Repository,
	cache BoardCache,
	log *logger.Logger,
) *GetLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetLeaderboardHandler{
		memberships: memberships,
		leagues:     leagues,
		cache:       cache,
		logger:      log.With(logger.String("handler", "get_leaderboard")),
	}
}

// Handle composes the weekly league view for the student.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*WeeklyLeagueView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	_, lg, err := h.memberships.EnsureMembership(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	board, cached, err := h.loadBoard(ctx, lg.ID)
	if err != nil {
		return nil, err
	}
	if cached && !boardContains(board, q.StudentID) {
		// The board was cached before this caller's membership existed.
		// Rebuild from the repository so OwnRank never reads 0 for a
		// member.
		board, err = h.fetchBoard(ctx, lg.ID)
		if err != nil {
			return nil, err
		}
	}

	promoteCount, demoteCount := league.PromoteDemoteCounts(len(board))
	view := &WeeklyLeagueView{
		LeagueID:     lg.ID,
		Tier:         int(lg.Tier),
		TierName:     lg.Tier.Name(),
		WeekStart:    lg.WeekStart,
		Members:      board,
		TotalMembers: len(board),
		PromoteCount: promoteCount,
		DemoteCount:  demoteCount,
	}
	for _, entry := range board {
		if entry.StudentID == q.StudentID {
			view.OwnRank = entry.Rank
			view.OwnWeeklyXP = entry.WeeklyXP
			break
		}
	}
	return view, nil
}

// loadBoard returns the ranked board and whether it came from the cache.
func (h *GetLeaderboardHandler) loadBoard(ctx context.Context, leagueID string) ([]WeeklyMemberEntry, bool, error) {
	if h.cache != nil {
		board, hit, err := h.cache.GetBoard(ctx, leagueID)
		if err != nil {
			h.logger.Warn("board cache read failed", logger.Err(err))
		} else if hit {
			return board, true, nil
		}
	}

	board, err := h.fetchBoard(ctx, leagueID)
	return board, false, err
}

// fetchBoard ranks the board from the repository and refreshes the cache.
func (h *GetLeaderboardHandler) fetchBoard(ctx context.Context, leagueID string) ([]WeeklyMemberEntry, error) {
	rows, err := h.leagues.MemberBoard(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	board := rankBoard(rows)

	if h.cache != nil {
		if err := h.cache.SetBoard(ctx, leagueID, board); err != nil {
			h.logger.Warn("board cache write failed", logger.Err(err))
		}
	}
	return board, nil
}

// boardContains reports whether the board lists the student.
func boardContains(board []WeeklyMemberEntry, studentID string) bool {
	for _, entry := range board {
		if entry.StudentID == studentID {
			return true
		}
	}
	return false
}

// rankBoard orders rows with the rollover's exact ranking rule and assigns
// 1-based ranks.
func rankBoard(rows []league.MemberRow) []WeeklyMemberEntry {
	members := make([]*league.Membership, len(rows))
	byID := make(map[string]league.MemberRow, len(rows))
	for i, row := range rows {
		members[i] = &league.Membership{
			ID:        row.MembershipID,
			StudentID: row.StudentID,
			WeeklyXP:  row.WeeklyXP,
		}
		byID[row.MembershipID] = row
	}
	league.RankMembers(members)

	board := make([]WeeklyMemberEntry, len(members))
	for i, m := range members {
		row := byID[m.ID]
		board[i] = WeeklyMemberEntry{
			Rank:        i + 1,
			StudentID:   row.StudentID,
			DisplayName: row.DisplayName,
			WeeklyXP:    row.WeeklyXP,
			Promoted:    row.Promoted,
			Demoted:     row.Demoted,
		}
	}
	return board
}
