package query

import (
	"context"
	"strings"

	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/internal/domain/student"
	"github.com/mathhive/math-practice-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ALL-TIME RANK QUERY
// The broader lifetime-XP ranking. When the caller is outside the requested
// top slice, their rank is computed with a count-of-students-above query
// instead of loading the whole table.
// ══════════════════════════════════════════════════════════════════════════════

// defaultAllTimeLimit is the top-slice size when the caller does not ask for one.
const defaultAllTimeLimit = 20

// maxAllTimeLimit bounds the top slice.
const maxAllTimeLimit = 100

// AllTimeView is the composed all-time ranking.
type AllTimeView struct {
	Entries []student.RankedEntry `json:"entries"`
	OwnRank int                   `json:"own_rank"`
	OwnXP   int64                 `json:"own_xp"`
}

// TopCache caches the all-time top slice. A miss is (nil, false, nil).
type TopCache interface {
	GetTop(ctx context.Context) ([]student.RankedEntry, bool, error)
	SetTop(ctx context.Context, entries []student.RankedEntry) error
}

// GetAllTimeRankQuery contains the ranking request.
type GetAllTimeRankQuery struct {
	StudentID string
	Limit     int
}

// Validate validates the query and applies limit defaults.
func (q *GetAllTimeRankQuery) Validate() error {
	if strings.TrimSpace(q.StudentID) == "" {
		return shared.NewDomainError("league", "GetAllTimeRank", shared.ErrInvalidInput, "student_id is required")
	}
	if q.Limit <= 0 {
		q.Limit = defaultAllTimeLimit
	}
	if q.Limit > maxAllTimeLimit {
		q.Limit = maxAllTimeLimit
	}
	return nil
}

// GetAllTimeRankHandler handles GetAllTimeRankQuery.
type GetAllTimeRankHandler struct {
	students student.Repository
	cache    TopCache
	logger   *logger.Logger
}

// NewGetAllTimeRankHandler creates a GetAllTimeRankHandler. The cache is
// optional.
func NewGetAllTimeRankHandler(students student.Repository, cache TopCache, log *logger.Logger) *GetAllTimeRankHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetAllTimeRankHandler{
		students: students,
		cache:    cache,
		logger:   log.With(logger.String("handler", "get_alltime_rank")),
	}
}

// Handle composes the all-time view for the student.
func (h *GetAllTimeRankHandler) Handle(ctx context.Context, q GetAllTimeRankQuery) (*AllTimeView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s, err := h.students.GetByID(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	top, err := h.loadTop(ctx)
	if err != nil {
		return nil, err
	}
	if len(top) > q.Limit {
		top = top[:q.Limit]
	}

	view := &AllTimeView{Entries: top, OwnXP: s.LifetimeXP}
	for _, entry := range top {
		if entry.StudentID == q.StudentID {
			view.OwnRank = entry.Rank
			break
		}
	}
	if view.OwnRank == 0 {
		// Caller is outside the slice: rank via count-of-students-above.
		above, err := h.students.CountWithMoreXP(ctx, s.LifetimeXP)
		if err != nil {
			return nil, err
		}
		view.OwnRank = above + 1
	}
	return view, nil
}

// loadTop returns the cached top slice or rebuilds it from the repository.
func (h *GetAllTimeRankHandler) loadTop(ctx context.Context) ([]student.RankedEntry, error) {
	if h.cache != nil {
		top, hit, err := h.cache.GetTop(ctx)
		if err != nil {
			h.logger.Warn("top cache read failed", logger.Err(err))
		} else if hit {
			return top, nil
		}
	}

	top, err := h.students.TopByLifetimeXP(ctx, maxAllTimeLimit)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetTop(ctx, top); err != nil {
			h.logger.Warn("top cache write failed", logger.Err(err))
		}
	}
	return top, nil
}
