// Package league contains the weekly competitive buckets: leagues keyed by
// (tier, UTC week start), the per-student weekly memberships, and the
// promotion/demotion math the rollover and the leaderboard view share.
package league

import (
	"sort"
	"time"
)

// Tier is an ordered league rank, carried across weeks via promotion and
// demotion at rollover.
type Tier int

const (
	TierBronze  Tier = 1
	TierSilver  Tier = 2
	TierGold    Tier = 3
	TierDiamond Tier = 4
	TierLegend  Tier = 5

	MinTier = TierBronze
	MaxTier = TierLegend
)

var tierNames = map[Tier]string{
	TierBronze:  "Bronze",
	TierSilver:  "Silver",
	TierGold:    "Gold",
	TierDiamond: "Diamond",
	TierLegend:  "Legend",
}

// Name returns the tier's display name.
func (t Tier) Name() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether t is within the tier range.
func (t Tier) IsValid() bool {
	return t >= MinTier && t <= MaxTier
}

// Promoted returns the next tier up, capped at the maximum.
func (t Tier) Promoted() Tier {
	if t >= MaxTier {
		return MaxTier
	}
	return t + 1
}

// Demoted returns the next tier down, floored at the minimum.
func (t Tier) Demoted() Tier {
	if t <= MinTier {
		return MinTier
	}
	return t - 1
}

// League is one weekly bucket: exactly one row per (tier, week start).
// RolledOverAt is the rollover idempotence guard: a non-nil value means this
// league's week has been processed and the job must skip it on re-runs.
type League struct {
	ID           string
	Tier         Tier
	WeekStart    time.Time
	RolledOverAt *time.Time
	CreatedAt    time.Time
}

// Membership is a student's participation record in one league week.
// At most one membership exists per (student, week); creation is
// get-or-create. Promoted/Demoted are set at rollover and then carried as
// history.
type Membership struct {
	ID        string
	StudentID string
	LeagueID  string
	WeekStart time.Time
	WeeklyXP  int
	Promoted  bool
	Demoted   bool
	CreatedAt time.Time
}

// PromoteDemoteCounts computes how many members move at rollover:
// max(1, floor(0.2 * memberCount)) each way. An empty league moves nobody.
func PromoteDemoteCounts(memberCount int) (promote, demote int) {
	if memberCount == 0 {
		return 0, 0
	}
	n := memberCount / 5
	if n < 1 {
		n = 1
	}
	return n, n
}

// RankMembers sorts memberships by weekly XP descending, ties broken by
// stable student-ID order. Both the rollover and the leaderboard view rank
// with this exact rule.
func RankMembers(members []*Membership) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].WeeklyXP != members[j].WeeklyXP {
			return members[i].WeeklyXP > members[j].WeeklyXP
		}
		return members[i].StudentID < members[j].StudentID
	})
}
