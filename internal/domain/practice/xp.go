package practice

// DailyXPCap is the maximum XP a student may earn in one UTC calendar day.
// The attempt-recording transaction enforces it atomically.
const DailyXPCap = 500

// RewardPolicy computes the raw, uncapped XP for an attempt. Implementations
// must be pure and satisfy the reward contract:
//   - never negative
//   - zero when the answer is incorrect
//   - monotonic in speed: a faster correct answer never earns less
//
// The concrete curve is policy, not protocol, so it is swappable.
type RewardPolicy interface {
	RawXP(isCorrect, isBonusQuestion bool, timeTakenMs int) int
}

// StandardRewardPolicy is the default reward curve: a flat base for a correct
// answer, a multiplier for bonus questions, and a stepped speed bonus.
type StandardRewardPolicy struct {
	// BaseXP is awarded for any correct answer.
	BaseXP int

	// BonusMultiplier scales the total for bonus-flagged questions.
	BonusMultiplier int

	// FastMs and FastBonus: answers at or under FastMs earn FastBonus extra.
	FastMs    int
	FastBonus int

	// QuickMs and QuickBonus: answers at or under QuickMs (but over FastMs)
	// earn QuickBonus extra. QuickBonus must not exceed FastBonus, keeping
	// the curve monotonic in speed.
	QuickMs    int
	QuickBonus int
}

// DefaultRewardPolicy returns the standard curve used in production.
func DefaultRewardPolicy() *StandardRewardPolicy {
	return &StandardRewardPolicy{
		BaseXP:          10,
		BonusMultiplier: 2,
		FastMs:          5000,
		FastBonus:       5,
		QuickMs:         15000,
		QuickBonus:      2,
	}
}

// RawXP implements RewardPolicy.
func (p *StandardRewardPolicy) RawXP(isCorrect, isBonusQuestion bool, timeTakenMs int) int {
	if !isCorrect {
		return 0
	}

	xp := p.BaseXP
	switch {
	case timeTakenMs <= p.FastMs:
		xp += p.FastBonus
	case timeTakenMs <= p.QuickMs:
		xp += p.QuickBonus
	}

	if isBonusQuestion && p.BonusMultiplier > 1 {
		xp *= p.BonusMultiplier
	}

	if xp < 0 {
		xp = 0
	}
	return xp
}

// ClampToDailyCap computes the awarded XP given the raw reward and the XP
// already earned today: max(0, min(rawXP, DailyXPCap - xpSoFar)).
// Callers must invoke this inside the same transaction that read xpSoFar.
func ClampToDailyCap(rawXP, xpSoFar int) int {
	if rawXP <= 0 {
		return 0
	}
	headroom := DailyXPCap - xpSoFar
	if headroom <= 0 {
		return 0
	}
	if rawXP > headroom {
		return headroom
	}
	return rawXP
}
