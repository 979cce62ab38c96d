package practice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardRewardPolicy_IncorrectEarnsNothing(t *testing.T) {
	policy := DefaultRewardPolicy()

	assert.Equal(t, 0, policy.RawXP(false, false, 1000))
	assert.Equal(t, 0, policy.RawXP(false, true, 1000))
}

func TestStandardRewardPolicy_BaseAndBonus(t *testing.T) {
	policy := DefaultRewardPolicy()

	slow := policy.RawXP(true, false, 60000)
	assert.Equal(t, policy.BaseXP, slow)

	bonus := policy.RawXP(true, true, 60000)
	assert.Equal(t, policy.BaseXP*policy.BonusMultiplier, bonus)
}

func TestStandardRewardPolicy_SpeedBonus(t *testing.T) {
	policy := DefaultRewardPolicy()

	fast := policy.RawXP(true, false, 3000)
	quick := policy.RawXP(true, false, 10000)
	slow := policy.RawXP(true, false, 60000)

	assert.Equal(t, policy.BaseXP+policy.FastBonus, fast)
	assert.Equal(t, policy.BaseXP+policy.QuickBonus, quick)
	assert.Greater(t, fast, quick)
	assert.Greater(t, quick, slow)
}

func TestStandardRewardPolicy_MonotonicInSpeed(t *testing.T) {
	policy := DefaultRewardPolicy()

	// Faster correct answers never earn less, sampled across the curve.
	prev := -1
	for ms := 120000; ms >= 0; ms -= 500 {
		xp := policy.RawXP(true, false, ms)
		if prev >= 0 {
			assert.GreaterOrEqual(t, xp, prev, "reward dropped as speed improved at %dms", ms)
		}
		prev = xp
	}
}

func TestClampToDailyCap(t *testing.T) {
	// Nothing earned today: full raw award.
	assert.Equal(t, 15, ClampToDailyCap(15, 0))

	// Near the cap: only the headroom is granted. A correct non-bonus
	// 3000ms answer with 495 XP already earned awards min(rawXP, 5).
	policy := DefaultRewardPolicy()
	raw := policy.RawXP(true, false, 3000)
	awarded := ClampToDailyCap(raw, 495)
	assert.Equal(t, 5, awarded)

	// At or over the cap: zero.
	assert.Equal(t, 0, ClampToDailyCap(50, DailyXPCap))
	assert.Equal(t, 0, ClampToDailyCap(50, DailyXPCap+10))

	// Zero or negative raw XP awards nothing.
	assert.Equal(t, 0, ClampToDailyCap(0, 100))
	assert.Equal(t, 0, ClampToDailyCap(-5, 100))
}
