package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: STUDENTS AND CONTENT CATALOG
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Students with their plan limits and daily counters. The daily counters are
-- authoritative: the usage gate locks this row for its read-modify-write.
CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    display_name VARCHAR(100) NOT NULL,
    grade INTEGER NOT NULL DEFAULT 0,
    lifetime_xp BIGINT NOT NULL DEFAULT 0,
    current_tier INTEGER NOT NULL DEFAULT 1,
    streak_days INTEGER NOT NULL DEFAULT 0,
    last_active_date DATE,
    daily_usage_minutes INTEGER NOT NULL DEFAULT 0,
    daily_limit_minutes INTEGER NOT NULL DEFAULT 60,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_tier CHECK (current_tier BETWEEN 1 AND 5),
    CONSTRAINT valid_lifetime_xp CHECK (lifetime_xp >= 0),
    CONSTRAINT valid_daily_limit CHECK (daily_limit_minutes > 0)
);

CREATE INDEX IF NOT EXISTS idx_students_lifetime_xp ON students(lifetime_xp DESC);

-- Static content catalog, seeded offline and immutable at runtime.
CREATE TABLE IF NOT EXISTS topics (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title VARCHAR(200) NOT NULL,
    chapter VARCHAR(100) NOT NULL,
    display_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS questions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    topic_id UUID NOT NULL REFERENCES topics(id),
    sub_topic VARCHAR(100) NOT NULL DEFAULT '',
    difficulty VARCHAR(10) NOT NULL,
    answer_key TEXT NOT NULL,
    steps JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_difficulty CHECK (difficulty IN ('easy', 'medium', 'hard'))
);

CREATE INDEX IF NOT EXISTS idx_questions_topic_id ON questions(topic_id);
CREATE INDEX IF NOT EXISTS idx_questions_topic_difficulty ON questions(topic_id, difficulty);
`

const migration001Down = `
DROP TABLE IF EXISTS questions;
DROP TABLE IF EXISTS topics;
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: ATTEMPTS, USAGE LOGS, PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Append-only attempt log. Never updated, never deleted; mastery is always
-- recomputed from this table.
CREATE TABLE IF NOT EXISTS attempts (
    id UUID PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES students(id),
    question_id UUID NOT NULL REFERENCES questions(id),
    topic_id UUID NOT NULL REFERENCES topics(id),
    selected_answer TEXT NOT NULL DEFAULT '',
    is_correct BOOLEAN NOT NULL,
    time_taken_ms INTEGER NOT NULL DEFAULT 0,
    hint_used BOOLEAN NOT NULL DEFAULT FALSE,
    is_bonus_question BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_time_taken CHECK (time_taken_ms >= 0)
);

CREATE INDEX IF NOT EXISTS idx_attempts_student_topic ON attempts(student_id, topic_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_attempts_student_created ON attempts(student_id, created_at DESC);

-- One row per (student, UTC day). The uniqueness constraint plus
-- upsert-increment writes make the daily counters race-free.
CREATE TABLE IF NOT EXISTS usage_logs (
    id SERIAL PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES students(id),
    day DATE NOT NULL,
    attempted_count INTEGER NOT NULL DEFAULT 0,
    minutes_used INTEGER NOT NULL DEFAULT 0,
    xp_earned INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT valid_xp_earned CHECK (xp_earned >= 0),
    UNIQUE(student_id, day)
);

CREATE INDEX IF NOT EXISTS idx_usage_logs_student_day ON usage_logs(student_id, day DESC);

-- Derived per-(student, topic) mastery aggregate. Rebuilt idempotently from
-- the attempt log by the recompute worker.
CREATE TABLE IF NOT EXISTS progress (
    student_id UUID NOT NULL REFERENCES students(id),
    topic_id UUID NOT NULL REFERENCES topics(id),
    attempted INTEGER NOT NULL DEFAULT 0,
    correct INTEGER NOT NULL DEFAULT 0,
    mastery VARCHAR(20) NOT NULL DEFAULT 'not_started',
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_mastery CHECK (mastery IN ('not_started', 'practicing', 'mastered')),
    PRIMARY KEY (student_id, topic_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS progress;
DROP TABLE IF EXISTS usage_logs;
DROP TABLE IF EXISTS attempts;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: LEAGUES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- One league per (tier, week). rolled_over_at is the rollover guard: a
-- conditional update claims it, so each league is processed at most once.
CREATE TABLE IF NOT EXISTS leagues (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tier INTEGER NOT NULL,
    week_start DATE NOT NULL,
    rolled_over_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_league_tier CHECK (tier BETWEEN 1 AND 5),
    UNIQUE(tier, week_start)
);

CREATE INDEX IF NOT EXISTS idx_leagues_week_start ON leagues(week_start);

-- week_start is denormalized from the league so the database itself holds the
-- one-bucket-per-(student, week) rule. Concurrent creators racing into
-- different tiers' leagues collide on UNIQUE(student_id, week_start) and
-- converge on the row that won.
CREATE TABLE IF NOT EXISTS league_memberships (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id),
    league_id UUID NOT NULL REFERENCES leagues(id),
    week_start DATE NOT NULL,
    weekly_xp INTEGER NOT NULL DEFAULT 0,
    promoted BOOLEAN NOT NULL DEFAULT FALSE,
    demoted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_weekly_xp CHECK (weekly_xp >= 0),
    UNIQUE(student_id, league_id),
    UNIQUE(student_id, week_start)
);

CREATE INDEX IF NOT EXISTS idx_memberships_league_xp ON league_memberships(league_id, weekly_xp DESC);
CREATE INDEX IF NOT EXISTS idx_memberships_student ON league_memberships(student_id);
`

const migration003Down = `
DROP TABLE IF EXISTS league_memberships;
DROP TABLE IF EXISTS leagues;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_students_and_catalog",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_attempts_usage_progress",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_leagues",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}
