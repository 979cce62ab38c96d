package student

import "context"

// RankedEntry is one row of the all-time ranking read model.
type RankedEntry struct {
	StudentID   string
	DisplayName string
	LifetimeXP  int64
	Rank        int
}

// Repository persists students.
type Repository interface {
	// Create inserts a new student.
	// Returns shared.ErrStudentAlreadyExists on duplicate ID.
	Create(ctx context.Context, s *Student) error

	// GetByID returns a student by internal ID.
	// Returns shared.ErrStudentNotFound when missing.
	GetByID(ctx context.Context, id string) (*Student, error)

	// Exists reports whether a student with the given ID exists.
	Exists(ctx context.Context, id string) (bool, error)

	// TopByLifetimeXP returns the top-N all-time ranking slice ordered by
	// lifetime XP descending, ties broken by ID ascending.
	TopByLifetimeXP(ctx context.Context, limit int) ([]RankedEntry, error)

	// CountWithMoreXP returns how many students have strictly more lifetime
	// XP. Used to compute a rank for callers outside the top slice.
	CountWithMoreXP(ctx context.Context, xp int64) (int, error)
}
