package store

import (
	"context"

	"github.com/campuscode/leetboard/internal/model"
)

// Store defines the persistence interface for the roster and stats snapshots.
type Store interface {
	// Roster
	UpsertStudents(ctx context.Context, students []model.Student) (int, error)
	ListStudents(ctx context.Context) ([]model.Student, error)

	// Stats snapshots
	LastKnown(ctx context.Context) (map[string]model.StatRecord, error)
	SaveStats(ctx context.Context, results []model.StudentResult) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
