package migrate

import (
	"context"
)

// StatusReporter renders applied/pending state for human consumption. It
// reads registry and ledger without taking the lock; a concurrent runner may
// change the answer between calls, which is acceptable for a status view.
type StatusReporter struct {
	registry *Registry
	ledger   *Ledger
}

// NewStatusReporter creates a status reporter.
func NewStatusReporter(registry *Registry, ledger *Ledger) *StatusReporter {
	return &StatusReporter{registry: registry, ledger: ledger}
}

// Status combines the registry's known versions with the ledger's applied
// records. Applied entries keep the description snapshot recorded at apply
// time; ledger rows without a matching definition still show up as applied.
func (s *StatusReporter) Status(ctx context.Context) (StatusView, error) {
	var view StatusView

	defs, err := s.registry.Load()
	if err != nil {
		return view, err
	}

	if err := s.ledger.EnsureInitialized(ctx); err != nil {
		return view, err
	}
	records, err := s.ledger.ListApplied(ctx)
	if err != nil {
		return view, err
	}

	recorded := make(map[string]struct{}, len(records))
	for _, rec := range records {
		recorded[rec.Version] = struct{}{}
		view.Applied = append(view.Applied, StatusEntry{
			Version:       rec.Version,
			Description:   rec.Description,
			Applied:       true,
			AppliedAt:     rec.AppliedAt,
			ExecutionTime: rec.ExecutionTime,
		})
		if rec.Version > view.CurrentVersion {
			view.CurrentVersion = rec.Version
		}
	}

	for _, def := range defs {
		if _, ok := recorded[def.Version]; ok {
			continue
		}
		view.Pending = append(view.Pending, StatusEntry{
			Version:     def.Version,
			Description: def.Description,
		})
	}

	return view, nil
}
