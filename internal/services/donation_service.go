// Package services orchestrates donation writes and dashboard reads across the
// SQLite store, the donor-search cache and the AMQP publisher.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fooddrive/internal/cache"
	"fooddrive/internal/core"
	"fooddrive/internal/log"
)

const (
	// MinSearchLength is the shortest query that reaches the store.
	MinSearchLength = 2
	// SearchLimit caps donor-name suggestions.
	SearchLimit = 10

	searchCacheSize = 256
	searchCacheTTL  = time.Minute
)

// DonationStore is the persistence the service needs.
type DonationStore interface {
	CreateDonation(ctx context.Context, d core.Donation) (core.Donation, core.Snapshot, error)
	Recalculate(ctx context.Context) (core.Snapshot, error)
	ReadSnapshot(ctx context.Context) (core.Snapshot, error)
	SearchDonorNames(ctx context.Context, query string, limit int) ([]string, error)
}

// Publisher announces committed donations.
type Publisher interface {
	PublishDonationCreated(ctx context.Context, id int64) error
}

// CreateResult is returned to the admin after a donation is recorded.
type CreateResult struct {
	Success     bool          `json:"success"`
	TotalAmount float64       `json:"totalAmount"`
	Donation    core.Donation `json:"-"`
}

// Dashboard is the public read model: the stored snapshot plus goal progress.
type Dashboard struct {
	core.Snapshot
	GoalAmount   float64            `json:"goalAmount"`
	GoalProgress float64            `json:"goalProgress"`
	Houses       []core.RankedHouse `json:"-"`
}

type DonationService struct {
	store     DonationStore
	publisher Publisher
	search    *cache.LRUCache[[]string]
	goalLbs   float64
	logger    *log.Logger
}

// NewDonationService wires the service. publisher may be nil when AMQP is disabled.
func NewDonationService(store DonationStore, publisher Publisher, goalLbs float64, logger *log.Logger) *DonationService {
	if logger == nil {
		logger = log.Default(log.ComponentDonation)
	}
	return &DonationService{
		store:     store,
		publisher: publisher,
		search:    cache.NewLRUCache[[]string](searchCacheSize, searchCacheTTL),
		goalLbs:   goalLbs,
		logger:    logger,
	}
}

// SearchCache exposes the donor-name cache so it can be registered for cleanup.
func (s *DonationService) SearchCache() *cache.LRUCache[[]string] {
	return s.search
}

// CreateDonation validates d, stores it and refreshes the aggregates in one
// transaction. Validation failures wrap a core sentinel error.
func (s *DonationService) CreateDonation(ctx context.Context, d core.Donation) (CreateResult, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return CreateResult{}, err
	}
	if d.HouseOnNonStudent() {
		s.logger.WarnContext(ctx, "House recorded for non-student donor",
			log.FieldDonorName, d.Name, log.FieldRole, string(d.Role), log.FieldHouse, string(d.House))
	}

	saved, snapshot, err := s.store.CreateDonation(ctx, d)
	if err != nil {
		return CreateResult{}, fmt.Errorf("save donation: %w", err)
	}
	s.search.Purge()

	s.logger.InfoContext(ctx, "Donation recorded",
		log.NewFields().
			WithDonation(saved.ID, saved.Name, string(saved.Role), string(saved.House), saved.Amount).
			WithOperation(log.OpCreate).
			ToSlice()...)

	if err := s.publish(ctx, saved.ID); err != nil {
		s.logger.LogError(ctx, "Failed to publish donation event", err, log.OpSync,
			log.LogFields{log.FieldDonationID: saved.ID})
	}

	return CreateResult{Success: true, TotalAmount: snapshot.TotalAmount, Donation: saved}, nil
}

func (s *DonationService) publish(ctx context.Context, id int64) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP disabled, skipping donation event", log.FieldDonationID, id)
		return nil
	}
	return s.publisher.PublishDonationCreated(ctx, id)
}

// Recalculate rebuilds the aggregate snapshot from every stored donation.
func (s *DonationService) Recalculate(ctx context.Context) (core.RecalculationStats, error) {
	start := time.Now()
	snapshot, err := s.store.Recalculate(ctx)
	if err != nil {
		return core.RecalculationStats{}, fmt.Errorf("recalculate: %w", err)
	}
	stats := snapshot.Stats()
	s.logger.InfoContext(ctx, "Aggregates recalculated",
		log.FieldOperation, log.OpRecalculate,
		log.FieldTotalLbs, stats.TotalAmount,
		"students", stats.TotalStudents,
		log.FieldDuration, time.Since(start).Milliseconds())
	return stats, nil
}

// Dashboard reads only the stored snapshot.
func (s *DonationService) Dashboard(ctx context.Context) (Dashboard, error) {
	snapshot, err := s.store.ReadSnapshot(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("read snapshot: %w", err)
	}
	return Dashboard{
		Snapshot:     snapshot,
		GoalAmount:   s.goalLbs,
		GoalProgress: core.GoalProgress(snapshot.TotalAmount, s.goalLbs),
		Houses:       core.RankHouses(snapshot.HouseDonations),
	}, nil
}

// SearchDonors suggests existing donor names containing query.
func (s *DonationService) SearchDonors(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchLength {
		return []string{}, nil
	}

	key := strings.ToLower(query)
	if names, ok := s.search.Get(key); ok {
		return names, nil
	}

	names, err := s.store.SearchDonorNames(ctx, query, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search donors: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	s.search.Set(key, names)
	return names, nil
}
