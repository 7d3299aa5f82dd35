package locations

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/flightlabs"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// AirportSource provides the remote airport catalog.
type AirportSource interface {
	Airports(ctx context.Context) ([]flightlabs.Airport, error)
}

// Service defines the location catalog operations.
type Service interface {
	Refresh(ctx context.Context) (*RefreshResult, error)
	LastRefresh() (time.Time, bool)
	Staleness() time.Duration
	Get(ctx context.Context, id uuid.UUID) (*models.Location, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	Search(ctx context.Context, field, value string, params pagination.Params) (*ListResult, error)
	Create(ctx context.Context, input CreateInput) (*models.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RefreshResult summarizes a catalog refresh.
type RefreshResult struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// ListResult wraps paginated locations plus the next page cursor.
type ListResult struct {
	Locations  []models.Location `json:"locations"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// CreateInput carries a manually added location.
type CreateInput struct {
	Country string
	City    string
	Airport string
	Details *string
}

type service struct {
	repo   Repository
	source AirportSource
	logg   *logger.Logger
	now    func() time.Time

	mu          sync.Mutex
	lastRefresh time.Time
}

// NewService wires the location catalog dependencies.
func NewService(repo Repository, source AirportSource, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("locations repository required")
	}
	if source == nil {
		return nil, fmt.Errorf("airport source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, source: source, logg: logg, now: time.Now}, nil
}

// Refresh pulls the remote airport catalog and inserts the airports we have
// not seen yet. Existing rows are never touched.
func (s *service) Refresh(ctx context.Context) (*RefreshResult, error) {
	airports, err := s.source.Airports(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(airports))
	seen := make(map[string]struct{}, len(airports))
	for _, a := range airports {
		if _, dup := seen[a.Name]; dup {
			continue
		}
		seen[a.Name] = struct{}{}
		names = append(names, a.Name)
	}

	existing, err := s.repo.ExistingAirports(ctx, names)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing airports")
	}

	missing := make([]models.Location, 0, len(airports))
	clear(seen)
	for _, a := range airports {
		if _, dup := seen[a.Name]; dup {
			continue
		}
		seen[a.Name] = struct{}{}
		if _, ok := existing[a.Name]; ok {
			continue
		}
		missing = append(missing, models.Location{
			Country: a.Country,
			City:    a.City,
			Airport: a.Name,
		})
	}

	inserted, err := s.repo.InsertMissing(ctx, missing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert locations")
	}

	s.mu.Lock()
	s.lastRefresh = s.now().UTC()
	s.mu.Unlock()

	result := &RefreshResult{
		Fetched:  len(airports),
		Inserted: inserted,
		Skipped:  len(airports) - inserted,
	}
	s.logg.Info(
		s.logg.WithFields(ctx, map[string]any{
			"fetched":  result.Fetched,
			"inserted": result.Inserted,
		}),
		"location catalog refreshed",
	)
	return result, nil
}

// LastRefresh reports when the catalog was last refreshed in this process.
// The bool is false until the first successful refresh.
func (s *service) LastRefresh() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh, !s.lastRefresh.IsZero()
}

// Staleness reports the age of the catalog since the last refresh. It is
// zero while no refresh has completed yet.
func (s *service) Staleness() time.Duration {
	last, ok := s.LastRefresh()
	if !ok {
		return 0
	}
	age := s.now().UTC().Sub(last)
	if age < 0 {
		return 0
	}
	return age
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}
	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	return location, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	return buildListResult(rows, next), nil
}

func (s *service) Search(ctx context.Context, field, value string, params pagination.Params) (*ListResult, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	if _, ok := searchableFields[field]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search field must be country, city or airport")
	}
	if strings.TrimSpace(value) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search value required")
	}

	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}

	rows, next, err := s.repo.Search(ctx, field, value, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search locations")
	}
	return buildListResult(rows, next), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Location, error) {
	airport := strings.TrimSpace(input.Airport)
	if airport == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "airport name required")
	}
	if strings.TrimSpace(input.Country) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "country required")
	}

	if _, err := s.repo.FindByAirport(ctx, airport); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "airport already exists")
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check airport")
	}

	location, err := s.repo.Create(ctx, &models.Location{
		Country: strings.TrimSpace(input.Country),
		City:    strings.TrimSpace(input.City),
		Airport: airport,
		Details: input.Details,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create location")
	}
	return location, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete location")
	}
	return nil
}

func buildListParams(params pagination.Params) (listParams, error) {
	query := listParams{Limit: pagination.LimitWithBuffer(params.Limit)}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return listParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	return query, nil
}

func buildListResult(rows []models.Location, next *pagination.Cursor) *ListResult {
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Locations: rows, NextCursor: cursor}
}
