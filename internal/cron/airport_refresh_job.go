package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/closurehq/laser-backend/internal/locations"
	"github.com/closurehq/laser-backend/pkg/logger"
)

type airportCatalog interface {
	Refresh(ctx context.Context) (*locations.RefreshResult, error)
	Staleness() time.Duration
}

// AirportRefreshJobParams configure the airport catalog refresh.
type AirportRefreshJobParams struct {
	Logger  *logger.Logger
	Catalog airportCatalog
}

// NewAirportRefreshJob builds the cron job that re-pulls the airport catalog
// from the flight data provider.
func NewAirportRefreshJob(params AirportRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("location catalog required")
	}
	return &airportRefreshJob{
		logg:    params.Logger,
		catalog: params.Catalog,
	}, nil
}

type airportRefreshJob struct {
	logg    *logger.Logger
	catalog airportCatalog
}

func (j *airportRefreshJob) Name() string { return "airport-refresh" }

func (j *airportRefreshJob) Run(ctx context.Context) error {
	staleness := j.catalog.Staleness()
	result, err := j.catalog.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh airport catalog: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"fetched":      result.Fetched,
		"inserted":     result.Inserted,
		"skipped":      result.Skipped,
		"previous_age": staleness.String(),
	})
	j.logg.Info(logCtx, "airport catalog refresh complete")
	return nil
}
