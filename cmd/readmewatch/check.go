package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/abdulachik/readmewatch/internal/app"
	"github.com/abdulachik/readmewatch/internal/config"
	"github.com/abdulachik/readmewatch/internal/monitor"
)

type recordFetcher interface {
	FetchRecords(ctx context.Context) ([]monitor.Record, error)
}

func runCheck(ctx context.Context, cfg *config.Config, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	profile, err := cfg.ActiveProfile()
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	fmt.Fprintf(w, "Checking %s (%s)\n\n", profile.Description, profile.SourceURL)
	return checkRecords(ctx, app.NewSource(cfg, profile, true), w)
}

// checkRecords fetches the table once and prints each record. It fails when
// the fetch fails, no records are found, or any record has an empty field.
func checkRecords(ctx context.Context, src recordFetcher, w io.Writer) error {
	records, err := src.FetchRecords(ctx)
	if err != nil {
		return fmt.Errorf("fetch records: %w", err)
	}
	if len(records) == 0 {
		return errors.New("no records found")
	}

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
		fmt.Fprintf(w, "  %d. %s\n", i+1, r)
	}

	fmt.Fprintf(w, "\n%d records OK\n", len(records))
	return nil
}
