package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// ValuesAPI is the subset of spreadsheets.values used by Logger.
type ValuesAPI interface {
	Get(ctx context.Context, spreadsheetID, readRange string) (*gsheets.ValueRange, error)
	Append(ctx context.Context, spreadsheetID, writeRange string, values *gsheets.ValueRange) error
}

type serviceValues struct {
	svc *gsheets.Service
}

// NewValuesAPI builds a Sheets client authenticated by ts.
func NewValuesAPI(ctx context.Context, ts oauth2.TokenSource) (ValuesAPI, error) {
	svc, err := gsheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &serviceValues{svc: svc}, nil
}

func (s *serviceValues) Get(ctx context.Context, spreadsheetID, readRange string) (*gsheets.ValueRange, error) {
	return s.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
}

func (s *serviceValues) Append(ctx context.Context, spreadsheetID, writeRange string, values *gsheets.ValueRange) error {
	_, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, writeRange, values).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
