package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bikeshare/internal/entities"
	apperrors "bikeshare/internal/errors"
)

// ListStations fetches GET /api/stations. A body that is not a JSON array of
// station records yields errors.ErrMalformedPayload.
func (c *Client) ListStations(ctx context.Context) ([]entities.Station, error) {
	body, err := c.do(ctx, http.MethodGet, c.endpoint("/api/stations", nil), nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("stations: expected a list: %w", apperrors.ErrMalformedPayload)
	}
	var stations []entities.Station
	if err := json.Unmarshal(trimmed, &stations); err != nil {
		return nil, fmt.Errorf("stations: %v: %w", err, apperrors.ErrMalformedPayload)
	}
	return stations, nil
}
