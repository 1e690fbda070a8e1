package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"bikeshare/internal/entities"
	apperrors "bikeshare/internal/errors"
)

func (c *Client) CreateReservation(ctx context.Context, req entities.ReservationRequest) (*entities.Reservation, error) {
	body, err := c.do(ctx, http.MethodPost, c.endpoint("/api/reserve", nil), req)
	if err != nil {
		return nil, err
	}
	var res entities.Reservation
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("reserve: %v: %w", err, apperrors.ErrMalformedPayload)
	}
	if res.ID == "" {
		return nil, fmt.Errorf("reserve: missing reservation_id: %w", apperrors.ErrMalformedPayload)
	}
	return &res, nil
}

func (c *Client) ListReservations(ctx context.Context, userEmail string) ([]entities.Reservation, error) {
	q := url.Values{"user_email": {userEmail}}
	body, err := c.do(ctx, http.MethodGet, c.endpoint("/api/reservations", q), nil)
	if err != nil {
		return nil, err
	}
	var list entities.ReservationsList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("reservations: %v: %w", err, apperrors.ErrMalformedPayload)
	}
	return list.Reservations, nil
}

func (c *Client) UpdateReservation(ctx context.Context, id string, upd entities.ReservationUpdate) error {
	_, err := c.do(ctx, http.MethodPut, c.endpoint("/api/reservations/"+url.PathEscape(id), nil), upd)
	return err
}

func (c *Client) CancelReservation(ctx context.Context, id, userEmail string) error {
	q := url.Values{"user_email": {userEmail}}
	_, err := c.do(ctx, http.MethodDelete, c.endpoint("/api/reservations/"+url.PathEscape(id), q), nil)
	return err
}

// SendContact forwards the contact form as-is.
func (c *Client) SendContact(ctx context.Context, req entities.ContactRequest) error {
	_, err := c.do(ctx, http.MethodPost, c.endpoint("/api/contact", nil), req)
	return err
}
