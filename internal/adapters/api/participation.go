package api

import (
	"context"
	"strconv"

	"github.com/cedric28/spinbet-frontend/internal/domain/participation"
)

// Envelope is the {data: ...} wrapper the API puts around every resource.
type Envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// ParticipationService calls the participation resource. Every call sends the
// caller's bearer token; there is no client-side validation.
type ParticipationService struct {
	client *Client
}

// NewParticipationService binds the service to client.
func NewParticipationService(client *Client) *ParticipationService {
	return &ParticipationService{client: client}
}

// DeleteAck is the reply of a delete.
type DeleteAck struct {
	Message string `json:"message,omitempty"`
}

// Create adds a participation record for in.UserID.
func (s *ParticipationService) Create(ctx context.Context, in participation.Input, token string) (Envelope[participation.Record], error) {
	var out Envelope[participation.Record]
	err := s.client.Post(ctx, "/participation", in, &out, WithBearer(token))
	return out, err
}

// ListByUser fetches every record owned by userID, in API order.
func (s *ParticipationService) ListByUser(ctx context.Context, token string, userID int) (Envelope[[]participation.Record], error) {
	var out Envelope[[]participation.Record]
	err := s.client.Get(ctx, "/participation/user/"+strconv.Itoa(userID), &out, WithBearer(token))
	return out, err
}

// Update replaces record id with in.
func (s *ParticipationService) Update(ctx context.Context, in participation.Input, id int, token string) (Envelope[participation.Record], error) {
	var out Envelope[participation.Record]
	err := s.client.Put(ctx, "/participation/"+strconv.Itoa(id), in, &out, WithBearer(token))
	return out, err
}

// Delete removes record id.
func (s *ParticipationService) Delete(ctx context.Context, id int, token string) (DeleteAck, error) {
	var out DeleteAck
	err := s.client.Delete(ctx, "/participation/"+strconv.Itoa(id), &out, WithBearer(token))
	return out, err
}
