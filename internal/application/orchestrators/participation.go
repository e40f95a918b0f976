package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cedric28/spinbet-frontend/internal/adapters/api"
	"github.com/cedric28/spinbet-frontend/internal/domain/participation"
	"github.com/cedric28/spinbet-frontend/internal/domain/session"
)

// Success texts of the participation mutations.
const (
	MsgCreated = "Participation created successfully!"
	MsgUpdated = "Participation updated successfully!"
	MsgDeleted = "Your participation has been deleted."
)

// MsgNetworkError is shown when the API could not be reached.
const MsgNetworkError = "Network Error"

// ErrInvalidRecordID is returned for non-positive record ids.
var ErrInvalidRecordID = errors.New("invalid participation id")

// ParticipationAPI defines the API interface needed by the participation orchestrators.
type ParticipationAPI interface {
	Create(ctx context.Context, in participation.Input, token string) (api.Envelope[participation.Record], error)
	ListByUser(ctx context.Context, token string, userID int) (api.Envelope[[]participation.Record], error)
	Update(ctx context.Context, in participation.Input, id int, token string) (api.Envelope[participation.Record], error)
	Delete(ctx context.Context, id int, token string) (api.DeleteAck, error)
}

// Actor identifies who is calling the API.
type Actor struct {
	UserID    int
	AuthToken string
}

// ActorFromUser builds an Actor from the session user.
func ActorFromUser(u session.User) (Actor, error) {
	id, err := u.NumericID()
	if err != nil {
		return Actor{}, err
	}
	return Actor{UserID: id, AuthToken: u.AuthToken}, nil
}

// ParticipationDeps holds dependencies for the participation orchestrators.
type ParticipationDeps struct {
	API ParticipationAPI
}

// MutationResult carries the refreshed list after a successful mutation.
type MutationResult struct {
	Message string
	Records []participation.Record
}

// ErrRefreshFailed wraps a list failure that followed a successful mutation.
var ErrRefreshFailed = errors.New("refresh after mutation failed")

// ExecuteListParticipation returns the actor's records in API order.
// PRE: actor comes from an authenticated session
// POST: Returns the API's current list
func ExecuteListParticipation(ctx context.Context, actor Actor, deps ParticipationDeps) ([]participation.Record, error) {
	env, err := deps.API.ListByUser(ctx, actor.AuthToken, actor.UserID)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []participation.Record{}, nil
	}
	return env.Data, nil
}

// CreateParticipationInput carries input for the create orchestrator.
type CreateParticipationInput struct {
	Actor Actor
	Input participation.Input
}

// ExecuteCreateParticipation creates a record and re-fetches the list.
// PRE: Input passed ParticipationForm validation
// POST: Records equals the next ListByUser result
func ExecuteCreateParticipation(ctx context.Context, input CreateParticipationInput, deps ParticipationDeps) (MutationResult, error) {
	in := input.Input
	in.UserID = input.Actor.UserID
	if _, err := deps.API.Create(ctx, in, input.Actor.AuthToken); err != nil {
		return MutationResult{}, err
	}
	slog.Info("participation_event", "event", "created", "user_id", input.Actor.UserID)
	return refresh(ctx, input.Actor, MsgCreated, deps)
}

// UpdateParticipationInput carries input for the update orchestrator.
type UpdateParticipationInput struct {
	Actor Actor
	ID    int
	Input participation.Input
}

// ExecuteUpdateParticipation replaces a record and re-fetches the list.
// PRE: ID > 0; Input passed ParticipationForm validation
// POST: Records equals the next ListByUser result
func ExecuteUpdateParticipation(ctx context.Context, input UpdateParticipationInput, deps ParticipationDeps) (MutationResult, error) {
	if input.ID <= 0 {
		return MutationResult{}, ErrInvalidRecordID
	}
	in := input.Input
	in.UserID = input.Actor.UserID
	if _, err := deps.API.Update(ctx, in, input.ID, input.Actor.AuthToken); err != nil {
		return MutationResult{}, err
	}
	slog.Info("participation_event", "event", "updated", "user_id", input.Actor.UserID, "id", input.ID)
	return refresh(ctx, input.Actor, MsgUpdated, deps)
}

// DeleteParticipationInput carries input for the delete orchestrator.
type DeleteParticipationInput struct {
	Actor Actor
	ID    int
}

// ExecuteDeleteParticipation removes a record and re-fetches the list.
// PRE: ID > 0; the user confirmed the deletion
// POST: Records equals the next ListByUser result
func ExecuteDeleteParticipation(ctx context.Context, input DeleteParticipationInput, deps ParticipationDeps) (MutationResult, error) {
	if input.ID <= 0 {
		return MutationResult{}, ErrInvalidRecordID
	}
	if _, err := deps.API.Delete(ctx, input.ID, input.Actor.AuthToken); err != nil {
		return MutationResult{}, err
	}
	slog.Info("participation_event", "event", "deleted", "user_id", input.Actor.UserID, "id", input.ID)
	return refresh(ctx, input.Actor, MsgDeleted, deps)
}

// refresh re-reads the list; the mutation itself already succeeded.
func refresh(ctx context.Context, actor Actor, msg string, deps ParticipationDeps) (MutationResult, error) {
	records, err := ExecuteListParticipation(ctx, actor, deps)
	if err != nil {
		return MutationResult{Message: msg}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return MutationResult{Message: msg, Records: records}, nil
}

// MutationErrorText is the error popup text for a failed call: the API
// message when present, otherwise a description of the failure.
func MutationErrorText(err error) string {
	apiErr, ok := api.AsError(err)
	if !ok {
		return err.Error()
	}
	switch {
	case apiErr.Message != "":
		return apiErr.Message
	case apiErr.HasResponse():
		return fmt.Sprintf("Request failed with status code %d", apiErr.StatusCode)
	case errors.Is(apiErr, api.ErrRequestSetup):
		return apiErr.Error()
	default:
		return MsgNetworkError
	}
}
