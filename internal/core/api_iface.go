package core

import (
	"context"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// ConversationsAPI is the REST collaborator backing conversation state.
type ConversationsAPI interface {
	// CreateCall places an outbound call and returns the conversation id.
	CreateCall(ctx context.Context, phoneNumber string) (domain.ConversationID, error)

	// Participants fetches the conversation-calls participant list.
	Participants(ctx context.Context, id domain.ConversationID) ([]domain.Participant, error)

	// PatchParticipant updates a participant's muted/held/state fields.
	PatchParticipant(ctx context.Context, id domain.ConversationID, participantID string, patch domain.ParticipantPatch) error
}
