package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Sender delivers push notifications through FCM to every device token
// registered for a user.
type Sender struct {
	client  *messaging.Client
	devices repository.DeviceRepository
}

func NewSender(ctx context.Context, credentialsFile string, devices repository.DeviceRepository) (*Sender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	return &Sender{client: client, devices: devices}, nil
}

// SendToUser multicasts to all of the user's registered tokens. A user with
// no devices is not an error.
func (s *Sender) SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	tokens, err := s.devices.ListTokens(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	if resp.FailureCount > 0 {
		log.Warn().
			Str("user_id", userID.String()).
			Int("failures", resp.FailureCount).
			Int("successes", resp.SuccessCount).
			Msg("partial push delivery")
	}
	return nil
}
