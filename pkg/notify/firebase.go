package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"

	"github.com/deadline-tracker/deadline-tracker/pkg/config"
)

// ErrNoDeviceToken is returned when a push is requested for a user without a device token.
var ErrNoDeviceToken = errors.New("no device token")

// messagingClient is the part of *messaging.Client the pusher uses.
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FirebasePusher sends pushes through Firebase Cloud Messaging.
type FirebasePusher struct {
	client messagingClient
}

var _ Pusher = (*FirebasePusher)(nil)

// NewFirebasePusher builds a messaging client from service account fields.
func NewFirebasePusher(ctx context.Context, cfg *config.FirebaseConfig) (*FirebasePusher, error) {
	creds, err := serviceAccountJSON(cfg)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}
	return &FirebasePusher{client: client}, nil
}

func serviceAccountJSON(cfg *config.FirebaseConfig) ([]byte, error) {
	creds, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   cfg.ProjectID,
		"private_key":  cfg.PrivateKey,
		"client_email": cfg.ClientEmail,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode firebase credentials: %w", err)
	}
	return creds, nil
}

func (p *FirebasePusher) Push(ctx context.Context, deviceToken string, msg Message) error {
	if deviceToken == "" {
		return ErrNoDeviceToken
	}

	_, err := p.client.Send(ctx, &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	return nil
}
