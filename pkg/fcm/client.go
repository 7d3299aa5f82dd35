// pkg/fcm/client.go
package fcm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/closurehq/laser-backend/pkg/logger"
)

var errCredentialsRequired = errors.New("firebase credentials file is required")

// Message is the push payload delivered to a device token.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers push notifications. Satisfied by *Client and by test stubs.
type Sender interface {
	Send(ctx context.Context, token string, msg Message) error
}

// Client wraps Firebase Cloud Messaging.
type Client struct {
	messaging *messaging.Client
	logg      *logger.Logger
}

// NewClient initializes the Firebase app and its messaging client.
func NewClient(ctx context.Context, credentialsFile string, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(credentialsFile) == "" {
		return nil, errCredentialsRequired
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating messaging client: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "firebase messaging client initialized")
	}

	return &Client{messaging: client, logg: logg}, nil
}

// Send pushes a single notification to the given device token.
func (c *Client) Send(ctx context.Context, token string, msg Message) error {
	if c == nil || c.messaging == nil {
		return errors.New("fcm client not initialized")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("device token is required")
	}

	out := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:        "default",
				DefaultSound: true,
			},
		},
	}

	id, err := c.messaging.Send(ctx, out)
	if err != nil {
		return fmt.Errorf("sending push message: %w", err)
	}

	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "message_id", id), "push notification sent")
	}
	return nil
}

// NopSender drops every message. Used when Firebase is not configured.
type NopSender struct{}

func (NopSender) Send(context.Context, string, Message) error { return nil }
