package push

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type Alert struct {
	Title string
	Body  string
	Data  map[string]string
}

type Sender interface {
	Send(ctx context.Context, a Alert) error
}

// FCMSender publishes alerts to a Firebase Cloud Messaging topic that the
// dashboard apps subscribe to.
type FCMSender struct {
	client *messaging.Client
	topic  string
}

func NewFCMSender(ctx context.Context, credentialsFile, topic string) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	log.Printf("[INFO] firebase messaging ready (topic=%s)", topic)
	return &FCMSender{client: client, topic: topic}, nil
}

func (s *FCMSender) Send(ctx context.Context, a Alert) error {
	_, err := s.client.Send(ctx, buildMessage(s.topic, a))
	if err != nil {
		return fmt.Errorf("send fcm message: %w", err)
	}
	return nil
}

func buildMessage(topic string, a Alert) *messaging.Message {
	return &messaging.Message{
		Topic: topic,
		Data:  a.Data,
		Notification: &messaging.Notification{
			Title: a.Title,
			Body:  a.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Color: "#D32F2F",
				Sound: "default",
			},
		},
	}
}
