package telegram

import (
	"context"

	"github.com/goquant/quotewatch/internal/notify"
)

// Transport adapts Client to the notifier's delivery interface.
type Transport struct {
	client *Client
}

func NewTransport(client *Client) *Transport {
	return &Transport{client: client}
}

func (t *Transport) Send(ctx context.Context, chatID, text string) (notify.MessageRef, error) {
	id, err := t.client.SendMessage(ctx, chatID, text)
	if err != nil {
		return notify.MessageRef{}, err
	}
	return notify.MessageRef{ChatID: chatID, MessageID: id}, nil
}

func (t *Transport) Edit(ctx context.Context, ref notify.MessageRef, text string) error {
	return t.client.EditMessageText(ctx, ref.ChatID, ref.MessageID, text)
}
