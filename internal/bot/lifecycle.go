package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var errNoClient = errors.New("bot API client is not configured")

// Run processes queued updates one at a time until ctx is cancelled
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("Update loop started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Update loop stopped")
			return
		case update := <-b.updates:
			b.HandleUpdate(ctx, update)
		}
	}
}

// Enqueue hands an update to the update loop; false if ctx ends first
func (b *Bot) Enqueue(ctx context.Context, update tgbotapi.Update) bool {
	select {
	case b.updates <- update:
		return true
	case <-ctx.Done():
		return false
	}
}

// StartPolling starts long polling and feeds updates to the loop
func (b *Bot) StartPolling(ctx context.Context) error {
	if b.client == nil {
		return errNoClient
	}
	b.logger.Info("Starting bot in polling mode")

	// Remove webhook (if any was set previously)
	if _, err := b.client.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.client.GetUpdatesChan(u)

	go func() {
		defer b.client.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if !b.Enqueue(ctx, update) {
					return
				}
			}
		}
	}()

	b.logger.Info("Bot started successfully. Waiting for updates...")
	return nil
}

// StartWebhook registers webhookURL/telegram-webhook with Telegram
func (b *Bot) StartWebhook(webhookURL string) error {
	if b.client == nil {
		return errNoClient
	}
	b.logger.Info("Setting up webhook", zap.String("webhook_url", webhookURL))

	webhookConfig, err := tgbotapi.NewWebhook(webhookURL + webhookPath)
	if err != nil {
		return err
	}
	webhookConfig.MaxConnections = 40

	if _, err := b.client.Request(webhookConfig); err != nil {
		b.logger.Error("Failed to set webhook", zap.Error(err), zap.String("webhook_url", webhookURL))
		return err
	}

	info, err := b.client.GetWebhookInfo()
	if err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
	} else {
		b.logger.Info("Webhook set successfully",
			zap.String("url", info.URL),
			zap.Int("pending_updates", info.PendingUpdateCount),
		)
	}
	return nil
}

// HandleUpdate dispatches a single update
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	default:
		b.logger.Debug("Ignoring update", zap.Int("update_id", update.UpdateID))
	}
}
