package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"forwardbot/internal/models"
)

// handleCheckSubCallback re-checks membership after "Я підписався"
func (b *Bot) handleCheckSubCallback(ctx context.Context, chatID int64, user models.UserRecord) {
	b.checkSubscription(ctx, chatID, user, msgNotSubscribed)
}

// handleCountCallback processes the post count menu
func (b *Bot) handleCountCallback(ctx context.Context, chatID int64, user models.UserRecord, data string) {
	if data == cbCountCustom {
		b.setPending(user.UserID, TopicPostsCount)
		b.send(chatID, msgAskCountNumber, nil)
		return
	}

	b.setPending(user.UserID, TopicNone)
	if !b.saveField(ctx, chatID, user.UserID, models.KeyPostsCount, models.PostsCountAll) {
		return
	}
	b.send(chatID, msgCountAll, mainMenuKeyboard())
}

// handleModeCallback processes the mode menu
func (b *Bot) handleModeCallback(ctx context.Context, chatID int64, user models.UserRecord, data string) {
	mode := models.ModeForward
	if data == cbModeEdit {
		mode = models.ModeEdit
	}

	b.setPending(user.UserID, TopicNone)
	if !b.saveField(ctx, chatID, user.UserID, models.KeyMode, mode) {
		return
	}
	b.send(chatID, fmt.Sprintf(msgModeSaved, modeLabels[mode]), mainMenuKeyboard())
}

// saveField writes one config key and reports storage failures to the user
func (b *Bot) saveField(ctx context.Context, chatID, userID int64, key string, value any) bool {
	if err := b.users.SetConfigField(ctx, userID, key, value); err != nil {
		b.logger.Error("Failed to save config field",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("key", key),
		)
		b.send(chatID, msgInternalError, nil)
		return false
	}

	b.logger.Debug("Config field saved",
		zap.Int64("user_id", userID),
		zap.String("key", key),
	)
	return true
}
