package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"forwardbot/internal/models"
)

// menuTopics maps main menu buttons to their handlers
var menuTopics = map[string]func(b *Bot, ctx context.Context, message *tgbotapi.Message, user models.UserRecord){
	btnLogin:           (*Bot).handleLogin,
	btnSourceChannel:   (*Bot).handleSourceChannel,
	btnTargetChannel:   (*Bot).handleTargetChannel,
	btnParseTemplate:   (*Bot).handleParseTemplate,
	btnCaptionTemplate: (*Bot).handleCaptionTemplate,
	btnPostsCount:      (*Bot).handlePostsCount,
	btnMode:            (*Bot).handleMode,
	btnConfirm:         (*Bot).handleConfirm,
}

// handleMessage processes a single message
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}

	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage",
				zap.Any("panic", r),
				zap.Int64("user_id", message.From.ID),
			)
			b.send(message.Chat.ID, msgInternalError, nil)
		}
	}()

	userID := message.From.ID
	user, err := b.users.GetOrCreate(ctx, userID, b.now())
	if err != nil {
		b.logger.Error("Failed to load user", zap.Error(err), zap.Int64("user_id", userID))
		b.send(message.Chat.ID, msgInternalError, nil)
		return
	}

	switch {
	case message.Contact != nil:
		b.handleContact(ctx, message)
	case message.IsCommand():
		// Any command closes the open prompt
		b.setPending(userID, TopicNone)
		switch message.Command() {
		case "start":
			b.handleStart(ctx, message, user)
		case "history":
			b.handleHistory(ctx, message)
		default:
			b.logger.Debug("Unknown command",
				zap.Int64("user_id", userID),
				zap.String("command", message.Command()),
			)
		}
	default:
		text := strings.TrimSpace(message.Text)
		if handler, ok := menuTopics[text]; ok {
			b.handleMenuTopic(ctx, message, user, handler)
			return
		}
		b.handleFreeText(ctx, message, user, text)
	}
}

// handleMenuTopic opens a topic when the user has full access,
// otherwise repeats the gating prompt
func (b *Bot) handleMenuTopic(
	ctx context.Context,
	message *tgbotapi.Message,
	user models.UserRecord,
	handler func(b *Bot, ctx context.Context, message *tgbotapi.Message, user models.UserRecord),
) {
	access := b.access(user)
	if !access.Full() {
		b.logger.Debug("Menu access denied",
			zap.Int64("user_id", user.UserID),
			zap.Stringer("access", access),
		)
		b.sendGatePrompt(message.Chat.ID, access)
		return
	}

	b.setPending(user.UserID, TopicNone)
	handler(b, ctx, message, user)
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil {
		return
	}

	// Every query is answered, even when handling fails
	defer b.answerCallback(query)

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery",
				zap.Any("panic", r),
				zap.Int64("user_id", query.From.ID),
			)
		}
	}()

	userID := query.From.ID
	chatID := callbackChatID(query)

	user, err := b.users.GetOrCreate(ctx, userID, b.now())
	if err != nil {
		b.logger.Error("Failed to load user", zap.Error(err), zap.Int64("user_id", userID))
		b.send(chatID, msgInternalError, nil)
		return
	}

	if query.Data == cbCheckSub {
		b.handleCheckSubCallback(ctx, chatID, user)
		return
	}

	access := b.access(user)
	if !access.Full() {
		b.sendGatePrompt(chatID, access)
		return
	}

	switch query.Data {
	case cbCountAll, cbCountCustom:
		b.handleCountCallback(ctx, chatID, user, query.Data)
	case cbModeForward, cbModeEdit:
		b.handleModeCallback(ctx, chatID, user, query.Data)
	default:
		b.logger.Debug("Unknown callback data",
			zap.Int64("user_id", userID),
			zap.String("callback_data", query.Data),
		)
	}
}

func callbackChatID(query *tgbotapi.CallbackQuery) int64 {
	if query.Message != nil && query.Message.Chat != nil {
		return query.Message.Chat.ID
	}
	return query.From.ID
}

func (b *Bot) access(user models.UserRecord) Access {
	return DeriveAccess(user, b.ownerID, b.trialPeriod, b.now())
}

// sendGatePrompt repeats what the user must do to unlock the menu
func (b *Bot) sendGatePrompt(chatID int64, access Access) {
	switch access {
	case AccessNeedPhone:
		b.send(chatID, msgSendContact, contactKeyboard())
	case AccessNeedSubscription:
		b.send(chatID, msgSubscribe, b.subscribeKeyboard())
	}
}
