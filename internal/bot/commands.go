package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"forwardbot/internal/models"
	"forwardbot/internal/worker"
)

const historyLimit = 10

// handleStart greets the user according to the current access level
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message, user models.UserRecord) {
	chatID := message.Chat.ID
	access := b.access(user)

	b.logger.Info("Start command",
		zap.Int64("user_id", user.UserID),
		zap.Stringer("access", access),
	)

	switch access {
	case AccessOwner:
		b.send(chatID, msgOwnerWelcome, mainMenuKeyboard())
	case AccessTrial:
		b.send(chatID, fmt.Sprintf(msgTrialWelcome, trialText(b.trialPeriod)), mainMenuKeyboard())
	case AccessNeedPhone:
		b.send(chatID, msgSendContact, contactKeyboard())
	case AccessSubscribed:
		b.send(chatID, msgSubscribed, mainMenuKeyboard())
	case AccessNeedSubscription:
		b.checkSubscription(ctx, chatID, user, msgSubscribe)
	}
}

// checkSubscription asks the gate and either unlocks the menu or shows the subscribe prompt
func (b *Bot) checkSubscription(ctx context.Context, chatID int64, user models.UserRecord, failText string) {
	if !b.gate.IsMember(ctx, user.UserID) {
		b.send(chatID, failText, b.subscribeKeyboard())
		return
	}

	if err := b.users.SetSubscribed(ctx, user.UserID, true); err != nil {
		b.logger.Error("Failed to persist subscription",
			zap.Error(err),
			zap.Int64("user_id", user.UserID),
		)
		b.send(chatID, msgInternalError, nil)
		return
	}

	b.logger.Info("User subscribed", zap.Int64("user_id", user.UserID))
	b.send(chatID, msgSubscribed, mainMenuKeyboard())
}

// handleHistory shows the last launches of the user
func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if b.journal == nil {
		b.send(chatID, msgHistoryDisabled, nil)
		return
	}

	launches, err := b.journal.RecentLaunches(ctx, message.From.ID, historyLimit)
	if err != nil {
		b.logger.Error("Failed to read launch history",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
		)
		b.send(chatID, msgInternalError, nil)
		return
	}

	if len(launches) == 0 {
		b.send(chatID, msgHistoryEmpty, nil)
		return
	}

	var text strings.Builder
	text.WriteString(msgHistoryTitle)
	text.WriteString("\n\n")
	for i, launch := range launches {
		text.WriteString(fmt.Sprintf("%d. %s - %s",
			i+1,
			launch.SubmittedAt.Format("2006-01-02 15:04"),
			outcomeLabels[launch.Outcome]))
		if launch.Message != "" {
			text.WriteString(fmt.Sprintf(" (%s)", launch.Message))
		}
		text.WriteByte('\n')
	}

	b.send(chatID, text.String(), nil)
}

// handleLogin asks for the contact, or for the code when the phone is known
func (b *Bot) handleLogin(ctx context.Context, message *tgbotapi.Message, user models.UserRecord) {
	if !user.Config.Has(models.KeyPhone) {
		b.send(message.Chat.ID, msgLoginContact, contactKeyboard())
		return
	}

	b.setPending(user.UserID, TopicCode)
	b.send(message.Chat.ID, fmt.Sprintf(msgLoginCode, user.Config.String(models.KeyPhone)), nil)
}

func (b *Bot) handleSourceChannel(ctx context.Context, message *tgbotapi.Message, user models.UserRecord) {
	b.setPending(user.UserID, TopicSourceChannel)
	b.send(message.Chat.ID, msgAskSource, nil)
}

func (b *Bot) handleTargetChannel(ctx context.Context, message *tgbotapi.Message, user models.UserRecord) {
	b.setPending(user.UserID, TopicTargetChannel)
	b.send(message.Chat.ID, msgAskTarget, nil)
}

func (b *Bot) handleParseTemplate(ctx context.Context, message *tgbotapi.Message, user models.UserRecord) {
	b.setPending(user.UserID, TopicParseTemplate)
	b.send(message.Chat.ID, msgAskParse, nil)
}

func (b *Bot) handleCaptionTemplate(ctx context.Context, message *tgbotapi.Message, user models.UserRecord) {
	b.setPending(user.UserID, TopicCaptionTemplate)
	b.send(message.Chat.ID, msgAskCaption, nil)
}

func (b *Bot) handlePostsCount(ctx context.Context, message *tgbotapi.Message, user models.UserRecord) {
	b.send(message.Chat.ID, msgAskCount, countKeyboard())
}

func (b *Bot) handleMode(ctx context.Context, message *tgbotapi.Message, user models.UserRecord) {
	b.send(message.Chat.ID, msgAskMode, modeKeyboard())
}

// handleConfirm submits the whole configuration to the worker.
// Absent keys only produce a warning; the worker decides whether the task can run.
func (b *Bot) handleConfirm(ctx context.Context, message *tgbotapi.Message, user models.UserRecord) {
	chatID := message.Chat.ID
	cfg := user.Config.Clone()

	if err := cfg.Validate(); err != nil {
		b.send(chatID, fmt.Sprintf(msgLaunchInvalid, err), mainMenuKeyboard())
		return
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		labels := make([]string, 0, len(missing))
		for _, key := range missing {
			labels = append(labels, keyLabels[key])
		}
		b.send(chatID, fmt.Sprintf(msgLaunchMissing, strings.Join(labels, ", ")), nil)
	}

	result := b.worker.StartTask(ctx, user.UserID, cfg)
	b.logger.Info("Task submitted",
		zap.Int64("user_id", user.UserID),
		zap.Stringer("status", result.Status),
		zap.Int("http_status", result.HTTPStatus),
	)
	b.recordLaunch(ctx, user.UserID, cfg, result)

	if result.OK() {
		b.send(chatID, fmt.Sprintf(msgLaunchOK, cfg.Dump()), mainMenuKeyboard())
		return
	}

	text := msgLaunchFailed
	if result.Message != "" {
		text += "\n" + result.Message
	}
	b.send(chatID, text, mainMenuKeyboard())
}

// recordLaunch journals a submission; failures are logged only
func (b *Bot) recordLaunch(ctx context.Context, userID int64, cfg models.Config, result worker.Result) {
	if b.journal == nil {
		return
	}

	encoded, err := json.Marshal(cfg)
	if err != nil {
		b.logger.Warn("Failed to encode config for journal", zap.Error(err), zap.Int64("user_id", userID))
	}

	launch := models.Launch{
		UserID:      userID,
		SubmittedAt: b.now(),
		Outcome:     launchOutcome(result.Status),
		Message:     result.Message,
		Config:      string(encoded),
	}
	if err := b.journal.RecordLaunch(ctx, launch); err != nil {
		b.logger.Error("Failed to record launch", zap.Error(err), zap.Int64("user_id", userID))
	}
}

func launchOutcome(status worker.Status) models.LaunchOutcome {
	switch status {
	case worker.StatusSuccess:
		return models.OutcomeSuccess
	case worker.StatusRejected:
		return models.OutcomeRejected
	default:
		return models.OutcomeTransportFailure
	}
}
