package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"forwardbot/internal/models"
	"forwardbot/internal/worker"
)

var (
	codePattern     = regexp.MustCompile(`^(\d\s*){5,}$`)
	channelPattern  = regexp.MustCompile(`^(@?\w+|-?\d+)$`)
	templatePattern = regexp.MustCompile(`.*\[.*\].*`)
	countPattern    = regexp.MustCompile(`^\d+$`)
)

// textTopic describes how free text answers a pending prompt
type textTopic struct {
	key     string
	pattern *regexp.Regexp
	saved   string
	exists  string // format with the stored value
}

var textTopics = map[Topic]textTopic{
	TopicSourceChannel:   {models.KeySourceChannel, channelPattern, msgSourceSaved, msgSourceExists},
	TopicTargetChannel:   {models.KeyTargetChannel, channelPattern, msgTargetSaved, msgTargetExists},
	TopicParseTemplate:   {models.KeyParseTemplate, templatePattern, msgParseSaved, msgParseExists},
	TopicCaptionTemplate: {models.KeyNewCaptionTemplate, templatePattern, msgCaptionSaved, msgCaptionExists},
}

// handleContact stores the phone from a shared contact and asks for the code
func (b *Bot) handleContact(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID

	phone := strings.TrimSpace(message.Contact.PhoneNumber)
	if phone == "" {
		b.send(chatID, msgContactFailed, contactKeyboard())
		return
	}

	if !b.saveField(ctx, chatID, userID, models.KeyPhone, phone) {
		return
	}

	b.logger.Info("Phone saved", zap.Int64("user_id", userID))
	b.setPending(userID, TopicCode)
	b.send(chatID, fmt.Sprintf(msgPhoneSaved, phone), mainMenuKeyboard())
	b.send(chatID, msgEnterCode, nil)
}

// handleFreeText routes text to the open prompt of the user.
// Text that does not fit the prompt is ignored and the prompt stays open.
func (b *Bot) handleFreeText(ctx context.Context, message *tgbotapi.Message, user models.UserRecord, text string) {
	if text == "" {
		return
	}

	topic := b.pendingTopic(user.UserID)

	if (topic == TopicNone || topic == TopicCode) && codePattern.MatchString(text) {
		b.handleCode(ctx, message, user, text)
		return
	}

	if topic == TopicNone || topic == TopicCode {
		b.logger.Debug("Ignoring free text without open prompt", zap.Int64("user_id", user.UserID))
		return
	}

	access := b.access(user)
	if !access.Full() {
		b.setPending(user.UserID, TopicNone)
		b.sendGatePrompt(message.Chat.ID, access)
		return
	}

	if topic == TopicPostsCount {
		b.handleCountInput(ctx, message, user, text)
		return
	}

	tt, ok := textTopics[topic]
	if !ok || !tt.pattern.MatchString(text) {
		b.logger.Debug("Input does not match open prompt",
			zap.Int64("user_id", user.UserID),
			zap.String("topic", string(topic)),
		)
		return
	}

	b.setPending(user.UserID, TopicNone)

	// First answer wins
	if user.Config.Has(tt.key) {
		b.send(message.Chat.ID, fmt.Sprintf(tt.exists, user.Config.String(tt.key)), mainMenuKeyboard())
		return
	}

	if !b.saveField(ctx, message.Chat.ID, user.UserID, tt.key, text) {
		return
	}
	b.send(message.Chat.ID, tt.saved, mainMenuKeyboard())
}

// handleCountInput stores a custom positive post count
func (b *Bot) handleCountInput(ctx context.Context, message *tgbotapi.Message, user models.UserRecord, text string) {
	if !countPattern.MatchString(text) {
		return
	}
	count, err := strconv.Atoi(text)
	if err != nil || count <= 0 {
		return
	}

	b.setPending(user.UserID, TopicNone)
	if !b.saveField(ctx, message.Chat.ID, user.UserID, models.KeyPostsCount, count) {
		return
	}
	b.send(message.Chat.ID, fmt.Sprintf(msgCountSaved, count), mainMenuKeyboard())
}

// normalizeCode drops the whitespace between code digits: "3 4 5 6 7" -> "34567"
func normalizeCode(text string) string {
	return strings.Join(strings.Fields(text), "")
}

// handleCode stores the login code and verifies it with the worker
func (b *Bot) handleCode(ctx context.Context, message *tgbotapi.Message, user models.UserRecord, text string) {
	chatID := message.Chat.ID
	code := normalizeCode(text)

	if !b.saveField(ctx, chatID, user.UserID, models.KeyAuthCode, code) {
		return
	}

	if !user.Config.Has(models.KeyPhone) {
		b.setPending(user.UserID, TopicNone)
		b.send(chatID, msgContactFirst, contactKeyboard())
		return
	}

	result := b.worker.CheckCode(ctx, user.UserID, user.Config.String(models.KeyPhone), code)
	b.logger.Info("Code checked",
		zap.Int64("user_id", user.UserID),
		zap.Stringer("status", result.Status),
		zap.Int("http_status", result.HTTPStatus),
	)

	switch {
	case result.OK():
		b.setPending(user.UserID, TopicNone)
		b.send(chatID, msgCodeOK, mainMenuKeyboard())
	case result.Status == worker.StatusTransportFailure:
		b.send(chatID, fmt.Sprintf(msgCodeTransport, result.Message), nil)
	case result.HTTPStatus == 200:
		reason := result.Message
		if reason == "" {
			reason = msgCodeRetry
		}
		b.setPending(user.UserID, TopicCode)
		b.send(chatID, fmt.Sprintf(msgCodeWrong, reason), nil)
	default:
		b.send(chatID, fmt.Sprintf(msgWorkerError, result.Message), nil)
	}
}
