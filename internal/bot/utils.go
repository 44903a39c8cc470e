package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"forwardbot/internal/models"
)

// Main menu buttons
const (
	btnLogin           = "🔐 Логін до акаунту"
	btnSourceChannel   = "🧷 Канал-джерело"
	btnTargetChannel   = "📤 Канал-приймач"
	btnParseTemplate   = "🧩 Шаблон парсингу"
	btnCaptionTemplate = "🖋 Шаблон нового опису"
	btnPostsCount      = "🔢 Кількість постів"
	btnMode            = "🔁 Режим"
	btnConfirm         = "✅ Підтвердити запуск"
	btnSendContact     = "Надіслати контакт"
)

// Callback data
const (
	cbCheckSub    = "check_sub"
	cbCountAll    = "count_all"
	cbCountCustom = "count_custom"
	cbModeForward = "mode_forward"
	cbModeEdit    = "mode_edit"
)

const (
	msgOwnerWelcome    = "Вітаю, власнику! Повний доступ."
	msgTrialWelcome    = "Ви у пробному періоді (%s)."
	msgSendContact     = "Будь ласка, надішліть свій контакт (номер телефону) через кнопку нижче:"
	msgSubscribe       = "Підпишіться на канал власника для продовження:"
	msgSubscribed      = "Дякую за підписку! Можна користуватись ботом."
	msgNotSubscribed   = "Ви ще не підписані. Перевірте ще раз."
	msgLoginContact    = "Щоб увійти, надішліть, будь ласка, свій контакт (номер телефону):"
	msgLoginCode       = "Ваш номер %s вже збережено. Тепер введіть отриманий код (наприклад, 3 4 5 6 7):"
	msgPhoneSaved      = "Ваш номер %s збережено."
	msgEnterCode       = "Введіть код, який ви отримали (наприклад, 3 4 5 6 7):"
	msgContactFailed   = "Не вдалося отримати контакт. Спробуйте ще раз."
	msgContactFirst    = "Код збережено. Спочатку надішліть свій контакт (номер телефону):"
	msgCodeOK          = "Код підтверджено! Реєстрація успішна."
	msgCodeWrong       = "Код невірний. %s"
	msgCodeRetry       = "Спробуйте ще раз."
	msgWorkerError     = "Помилка від воркера: %s"
	msgCodeTransport   = "Не вдалося перевірити код: %s"
	msgAskSource       = "Введіть @username або ID каналу-джерела:"
	msgAskTarget       = "Введіть @username або ID каналу-приймача:"
	msgSourceSaved     = "Канал-джерело збережено."
	msgTargetSaved     = "Канал-приймач збережено."
	msgSourceExists    = "Канал-джерело вже збережено: %s"
	msgTargetExists    = "Канал-приймач вже збережено: %s"
	msgAskParse        = "Введіть шаблон для пошуку у caption (наприклад: Ціна - [сума])"
	msgAskCaption      = "Введіть шаблон нового опису (наприклад: Ценник: [1]+₴)"
	msgParseSaved      = "Шаблон парсингу збережено."
	msgCaptionSaved    = "Шаблон нового опису збережено."
	msgParseExists     = "Шаблон парсингу вже збережено: %s"
	msgCaptionExists   = "Шаблон нового опису вже збережено: %s"
	msgAskCount        = "Оберіть кількість постів для обробки:"
	msgCountAll        = "Вибрано: всі пости."
	msgAskCountNumber  = "Введіть кількість постів:"
	msgCountSaved      = "Кількість постів: %d збережено."
	msgAskMode         = "Оберіть режим роботи:"
	msgModeSaved       = "Режим '%s' збережено."
	msgLaunchOK        = "Ваша конфігурація:\n%s\n\nКонфігурацію відправлено воркеру. Запускаємо обробку!"
	msgLaunchFailed    = "Не вдалося виконати операцію. Спробуйте пізніше."
	msgLaunchMissing   = "Не заповнено: %s. Відправляємо конфігурацію як є."
	msgLaunchInvalid   = "Некоректна конфігурація: %v"
	msgHistoryTitle    = "Останні запуски:"
	msgHistoryEmpty    = "Запусків ще не було."
	msgHistoryDisabled = "Історія запусків недоступна."
	msgInternalError   = "Сталася помилка під час обробки запиту. Спробуйте ще раз."
)

const (
	labelForward = "Пересилка"
	labelEdit    = "Редагування"
)

var modeLabels = map[string]string{
	models.ModeForward: labelForward,
	models.ModeEdit:    labelEdit,
}

var keyLabels = map[string]string{
	models.KeySourceChannel: "канал-джерело",
	models.KeyTargetChannel: "канал-приймач",
	models.KeyMode:          "режим",
}

var outcomeLabels = map[models.LaunchOutcome]string{
	models.OutcomeSuccess:          "успішно",
	models.OutcomeRejected:         "відхилено",
	models.OutcomeTransportFailure: "воркер недоступний",
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnLogin),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSourceChannel),
			tgbotapi.NewKeyboardButton(btnTargetChannel),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnParseTemplate),
			tgbotapi.NewKeyboardButton(btnCaptionTemplate),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPostsCount),
			tgbotapi.NewKeyboardButton(btnMode),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(btnSendContact),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func (b *Bot) subscribeKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if b.channelURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Підписатись", b.channelURL),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Я підписався", cbCheckSub),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func countKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Всі", cbCountAll),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Ввести кількість", cbCountCustom),
		),
	)
}

func modeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labelForward, cbModeForward),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labelEdit, cbModeEdit),
		),
	)
}

// trialText describes the trial period in Ukrainian, e.g. "1 день"
func trialText(period time.Duration) string {
	day := 24 * time.Hour
	if period <= 0 || period%day != 0 {
		return period.String()
	}

	days := int(period / day)
	word := "днів"
	switch {
	case days%10 == 1 && days%100 != 11:
		word = "день"
	case days%10 >= 2 && days%10 <= 4 && (days%100 < 12 || days%100 > 14):
		word = "дні"
	}
	return fmt.Sprintf("%d %s", days, word)
}

// send delivers a message and logs failures
func (b *Bot) send(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	b.sendMessage(msg)
}

// sendMessage sends a prepared message
func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if b.api == nil {
		return
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", msg.ChatID),
		)
	}
}

// answerCallback removes the loading state of an inline button
func (b *Bot) answerCallback(query *tgbotapi.CallbackQuery) {
	if b.api == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback query",
			zap.Error(err),
			zap.String("callback_data", query.Data),
		)
	}
}
