package bot

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"forwardbot/internal/models"
	"forwardbot/internal/storage"
	"forwardbot/internal/worker"
)

// Transport sends outbound messages and answers callback queries
type Transport interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MembershipChecker tells whether a user belongs to the owner's channel
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) bool
}

// Worker verifies login codes and accepts forwarding tasks
type Worker interface {
	CheckCode(ctx context.Context, userID int64, phone, code string) worker.Result
	StartTask(ctx context.Context, userID int64, cfg models.Config) worker.Result
}

// Bot is the conversation engine behind the Telegram chat
type Bot struct {
	api     Transport
	client  *tgbotapi.BotAPI // nil in tests
	users   storage.UserStore
	journal storage.LaunchJournal // optional
	gate    MembershipChecker
	worker  Worker

	ownerID     int64
	channelURL  string
	trialPeriod time.Duration
	now         func() time.Time

	// pending holds the single open prompt of each user
	pending   map[int64]Topic
	pendingMu sync.Mutex

	updates chan tgbotapi.Update
	logger  *zap.Logger
}

// Topic is a prompt waiting for free-text input
type Topic string

const (
	TopicNone            Topic = ""
	TopicCode            Topic = "code"
	TopicSourceChannel   Topic = "source_channel"
	TopicTargetChannel   Topic = "target_channel"
	TopicParseTemplate   Topic = "parse_template"
	TopicCaptionTemplate Topic = "new_caption_template"
	TopicPostsCount      Topic = "posts_count"
)

func (b *Bot) pendingTopic(userID int64) Topic {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	return b.pending[userID]
}

func (b *Bot) setPending(userID int64, topic Topic) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	if topic == TopicNone {
		delete(b.pending, userID)
		return
	}
	b.pending[userID] = topic
}
