package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"forwardbot/internal/storage"
)

const updatesBuffer = 100

// Options carries the collaborators of the conversation engine
type Options struct {
	API     Transport
	Client  *tgbotapi.BotAPI // used for polling and webhook setup
	Users   storage.UserStore
	Journal storage.LaunchJournal
	Gate    MembershipChecker
	Worker  Worker

	OwnerID     int64
	ChannelURL  string // public link of the owner's channel
	TrialPeriod time.Duration

	Logger *zap.Logger
	Now    func() time.Time
}

// NewBotAPI connects to the Bot API with the given token
func NewBotAPI(token string, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))
	return api, nil
}

// New creates the conversation engine
func New(opts Options) *Bot {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		api:         opts.API,
		client:      opts.Client,
		users:       opts.Users,
		journal:     opts.Journal,
		gate:        opts.Gate,
		worker:      opts.Worker,
		ownerID:     opts.OwnerID,
		channelURL:  opts.ChannelURL,
		trialPeriod: opts.TrialPeriod,
		now:         now,
		pending:     make(map[int64]Topic),
		updates:     make(chan tgbotapi.Update, updatesBuffer),
		logger:      logger,
	}
}
