// Package transport wraps the Telegram Bot API client with a shared outbound
// rate limit.
package transport

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// API is the subset of *tgbotapi.BotAPI used for outbound calls
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Throttled passes every call through a token bucket before reaching the API.
// Waiting stops when the base context is cancelled.
type Throttled struct {
	ctx     context.Context
	api     API
	limiter *rate.Limiter
}

// NewThrottled limits api to rps calls per second with a burst of rps.
// A non-positive rps disables limiting.
func NewThrottled(ctx context.Context, api API, rps int) *Throttled {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = rps
	}
	return &Throttled{
		ctx:     ctx,
		api:     api,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (t *Throttled) wait() error {
	if err := t.limiter.Wait(t.ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return nil
}

func (t *Throttled) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := t.wait(); err != nil {
		return tgbotapi.Message{}, err
	}
	return t.api.Send(c)
}

func (t *Throttled) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := t.wait(); err != nil {
		return nil, err
	}
	return t.api.Request(c)
}

func (t *Throttled) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	if err := t.wait(); err != nil {
		return tgbotapi.ChatMember{}, err
	}
	return t.api.GetChatMember(config)
}
