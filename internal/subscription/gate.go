// Package subscription checks whether a user is a member of the owner's channel.
package subscription

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// MemberGetter is the part of the Telegram API the gate needs
type MemberGetter interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Gate answers membership questions for a single channel.
// It fails closed: any lookup error means "not a member".
type Gate struct {
	api     MemberGetter
	channel string
	logger  *zap.Logger
}

// NewGate creates a gate for channel, given as @username or numeric id
func NewGate(api MemberGetter, channel string, logger *zap.Logger) *Gate {
	return &Gate{
		api:     api,
		channel: strings.TrimSpace(channel),
		logger:  logger,
	}
}

// Channel returns the configured channel reference
func (g *Gate) Channel() string {
	return g.channel
}

// JoinURL is the public link of the channel, empty for numeric ids
func (g *Gate) JoinURL() string {
	name := strings.TrimPrefix(g.channel, "@")
	if _, err := strconv.ParseInt(name, 10, 64); err == nil || name == "" {
		return ""
	}
	return "https://t.me/" + name
}

// IsMember reports whether userID currently belongs to the channel
func (g *Gate) IsMember(ctx context.Context, userID int64) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	member, err := g.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: chatWithUser(g.channel, userID),
	})
	if err != nil {
		g.logger.Warn("Subscription check failed",
			zap.Int64("user_id", userID),
			zap.String("channel", g.channel),
			zap.Error(err),
		)
		return false
	}

	return isMemberStatus(member)
}

func isMemberStatus(member tgbotapi.ChatMember) bool {
	switch member.Status {
	case "creator", "administrator", "member":
		return true
	case "restricted":
		return member.IsMember
	default:
		return false
	}
}

func chatWithUser(channel string, userID int64) tgbotapi.ChatConfigWithUser {
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return tgbotapi.ChatConfigWithUser{ChatID: id, UserID: userID}
	}
	if !strings.HasPrefix(channel, "@") {
		channel = "@" + channel
	}
	return tgbotapi.ChatConfigWithUser{SuperGroupUsername: channel, UserID: userID}
}
