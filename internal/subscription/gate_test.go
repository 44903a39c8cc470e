package subscription

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeGetter struct {
	member tgbotapi.ChatMember
	err    error
	last   tgbotapi.GetChatMemberConfig
	calls  int
}

func (f *fakeGetter) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.calls++
	f.last = config
	return f.member, f.err
}

func TestGate_IsMemberStatuses(t *testing.T) {
	testCases := []struct {
		name   string
		member tgbotapi.ChatMember
		want   bool
	}{
		{"creator", tgbotapi.ChatMember{Status: "creator"}, true},
		{"administrator", tgbotapi.ChatMember{Status: "administrator"}, true},
		{"member", tgbotapi.ChatMember{Status: "member"}, true},
		{"restricted member", tgbotapi.ChatMember{Status: "restricted", IsMember: true}, true},
		{"restricted outsider", tgbotapi.ChatMember{Status: "restricted"}, false},
		{"left", tgbotapi.ChatMember{Status: "left"}, false},
		{"kicked", tgbotapi.ChatMember{Status: "kicked"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			getter := &fakeGetter{member: tc.member}
			gate := NewGate(getter, "@owner", zap.NewNop())
			assert.Equal(t, tc.want, gate.IsMember(context.Background(), 7))
		})
	}
}

func TestGate_FailsClosed(t *testing.T) {
	getter := &fakeGetter{err: errors.New("Bad Request: user not found")}
	gate := NewGate(getter, "@owner", zap.NewNop())

	assert.False(t, gate.IsMember(context.Background(), 7))
	assert.Equal(t, 1, getter.calls)
}

func TestGate_CancelledContext(t *testing.T) {
	getter := &fakeGetter{member: tgbotapi.ChatMember{Status: "member"}}
	gate := NewGate(getter, "@owner", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, gate.IsMember(ctx, 7))
	assert.Equal(t, 0, getter.calls)
}

func TestGate_ChannelReference(t *testing.T) {
	getter := &fakeGetter{member: tgbotapi.ChatMember{Status: "member"}}

	NewGate(getter, "@owner", zap.NewNop()).IsMember(context.Background(), 7)
	assert.Equal(t, "@owner", getter.last.SuperGroupUsername)
	assert.Equal(t, int64(7), getter.last.UserID)

	NewGate(getter, "owner", zap.NewNop()).IsMember(context.Background(), 7)
	assert.Equal(t, "@owner", getter.last.SuperGroupUsername)

	NewGate(getter, "-1001234", zap.NewNop()).IsMember(context.Background(), 7)
	assert.Equal(t, int64(-1001234), getter.last.ChatID)
	assert.Empty(t, getter.last.SuperGroupUsername)
}

func TestGate_Channel(t *testing.T) {
	assert.Equal(t, "@owner", NewGate(nil, "  @owner ", zap.NewNop()).Channel())
}

func TestGate_JoinURL(t *testing.T) {
	assert.Equal(t, "https://t.me/owner", NewGate(nil, "@owner", zap.NewNop()).JoinURL())
	assert.Equal(t, "https://t.me/owner", NewGate(nil, "owner", zap.NewNop()).JoinURL())
	assert.Empty(t, NewGate(nil, "-1001234", zap.NewNop()).JoinURL())
}
