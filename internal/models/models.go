package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Configuration keys collected through the chat menu
const (
	KeyPhone              = "phone"
	KeyAuthCode           = "auth_code"
	KeySourceChannel      = "source_channel"
	KeyTargetChannel      = "target_channel"
	KeyParseTemplate      = "parse_template"
	KeyNewCaptionTemplate = "new_caption_template"
	KeyPostsCount         = "posts_count"
	KeyMode               = "mode"
)

// Posting modes
const (
	ModeForward = "forward"
	ModeEdit    = "edit"
)

// PostsCountAll selects every post of the source channel
const PostsCountAll = "all"

// LaunchKeys lists the keys a forwarding task normally needs; confirm warns when any is absent
var LaunchKeys = []string{KeySourceChannel, KeyTargetChannel, KeyMode}

// Config is the free-form per-user configuration map
type Config map[string]any

// UserRecord is the persisted document of a single chat user
type UserRecord struct {
	UserID       int64     `json:"user_id"`
	FirstSeen    time.Time `json:"first_seen"`
	IsSubscribed bool      `json:"is_subscribed"`
	Config       Config    `json:"config"`
}

// NewUserRecord returns a fresh record for a user seen for the first time
func NewUserRecord(userID int64, now time.Time) UserRecord {
	return UserRecord{
		UserID:    userID,
		FirstSeen: now,
		Config:    Config{},
	}
}

// Has reports whether key was already answered
func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// String returns the value of key formatted for display, or "" if absent
func (c Config) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy safe for independent mutation
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Missing returns the keys from LaunchKeys that are not set, in declaration order
func (c Config) Missing() []string {
	var missing []string
	for _, key := range LaunchKeys {
		if !c.Has(key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// Validate checks value domains of the keys that have one
func (c Config) Validate() error {
	if c.Has(KeyMode) {
		switch c.String(KeyMode) {
		case ModeForward, ModeEdit:
		default:
			return fmt.Errorf("invalid mode %q", c.String(KeyMode))
		}
	}
	if v, ok := c[KeyPostsCount]; ok {
		if !validPostsCount(v) {
			return fmt.Errorf("invalid posts_count %v", v)
		}
	}
	return nil
}

func validPostsCount(v any) bool {
	switch n := v.(type) {
	case string:
		return n == PostsCountAll
	case int:
		return n > 0
	case int64:
		return n > 0
	case float64:
		return n > 0 && n == float64(int64(n))
	case json.Number:
		i, err := n.Int64()
		return err == nil && i > 0
	default:
		return false
	}
}

// Dump renders the configuration as sorted "key: value" lines
func (c Config) Dump() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(c.String(k))
	}
	return sb.String()
}

// LaunchOutcome classifies the result of a task submission
type LaunchOutcome string

const (
	OutcomeSuccess          LaunchOutcome = "success"
	OutcomeRejected         LaunchOutcome = "rejected"
	OutcomeTransportFailure LaunchOutcome = "transport_failure"
)

// Launch represents one submission of a configuration to the task worker
type Launch struct {
	UserID      int64
	SubmittedAt time.Time
	Outcome     LaunchOutcome
	Message     string
	Config      string // JSON encoded configuration as sent
}
