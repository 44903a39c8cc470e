package bot

import (
	"time"

	"forwardbot/internal/models"
)

// Access is what a user may do right now
type Access int

const (
	AccessOwner Access = iota
	AccessTrial
	AccessNeedPhone
	AccessNeedSubscription
	AccessSubscribed
)

func (a Access) String() string {
	switch a {
	case AccessOwner:
		return "owner"
	case AccessTrial:
		return "trial"
	case AccessNeedPhone:
		return "need_phone"
	case AccessNeedSubscription:
		return "need_subscription"
	default:
		return "subscribed"
	}
}

// Full reports whether the main menu is available
func (a Access) Full() bool {
	return a == AccessOwner || a == AccessTrial || a == AccessSubscribed
}

// DeriveAccess computes the access level of a user from the stored record.
//
// Rules, first match wins:
// 1. The owner always has full access
// 2. Within the trial period after first contact access is full
// 3. Without a phone the user must send a contact first
// 4. A persisted subscription grants full access
// 5. Otherwise the user must subscribe to the channel
func DeriveAccess(user models.UserRecord, ownerID int64, trialPeriod time.Duration, now time.Time) Access {
	if user.UserID == ownerID {
		return AccessOwner
	}

	if now.Sub(user.FirstSeen) < trialPeriod {
		return AccessTrial
	}

	if !user.Config.Has(models.KeyPhone) {
		return AccessNeedPhone
	}

	if user.IsSubscribed {
		return AccessSubscribed
	}

	return AccessNeedSubscription
}
