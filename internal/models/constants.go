package models

const (
	ChallengePending  = "pending"
	ChallengeAccepted = "accepted"
	ChallengeDeclined = "declined"
)

const (
	DecisionAccept  = "accept"
	DecisionDecline = "decline"
)

const (
	// DateLayout is the canonical calendar-day format used everywhere.
	DateLayout = "2006-01-02"

	// MaxConsecutiveSlots is the longest back-to-back run one owner may
	// hold on the same resource and day.
	MaxConsecutiveSlots = 2

	// DefaultScheduleCacheTTL lifetime of a cached day grid, seconds.
	DefaultScheduleCacheTTL = 5 * 60

	// WorkerQueueSize size of the notification worker queue.
	WorkerQueueSize = 1000
)
