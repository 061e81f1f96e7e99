package services

import "time"

const (
	KeyPlayerSession = "player:%s:session:%s"

	KeyBalance       = "ledger:balance:%s"
	KeyAllowance     = "ledger:allowance:%s:%s"
	KeyClaimCooldown = "faucet:%s:last_claim"

	KeySlot                 = "slot:%s"
	KeyCommitment           = "game:commitment:%s"
	KeyGameResult           = "game:result:%s"
	KeyGamePaid             = "game:paid:%s"
	KeyPendingCommitments   = "games:pending"
	KeyPlayerCompletedGames = "player:%s:completed_games"

	KeyTransaction        = "transaction:%s"
	KeyPlayerTransactions = "player:%s:transactions"
	KeyRateLimit          = "ratelimit:%s:%s"

	TTLPlayerSession = 24 * time.Hour
	TTLGameResult    = 30 * 24 * time.Hour // 30 days
	TTLTransaction   = 30 * 24 * time.Hour // 30 days

	MaxHistory = 100
)
