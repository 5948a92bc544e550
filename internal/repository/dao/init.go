package dao

import "gorm.io/gorm"

// InitTables migrates the schema. The partial unique indexes cannot be
// expressed with gorm tags, so they are created with raw SQL afterwards:
// one makes "one active round per raffle" hold across processes, the other
// makes a payment hash fund at most one live purchase entry.
func InitTables(db *gorm.DB) error {
	err := db.AutoMigrate(
		&RaffleRound{},
		&RaffleEntry{},
		&DrawCommit{},
		&RaffleWinner{},
	)
	if err != nil {
		return err
	}

	err = db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_raffle_active_round
		 ON raffle_rounds (raffle_id) WHERE status = 'active'`,
	).Error
	if err != nil {
		return err
	}

	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_entry_payment_tx
		 ON raffle_entries (tx_hash)
		 WHERE entry_type = 'raffle_entry' AND status <> 'failed' AND tx_hash <> ''`,
	).Error
}
