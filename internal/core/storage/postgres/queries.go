package postgres

// SQL queries for guild snapshot storage.

const (
	// queryLoadSnapshot reads the latest snapshot of one guild.
	// No row means the guild has never saved.
	queryLoadSnapshot = `
		SELECT payload
		FROM event_snapshots
		WHERE guild_id = $1
	`

	// querySaveSnapshot replaces the guild's snapshot in a single statement so
	// readers never see a partial collection.
	querySaveSnapshot = `
		INSERT INTO event_snapshots (guild_id, payload, event_count, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id) DO UPDATE SET
			payload     = EXCLUDED.payload,
			event_count = EXCLUDED.event_count,
			updated_at  = EXCLUDED.updated_at
	`

	queryDeleteSnapshot = `DELETE FROM event_snapshots WHERE guild_id = $1`

	querySnapshotTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'event_snapshots'
		)
	`
)
