package sqlite

func (s Storage) RunMigrations() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id VARCHAR NOT NULL PRIMARY KEY,
		auth TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS calendars (
		id VARCHAR NOT NULL PRIMARY KEY,
		title VARCHAR NOT NULL,
		color VARCHAR NOT NULL DEFAULT "",
		source VARCHAR NOT NULL DEFAULT "",
		read_only BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id VARCHAR NOT NULL PRIMARY KEY,
		calendar_id VARCHAR NOT NULL,
		series_id VARCHAR NOT NULL DEFAULT "",
		title VARCHAR NOT NULL,
		starts_at INTEGER NOT NULL,
		ends_at INTEGER NOT NULL,
		all_day BOOLEAN NOT NULL DEFAULT 0,
		FOREIGN KEY (calendar_id) REFERENCES calendars (id)
	)`,
	`CREATE INDEX IF NOT EXISTS events_range ON events (calendar_id, starts_at, ends_at)`,
	`CREATE TABLE IF NOT EXISTS authorizations (
		scope VARCHAR NOT NULL PRIMARY KEY,
		status VARCHAR NOT NULL
	)`,
}
