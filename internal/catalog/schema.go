package catalog

import "database/sql"

// currentSchemaVersion is bumped whenever a migration is appended below.
const currentSchemaVersion = 1

type migration struct {
	version int
	up      []string
}

var migrations = []migration{
	{
		version: 1,
		up: []string{
			`CREATE TABLE schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,

			`CREATE TABLE drives (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				mount_path TEXT NOT NULL UNIQUE,
				volume_serial TEXT,
				volume_label TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,

			`CREATE TABLE roots (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				drive_id INTEGER NOT NULL REFERENCES drives(id) ON DELETE CASCADE,
				path TEXT NOT NULL,
				excluded BOOLEAN NOT NULL DEFAULT 0,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(drive_id, path)
			)`,
			`CREATE INDEX idx_roots_drive ON roots(drive_id)`,

			`CREATE TABLE files (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				root_id INTEGER NOT NULL REFERENCES roots(id) ON DELETE CASCADE,
				path TEXT NOT NULL,
				size INTEGER NOT NULL,
				mtime DATETIME NOT NULL,
				ext TEXT NOT NULL DEFAULT '',
				last_seen DATETIME,
				quick_sig TEXT,
				full_hash TEXT,
				hash_status TEXT NOT NULL DEFAULT 'pending'
					CHECK(hash_status IN ('pending','computing','complete','error','quarantined')),
				UNIQUE(root_id, path)
			)`,
			`CREATE INDEX idx_files_root ON files(root_id)`,
			`CREATE INDEX idx_files_hash_status ON files(hash_status)`,
			`CREATE INDEX idx_files_quick_sig ON files(quick_sig)`,
			`CREATE INDEX idx_files_full_hash ON files(full_hash)`,
			`CREATE INDEX idx_files_last_seen ON files(last_seen)`,
			`CREATE INDEX idx_files_ext ON files(ext)`,

			`CREATE TABLE media_items (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				type TEXT NOT NULL CHECK(type IN ('movie','tv_episode','unknown')),
				title TEXT,
				year INTEGER,
				season INTEGER,
				episode INTEGER,
				status TEXT NOT NULL DEFAULT 'auto' CHECK(status IN ('auto','needs_verification','verified')),
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX idx_media_items_type ON media_items(type)`,
			`CREATE INDEX idx_media_items_title ON media_items(title)`,

			`CREATE TABLE media_item_files (
				item_id INTEGER NOT NULL REFERENCES media_items(id) ON DELETE CASCADE,
				file_id INTEGER NOT NULL UNIQUE REFERENCES files(id) ON DELETE CASCADE,
				is_primary BOOLEAN NOT NULL DEFAULT 0,
				PRIMARY KEY (item_id, file_id)
			)`,
			`CREATE INDEX idx_media_item_files_item ON media_item_files(item_id)`,

			`CREATE TABLE user_rules (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				rule_type TEXT NOT NULL CHECK(rule_type IN ('denylist','prefer_movie','prefer_tv','prefer_all')),
				drive_id INTEGER NOT NULL REFERENCES drives(id) ON DELETE CASCADE,
				priority INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX idx_user_rules_type ON user_rules(rule_type)`,
			`CREATE INDEX idx_user_rules_drive ON user_rules(drive_id)`,

			`CREATE TABLE operations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				type TEXT NOT NULL DEFAULT 'copy',
				status TEXT NOT NULL DEFAULT 'pending'
					CHECK(status IN ('pending','running','paused','completed','failed','cancelled')),
				source_file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
				dest_drive_id INTEGER NOT NULL REFERENCES drives(id) ON DELETE CASCADE,
				dest_path TEXT NOT NULL,
				total_size INTEGER NOT NULL,
				verify_hash BOOLEAN NOT NULL DEFAULT 1,
				progress INTEGER NOT NULL DEFAULT 0,
				error TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				started_at DATETIME,
				completed_at DATETIME
			)`,
			`CREATE INDEX idx_operations_status_created ON operations(status, created_at)`,
			`CREATE INDEX idx_operations_source_file ON operations(source_file_id)`,

			`CREATE TABLE operation_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				component TEXT NOT NULL,
				file_id INTEGER REFERENCES files(id) ON DELETE SET NULL,
				action TEXT NOT NULL,
				detail TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX idx_operation_log_file ON operation_log(file_id)`,

			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
}

// applyMigrations brings db up to currentSchemaVersion. It is idempotent:
// a fresh database starts at version 0 and every migration runs; a
// previously migrated database only runs migrations newer than its
// recorded version.
func applyMigrations(db *sql.DB) error {
	var currentVersion int
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		currentVersion = 0
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}

		for _, stmt := range m.up {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return err
			}
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}
