package sqlite

// Schema is the embedded DDL applied on every Open. All statements are
// idempotent (IF NOT EXISTS) so reopening an existing database is safe.
const Schema = `
CREATE TABLE IF NOT EXISTS metric_points (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	metric      TEXT NOT NULL,
	value       TEXT NOT NULL,
	category    TEXT,
	metadata    TEXT,
	timestamp   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metric_points_series
	ON metric_points(user_id, metric, timestamp DESC);

CREATE TABLE IF NOT EXISTS relationships (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	contact            TEXT NOT NULL,
	importance         INTEGER NOT NULL DEFAULT 5,
	expected_interval  INTEGER NOT NULL DEFAULT 7,
	last_contact_at    DATETIME,
	total_interactions INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(user_id, contact)
);

CREATE TABLE IF NOT EXISTS communication_events (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	relationship_id  TEXT,
	event_type       TEXT NOT NULL,
	contact          TEXT NOT NULL,
	subject          TEXT,
	sentiment        TEXT,
	occurred_at      DATETIME NOT NULL,
	duration_minutes INTEGER
);
CREATE INDEX IF NOT EXISTS idx_comm_events_user_time
	ON communication_events(user_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_comm_events_relationship
	ON communication_events(user_id, relationship_id, occurred_at DESC);

CREATE TABLE IF NOT EXISTS insights (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	relationship_id TEXT,
	kind            TEXT NOT NULL,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL,
	priority        TEXT NOT NULL,
	confidence      INTEGER NOT NULL DEFAULT 0,
	action_suggested TEXT,
	metadata        TEXT,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	resolved_at     DATETIME
);
CREATE INDEX IF NOT EXISTS idx_insights_dedup
	ON insights(user_id, kind, relationship_id, resolved_at);

CREATE TABLE IF NOT EXISTS behavioral_patterns (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	pattern_type   TEXT NOT NULL,
	pattern_key    TEXT NOT NULL,
	name           TEXT NOT NULL,
	description    TEXT NOT NULL,
	confidence     INTEGER NOT NULL DEFAULT 0,
	first_detected DATETIME NOT NULL,
	last_detected  DATETIME NOT NULL,
	occurrences    INTEGER NOT NULL DEFAULT 1,
	metadata       TEXT,
	UNIQUE(user_id, pattern_type, pattern_key)
);

CREATE TABLE IF NOT EXISTS memory_fragments (
	id                     TEXT PRIMARY KEY,
	user_id                TEXT NOT NULL,
	source_conversation_id TEXT,
	text                   TEXT NOT NULL,
	embedding              BLOB NOT NULL,
	dimension              INTEGER NOT NULL,
	embedding_model        TEXT,
	metadata               TEXT,
	created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_fragments_user
	ON memory_fragments(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS conversation_turns (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	metadata   TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_turns_user_time
	ON conversation_turns(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS activity_log (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	component  TEXT NOT NULL,
	action     TEXT NOT NULL,
	detail     TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_activity_user_time
	ON activity_log(user_id, created_at DESC);
`
