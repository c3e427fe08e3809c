package store

const postgresMigration = `
CREATE TABLE IF NOT EXISTS survival_by_subtype (
	subtype           TEXT NOT NULL,
	interval_month    INTEGER NOT NULL,
	relative_survival DOUBLE PRECISION,
	ci_lower          DOUBLE PRECISION,
	ci_upper          DOUBLE PRECISION,
	n                 DOUBLE PRECISION,
	PRIMARY KEY (subtype, interval_month)
);

CREATE TABLE IF NOT EXISTS survival_by_stage (
	stage             TEXT NOT NULL,
	interval_month    INTEGER NOT NULL,
	relative_survival DOUBLE PRECISION,
	ci_lower          DOUBLE PRECISION,
	ci_upper          DOUBLE PRECISION,
	n                 DOUBLE PRECISION,
	PRIMARY KEY (stage, interval_month)
);

CREATE TABLE IF NOT EXISTS survival_by_year (
	year              INTEGER NOT NULL,
	interval_month    INTEGER NOT NULL,
	relative_survival DOUBLE PRECISION,
	ci_lower          DOUBLE PRECISION,
	ci_upper          DOUBLE PRECISION,
	n                 DOUBLE PRECISION,
	PRIMARY KEY (year, interval_month)
);

CREATE TABLE IF NOT EXISTS incidence_by_race (
	race       TEXT PRIMARY KEY,
	rate       DOUBLE PRECISION,
	count      DOUBLE PRECISION,
	population DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS incidence_by_year (
	year       INTEGER PRIMARY KEY,
	rate       DOUBLE PRECISION,
	count      DOUBLE PRECISION,
	population DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS cause_of_death (
	cause TEXT PRIMARY KEY,
	count DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS incidence_by_stage_at_dx (
	stage_group   TEXT PRIMARY KEY,
	count         DOUBLE PRECISION NOT NULL,
	population    DOUBLE PRECISION NOT NULL,
	rate_per_100k DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS incidence_rates_by_race_year (
	race       TEXT NOT NULL,
	year       INTEGER NOT NULL,
	rate       DOUBLE PRECISION,
	count      DOUBLE PRECISION,
	population DOUBLE PRECISION,
	PRIMARY KEY (race, year)
);

CREATE TABLE IF NOT EXISTS incidence_rates_by_age_year (
	age_group  TEXT NOT NULL,
	year       INTEGER NOT NULL,
	rate       DOUBLE PRECISION,
	count      DOUBLE PRECISION,
	population DOUBLE PRECISION,
	PRIMARY KEY (age_group, year)
);

CREATE TABLE IF NOT EXISTS mortality (
	year          INTEGER NOT NULL,
	state         TEXT NOT NULL DEFAULT '',
	age_group     TEXT NOT NULL DEFAULT '',
	race          TEXT NOT NULL DEFAULT '',
	sex           TEXT NOT NULL DEFAULT '',
	cause_filter  TEXT NOT NULL DEFAULT '',
	deaths        DOUBLE PRECISION,
	rate_per_100k DOUBLE PRECISION,
	PRIMARY KEY (year, state, age_group, race, sex, cause_filter)
);

CREATE TABLE IF NOT EXISTS ingest_log (
	id           BIGSERIAL PRIMARY KEY,
	run_id       TEXT NOT NULL,
	dataset      TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	rows         BIGINT NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_ingest_log_dataset ON ingest_log(dataset);
CREATE INDEX IF NOT EXISTS idx_ingest_log_started_at ON ingest_log(started_at DESC);
`

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS survival_by_subtype (
	subtype           TEXT NOT NULL,
	interval_month    INTEGER NOT NULL,
	relative_survival REAL,
	ci_lower          REAL,
	ci_upper          REAL,
	n                 REAL,
	PRIMARY KEY (subtype, interval_month)
);

CREATE TABLE IF NOT EXISTS survival_by_stage (
	stage             TEXT NOT NULL,
	interval_month    INTEGER NOT NULL,
	relative_survival REAL,
	ci_lower          REAL,
	ci_upper          REAL,
	n                 REAL,
	PRIMARY KEY (stage, interval_month)
);

CREATE TABLE IF NOT EXISTS survival_by_year (
	year              INTEGER NOT NULL,
	interval_month    INTEGER NOT NULL,
	relative_survival REAL,
	ci_lower          REAL,
	ci_upper          REAL,
	n                 REAL,
	PRIMARY KEY (year, interval_month)
);

CREATE TABLE IF NOT EXISTS incidence_by_race (
	race       TEXT PRIMARY KEY,
	rate       REAL,
	count      REAL,
	population REAL
);

CREATE TABLE IF NOT EXISTS incidence_by_year (
	year       INTEGER PRIMARY KEY,
	rate       REAL,
	count      REAL,
	population REAL
);

CREATE TABLE IF NOT EXISTS cause_of_death (
	cause TEXT PRIMARY KEY,
	count REAL
);

CREATE TABLE IF NOT EXISTS incidence_by_stage_at_dx (
	stage_group   TEXT PRIMARY KEY,
	count         REAL NOT NULL,
	population    REAL NOT NULL,
	rate_per_100k REAL
);

CREATE TABLE IF NOT EXISTS incidence_rates_by_race_year (
	race       TEXT NOT NULL,
	year       INTEGER NOT NULL,
	rate       REAL,
	count      REAL,
	population REAL,
	PRIMARY KEY (race, year)
);

CREATE TABLE IF NOT EXISTS incidence_rates_by_age_year (
	age_group  TEXT NOT NULL,
	year       INTEGER NOT NULL,
	rate       REAL,
	count      REAL,
	population REAL,
	PRIMARY KEY (age_group, year)
);

CREATE TABLE IF NOT EXISTS mortality (
	year          INTEGER NOT NULL,
	state         TEXT NOT NULL DEFAULT '',
	age_group     TEXT NOT NULL DEFAULT '',
	race          TEXT NOT NULL DEFAULT '',
	sex           TEXT NOT NULL DEFAULT '',
	cause_filter  TEXT NOT NULL DEFAULT '',
	deaths        REAL,
	rate_per_100k REAL,
	PRIMARY KEY (year, state, age_group, race, sex, cause_filter)
);

CREATE TABLE IF NOT EXISTS ingest_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	dataset      TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL,
	completed_at DATETIME,
	rows         INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_ingest_log_dataset ON ingest_log(dataset);
CREATE INDEX IF NOT EXISTS idx_ingest_log_started_at ON ingest_log(started_at);
`
