package sqlite

// Schema DDL for all tables. Foreign keys are enforced per connection
// through the DSN pragma, so deletes must run children first.
const (
	createBlocks = `CREATE TABLE blocks (
    block_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    start_date TEXT NOT NULL
);`

	createWeeks = `CREATE TABLE weeks (
    week_id TEXT PRIMARY KEY,
    block_id TEXT NOT NULL,
    week_number INTEGER NOT NULL CHECK (week_number BETWEEN 1 AND 99),
    goal INTEGER NOT NULL DEFAULT 0 CHECK (goal >= 0),
    FOREIGN KEY (block_id) REFERENCES blocks(block_id)
);`

	createDays = `CREATE TABLE days (
    day_id TEXT PRIMARY KEY,
    date TEXT NOT NULL,
    day_number INTEGER NOT NULL CHECK (day_number BETWEEN 0 AND 7),
    miles INTEGER NOT NULL DEFAULT 0 CHECK (miles >= 0),
    block_id TEXT,
    week_id TEXT,
    FOREIGN KEY (block_id) REFERENCES blocks(block_id),
    FOREIGN KEY (week_id) REFERENCES weeks(week_id)
);`

	createRaces = `CREATE TABLE races (
    race_id TEXT PRIMARY KEY,
    day_id TEXT NOT NULL,
    miles REAL NOT NULL DEFAULT 0 CHECK (miles >= 0),
    name TEXT NOT NULL UNIQUE,
    url TEXT NOT NULL DEFAULT '',
    block_id TEXT,
    FOREIGN KEY (day_id) REFERENCES days(day_id),
    FOREIGN KEY (block_id) REFERENCES blocks(block_id)
);`
)

// Index DDL for the lookups the training components make.
const (
	idxWeeksBlockNumber = `CREATE UNIQUE INDEX idx_weeks_block_number ON weeks(block_id, week_number);`
	idxDaysWeekNumber   = `CREATE UNIQUE INDEX idx_days_week_number ON days(week_id, day_number);`
	idxDaysBlockDate    = `CREATE INDEX idx_days_block_date ON days(block_id, date);`
	idxDaysDate         = `CREATE INDEX idx_days_date ON days(date);`
	idxRacesBlock       = `CREATE INDEX idx_races_block ON races(block_id);`
	idxRacesDay         = `CREATE INDEX idx_races_day ON races(day_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createBlocks,
	createWeeks,
	createDays,
	createRaces,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxWeeksBlockNumber,
	idxDaysWeekNumber,
	idxDaysBlockDate,
	idxDaysDate,
	idxRacesBlock,
	idxRacesDay,
}
