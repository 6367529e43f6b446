package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs: one row per measuring run, with the resolved budget it ran against
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    dest TEXT NOT NULL,
    file_count INTEGER NOT NULL,

    -- Accumulated totals
    total_size INTEGER NOT NULL,
    css_size INTEGER NOT NULL DEFAULT 0,
    images_size INTEGER NOT NULL DEFAULT 0,
    js_size INTEGER NOT NULL DEFAULT 0,
    fonts_size INTEGER NOT NULL DEFAULT 0,

    -- Resolved budget (bytes)
    budget_total INTEGER NOT NULL,
    budget_css INTEGER NOT NULL,
    budget_images INTEGER NOT NULL,
    budget_js INTEGER NOT NULL,
    budget_fonts INTEGER NOT NULL,

    over_budget BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_over_budget ON runs(over_budget) WHERE over_budget = 1;

-- Run categories: per-category rollup of a run
CREATE TABLE IF NOT EXISTS run_categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    category TEXT NOT NULL,
    total_size INTEGER NOT NULL,
    file_count INTEGER NOT NULL,
    percentage INTEGER NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, category)
);

CREATE INDEX IF NOT EXISTS idx_run_categories_run ON run_categories(run_id);

-- Run files: every recorded artifact, in arrival order
CREATE TABLE IF NOT EXISTS run_files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    category TEXT NOT NULL,
    path TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    content_hash TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_run_files_run ON run_files(run_id);
CREATE INDEX IF NOT EXISTS idx_run_files_path ON run_files(path);
`
