package journal

// Schema is the SQLite mirror schema. The JSONL streams stay the
// source of truth; the mirror exists for ad hoc queries and the daily
// pnl lookup backing the kill-switch.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
    order_id        TEXT NOT NULL,
    ts              TIMESTAMP NOT NULL,
    market_id       TEXT NOT NULL,
    side            TEXT NOT NULL,
    requested       REAL NOT NULL,
    filled          REAL NOT NULL,
    avg_price       REAL NOT NULL,
    fees            REAL NOT NULL,
    status          TEXT NOT NULL,
    mode            TEXT,
    reduce_only     INTEGER NOT NULL DEFAULT 0,
    attempts        INTEGER NOT NULL DEFAULT 0,
    error           TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_market_ts ON orders(market_id, ts);

CREATE TABLE IF NOT EXISTS exits (
    id              TEXT PRIMARY KEY,
    ts              TIMESTAMP NOT NULL,
    market_id       TEXT NOT NULL,
    side            TEXT NOT NULL,
    reason          TEXT NOT NULL,
    notional        REAL NOT NULL,
    shares          REAL NOT NULL,
    entry_price     REAL NOT NULL,
    exit_price      REAL NOT NULL,
    pnl             REAL NOT NULL,
    fees            REAL NOT NULL,
    pnl_after_fees  REAL NOT NULL,
    holding_seconds REAL NOT NULL,
    strategies      TEXT
);
CREATE INDEX IF NOT EXISTS idx_exits_ts ON exits(ts);
CREATE INDEX IF NOT EXISTS idx_exits_market ON exits(market_id, ts);
`
