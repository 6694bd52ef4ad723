package service

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"paper_trader/internal/models"
	"paper_trader/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS trade_events (
	id          UUID PRIMARY KEY,
	account_id  TEXT        NOT NULL,
	kind        TEXT        NOT NULL,
	signal_id   TEXT        NOT NULL DEFAULT '',
	position_id TEXT        NOT NULL DEFAULT '',
	symbol      TEXT        NOT NULL,
	direction   TEXT        NOT NULL DEFAULT '',
	units       NUMERIC     NOT NULL,
	price       NUMERIC     NOT NULL,
	pnl         NUMERIC     NOT NULL,
	balance     NUMERIC     NOT NULL,
	reason      TEXT        NOT NULL DEFAULT '',
	payload     JSONB       NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS trade_events_account_idx ON trade_events (account_id, created_at);
CREATE TABLE IF NOT EXISTS account_state (
	account_id TEXT        PRIMARY KEY,
	balance    NUMERIC     NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

const insertTradeEvent = `
INSERT INTO trade_events
	(id, account_id, kind, signal_id, position_id, symbol, direction, units, price, pnl, balance, reason, payload, created_at)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10::numeric, $11::numeric, $12, $13::jsonb, $14)
ON CONFLICT (id) DO NOTHING`

const upsertAccountState = `
INSERT INTO account_state (account_id, balance, updated_at)
VALUES ($1, $2::numeric, $3)
ON CONFLICT (account_id) DO UPDATE
	SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at
	WHERE account_state.updated_at <= EXCLUDED.updated_at`

// Recorder persists ledger-changing trade events.
type Recorder struct {
	tx db.TxManager
}

func NewRecorder(tx db.TxManager) *Recorder {
	return &Recorder{tx: tx}
}

func (r *Recorder) EnsureSchema(ctx context.Context) error {
	_, err := r.tx.Conn().Exec(ctx, schema)
	return errors.Wrap(err, "create schema")
}

// RecordTrade stores an opened or closed event and the resulting account balance
// in one transaction. Other kinds are not history.
func (r *Recorder) RecordTrade(ctx context.Context, ev models.TradeEvent) error {
	if !ev.MutatesLedger() {
		return nil
	}

	payload, err := sonic.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode trade event")
	}

	return r.tx.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctx, insertTradeEvent,
			ev.ID,
			ev.AccountID,
			string(ev.Kind),
			ev.SignalID,
			ev.PositionID,
			ev.Symbol,
			string(ev.Direction),
			ev.Units.String(),
			ev.Price.String(),
			ev.PnL.String(),
			ev.Balance.String(),
			ev.Reason,
			string(payload),
			ev.Timestamp,
		)
		if err != nil {
			return errors.Wrapf(err, "insert trade event %s", ev.ID)
		}

		_, err = tx.Exec(ctx, upsertAccountState, ev.AccountID, ev.Balance.String(), ev.Timestamp)
		return errors.Wrapf(err, "update account state %s", ev.AccountID)
	})
}
