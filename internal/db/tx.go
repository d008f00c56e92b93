package db

import (
	"context"
	"database/sql"
	"errors"
)

// MakeTx begins a transaction and returns queries bound to it. discard is safe to
// defer after commit.
type MakeTx = func(ctx context.Context) (tx *Queries, discard, commit func() error, err error)

func NewMakeTx(database *sql.DB) MakeTx {
	return func(ctx context.Context) (tx *Queries, discard, commit func() error, err error) {
		sqltx, err := database.BeginTx(ctx, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		txqry := New(database).WithTx(sqltx)
		return txqry,
			func() error {
				err := sqltx.Rollback()
				if errors.Is(err, sql.ErrTxDone) {
					return nil
				}
				return err
			},
			sqltx.Commit,
			nil
	}
}
