package store

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/weave/errors"
)

// MaxBlocks is the maximum number of blocks a single query may return.
const MaxBlocks = 100

// NewStore returns a store that provides an access to the block archive.
//
// The archive mirrors the in-memory chain of a node so that blocks and
// transactions can be queried without holding the ledger lock. It is never
// read back into a ledger.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type Store struct {
	db *sql.DB
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// InsertBlock appends a block with its transactions to the archive.
// This method returns ErrConflict if a block with the same index or hash
// is already archived.
func (s *Store) InsertBlock(ctx context.Context, b models.Block) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "cannot create transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertBlock(ctx, tx, b); err != nil {
		return err
	}
	return wrapPgErr(tx.Commit(), "commit block tx")
}

// ReplaceChain drops the whole archive and stores chain instead. It is
// used after consensus replaced the local chain.
func (s *Store) ReplaceChain(ctx context.Context, chain []models.Block) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "cannot create transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return wrapPgErr(err, "delete transactions")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
		return wrapPgErr(err, "delete blocks")
	}
	for _, b := range chain {
		if err := insertBlock(ctx, tx, b); err != nil {
			return err
		}
	}
	return wrapPgErr(tx.Commit(), "commit chain tx")
}

func insertBlock(ctx context.Context, tx *sql.Tx, b models.Block) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO blocks (block_index, block_hash, previous_hash, proof, block_time)
		VALUES ($1, $2, $3, $4, $5)
	`, b.Index, ledger.Hash(b), b.PreviousHash, int64(b.Proof), b.Timestamp)
	if err != nil {
		return wrapPgErr(err, "insert block")
	}

	for i, t := range b.Transactions {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (block_id, position, sender, recipient, amount)
		VALUES ($1, $2, $3, $4, $5)`, b.Index, i, t.Sender, t.Recipient, t.Amount)
		if err != nil {
			return wrapPgErr(err, "insert transaction")
		}
	}
	return nil
}

// LastNBlock returns up to limit blocks ordered from the newest. When after
// is not zero only blocks with an index lower than after are returned.
// ErrNotFound is returned if no blocks exist.
// ErrLimit is returned if allowed limit is exceeded
func (s *Store) LastNBlock(ctx context.Context, limit int, after int64) ([]*models.Block, error) {
	if limit > MaxBlocks {
		return nil, errors.Wrapf(ErrLimit, "limit exceeded")
	}
	if limit <= 0 {
		return nil, errors.Wrapf(errors.ErrInput, "limit %d", limit)
	}

	query := psql.Select("block_index, previous_hash, proof, block_time").
		From("blocks").
		OrderBy("block_index DESC").
		Limit(uint64(limit))
	if after != 0 {
		query = query.Where(sq.Lt{"block_index": after})
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(castPgErr(err), "cannot select block")
	}
	defer rows.Close()

	var blocks []*models.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, errors.Wrap(castPgErr(err), "cannot select block")
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgErr(err, "scanning blocks")
	}
	if len(blocks) == 0 {
		return nil, errors.Wrap(errors.ErrNotFound, "no blocks")
	}

	for _, b := range blocks {
		if b.Transactions, err = s.LoadTxsInBlock(ctx, b.Index); err != nil {
			return nil, err
		}
	}
	return blocks, nil
}

// LatestBlock returns the block with the greatest index. This method
// returns ErrNotFound if no block exist.
func (s *Store) LatestBlock(ctx context.Context) (*models.Block, error) {
	blocks, err := s.LastNBlock(ctx, 1, 0)
	if err != nil {
		return nil, err
	}
	return blocks[0], nil
}

// LoadBlockByIndex returns ErrNotFound if no block with given index exist.
func (s *Store) LoadBlockByIndex(ctx context.Context, index int64) (*models.Block, error) {
	return s.loadBlock(ctx, sq.Eq{"block_index": index})
}

// LoadBlockByHash returns ErrNotFound if no block with given hash exist.
func (s *Store) LoadBlockByHash(ctx context.Context, hash string) (*models.Block, error) {
	return s.loadBlock(ctx, sq.Eq{"block_hash": hash})
}

func (s *Store) loadBlock(ctx context.Context, where sq.Eq) (*models.Block, error) {
	row := psql.Select("block_index, previous_hash, proof, block_time").
		From("blocks").
		Where(where).
		RunWith(s.db).
		QueryRowContext(ctx)

	b, err := scanBlock(row)
	if err != nil {
		err = castPgErr(err)
		if errors.ErrNotFound.Is(err) {
			return nil, errors.Wrap(err, "no block")
		}
		return nil, errors.Wrap(err, "cannot select block")
	}

	if b.Transactions, err = s.LoadTxsInBlock(ctx, b.Index); err != nil {
		return nil, err
	}
	return b, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row scanner) (*models.Block, error) {
	var (
		b     models.Block
		proof int64
	)
	if err := row.Scan(&b.Index, &b.PreviousHash, &proof, &b.Timestamp); err != nil {
		return nil, err
	}
	b.Proof = uint64(proof)
	return &b, nil
}

// LoadTxsInBlock returns the transactions of a block in their sealed order.
// A block without transactions yields an empty list.
func (s *Store) LoadTxsInBlock(ctx context.Context, index int64) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sender, recipient, amount
		FROM transactions
		WHERE block_id = $1
		ORDER BY position
	`, index)
	if err != nil {
		return nil, errors.Wrap(castPgErr(err), "cannot select txs")
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.Sender, &t.Recipient, &t.Amount); err != nil {
			return nil, errors.Wrap(castPgErr(err), "cannot select tx")
		}
		txs = append(txs, t)
	}
	return txs, wrapPgErr(rows.Err(), "scanning txs")
}

// LoadTxsByParams returns up to MaxBlocks archived transactions matching
// every non empty filter, newest first.
func (s *Store) LoadTxsByParams(ctx context.Context, sender, recipient string) ([]models.ArchivedTransaction, error) {
	query := psql.Select("block_id, sender, recipient, amount").
		From("transactions").
		OrderBy("block_id DESC", "position").
		Limit(MaxBlocks)

	if sender != "" {
		query = query.Where(sq.Eq{"sender": sender})
	}
	if recipient != "" {
		query = query.Where(sq.Eq{"recipient": recipient})
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(castPgErr(err), "cannot select txs")
	}
	defer rows.Close()

	var txs []models.ArchivedTransaction
	for rows.Next() {
		var t models.ArchivedTransaction
		if err := rows.Scan(&t.BlockIndex, &t.Sender, &t.Recipient, &t.Amount); err != nil {
			return nil, errors.Wrap(castPgErr(err), "cannot select tx")
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgErr(err, "scanning txs")
	}

	if len(txs) == 0 {
		return nil, errors.Wrap(errors.ErrNotFound, "no txs")
	}
	return txs, nil
}
