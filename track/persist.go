package track

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/amazon-ion/ion-go/ion"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// DiskStore is an optional durable backing for Cache: a constraint set
// that replayed clean in one process run can be trusted again in the
// next, since the accessors it references (file contents, font tables)
// are re-hashed at replay time regardless of which process computed the
// cached result. Grounded on the teacher's own in-memory SQLite use for
// KFX fragment storage (cmd/debug/kdfdump) — same OpenConn/sqlitex.Execute
// idiom, retargeted from a one-shot dump reader to a small persistent
// key/value table. Constraint sets and results are serialized with
// amazon-ion/ion-go, the teacher's own wire format for KFX fragments.
type DiskStore struct {
	conn *sqlite.Conn
}

// OpenDiskStore opens (creating if necessary) a SQLite-backed memo store
// at path. Pass ":memory:" for a process-local, non-durable store used
// only to exercise the same code path in tests.
func OpenDiskStore(path string) (*DiskStore, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("track: open disk store %q: %w", path, err)
	}
	if err := sqlitex.Execute(conn, `
		CREATE TABLE IF NOT EXISTS memo (
			fn INTEGER NOT NULL,
			arg_hash INTEGER NOT NULL,
			constraints BLOB NOT NULL,
			result BLOB,
			err_msg TEXT,
			PRIMARY KEY (fn, arg_hash)
		)`, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("track: create memo table: %w", err)
	}
	return &DiskStore{conn: conn}, nil
}

func (s *DiskStore) Close() error { return s.conn.Close() }

// Save persists one cached call outcome, overwriting any prior entry for
// the same (fn, argHash). resultIon is the caller's ion-encoded result
// (empty when the call instead produced errMsg). Values go in as
// hex-encoded TEXT rather than bound BLOB parameters: the teacher's own
// SQLite reads (kdfdump) never bind parameters at all, building each
// query as a literal string, so hex keeps every query here in that same
// literal-string idiom instead of reaching for an unobserved bind API.
func (s *DiskStore) Save(fn FnID, argHash uint64, cs ConstraintSet, resultIon []byte, errMsg string) error {
	csBytes, err := ion.MarshalBinary(cs)
	if err != nil {
		return fmt.Errorf("track: encode constraint set: %w", err)
	}
	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO memo (fn, arg_hash, constraints, result, err_msg)
		VALUES (%d, %d, '%s', '%s', '%s')
	`, fn, argHash, hex.EncodeToString(csBytes), hex.EncodeToString(resultIon), hex.EncodeToString([]byte(errMsg)))
	return sqlitex.Execute(s.conn, query, nil)
}

// Load fetches a persisted entry, if any, for (fn, argHash). The caller
// still must replay its constraint set against the current Replayer
// before trusting resultIon — DiskStore only persists what Cache already
// validated once, it performs no validation of its own.
func (s *DiskStore) Load(fn FnID, argHash uint64) (cs ConstraintSet, resultIon []byte, errMsg string, ok bool, err error) {
	query := fmt.Sprintf(`SELECT constraints, result, err_msg FROM memo WHERE fn = %d AND arg_hash = %d`, fn, argHash)
	err = sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			csHex, rerr := io.ReadAll(stmt.ColumnReader(0))
			if rerr != nil {
				return fmt.Errorf("track: read constraint column: %w", rerr)
			}
			csBytes, rerr := hex.DecodeString(string(csHex))
			if rerr != nil {
				return fmt.Errorf("track: decode constraint hex: %w", rerr)
			}
			if decErr := ion.Unmarshal(csBytes, &cs); decErr != nil {
				return fmt.Errorf("track: decode constraint set: %w", decErr)
			}

			resultHex, rerr := io.ReadAll(stmt.ColumnReader(1))
			if rerr != nil {
				return fmt.Errorf("track: read result column: %w", rerr)
			}
			resultIon, rerr = hex.DecodeString(string(resultHex))
			if rerr != nil {
				return fmt.Errorf("track: decode result hex: %w", rerr)
			}

			errHexBytes, rerr := io.ReadAll(stmt.ColumnReader(2))
			if rerr != nil {
				return fmt.Errorf("track: read err_msg column: %w", rerr)
			}
			errMsgBytes, rerr := hex.DecodeString(string(errHexBytes))
			if rerr != nil {
				return fmt.Errorf("track: decode err_msg hex: %w", rerr)
			}
			errMsg = string(errMsgBytes)
			ok = true
			return nil
		},
	})
	return cs, resultIon, errMsg, ok, err
}

// Evict removes every persisted entry for fn whose arg hash is not in
// keep, mirroring Cache.Evict's in-memory pruning for the durable store.
func (s *DiskStore) Evict(fn FnID, keep map[uint64]bool) error {
	var stale []uint64
	listQuery := fmt.Sprintf(`SELECT arg_hash FROM memo WHERE fn = %d`, fn)
	err := sqlitex.Execute(s.conn, listQuery, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			h := uint64(stmt.ColumnInt64(0))
			if !keep[h] {
				stale = append(stale, h)
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("track: scan memo table: %w", err)
	}
	for _, h := range stale {
		delQuery := fmt.Sprintf(`DELETE FROM memo WHERE fn = %d AND arg_hash = %d`, fn, h)
		if err := sqlitex.Execute(s.conn, delQuery, nil); err != nil {
			return fmt.Errorf("track: delete stale memo entry: %w", err)
		}
	}
	return nil
}
