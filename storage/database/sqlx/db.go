// Package sqlxrepos implements the core repository interfaces against
// Postgres with sqlx. Collection-valued fields (history, notes,
// notifications, responses) are stored as JSONB documents so each
// aggregate is written in a single per-row atomic statement; there are
// no cross-row transactions, matching the core's storage contract.
package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

func NewDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// all persisted types marshal cleanly; this indicates a programming error
		panic(errors.Wrap(err, "marshaling JSONB column"))
	}
	return data
}

func fromJSON(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, v), "unmarshaling JSONB column")
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}

func strOrEmpty(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func timeOrZero(nt sql.NullTime) time.Time {
	if nt.Valid {
		return nt.Time.UTC()
	}
	return time.Time{}
}

func dollar(n int) string {
	return fmt.Sprintf("$%d", n)
}

func pqStringArray(ss []string) interface{} {
	return pq.Array(ss)
}
