package store

import (
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsRecordError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		record bool
	}{
		{"nil", nil, false},
		{"plain error", os.ErrClosed, false},
		{"numeric out of range", &pgconn.PgError{Code: "22003"}, true},
		{"not null violation", &pgconn.PgError{Code: "23502"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, true},
		// An aborted transaction means earlier statements already failed
		// without savepoint recovery; retrying siblings is pointless.
		{"in failed sql transaction", &pgconn.PgError{Code: "25P02"}, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, false},
		{"wrapped unique violation", fmt.Errorf("insert availability: %w", &pgconn.PgError{Code: "23505"}), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRecordError(tc.err); got != tc.record {
				t.Errorf("IsRecordError(%v) = %v, want %v", tc.err, got, tc.record)
			}
		})
	}
}
