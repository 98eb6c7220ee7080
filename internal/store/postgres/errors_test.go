package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"turnero/internal/store"
)

func TestMapWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "exclusion violation on the overlap constraint",
			err:  &pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"},
			want: store.ErrConflict,
		},
		{
			name: "exclusion violation on another constraint",
			err:  &pgconn.PgError{Code: "23P01", ConstraintName: "something_else"},
			want: nil,
		},
		{
			name: "duplicate key",
			err:  &pgconn.PgError{Code: "23505"},
			want: store.ErrConflict,
		},
		{
			name: "unrelated pg error",
			err:  &pgconn.PgError{Code: "42P01"},
			want: nil,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapWriteError(tc.err)
			if tc.want != nil {
				if !errors.Is(got, tc.want) {
					t.Fatalf("mapWriteError = %v, want %v", got, tc.want)
				}
				return
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("mapWriteError = %v, want original error passed through", got)
			}
		})
	}
}

func TestMapWriteError_Wrapped(t *testing.T) {
	inner := &pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"}
	err := fmt.Errorf("insert: %w", inner)
	if !errors.Is(mapWriteError(err), store.ErrConflict) {
		t.Fatalf("wrapped exclusion violation not mapped to ErrConflict")
	}
}

func TestMapHoursError(t *testing.T) {
	if !errors.Is(mapHoursError(&pgconn.PgError{Code: "23505"}), store.ErrConflict) {
		t.Fatalf("unique violation not mapped to ErrConflict")
	}
	plain := errors.New("boom")
	if !errors.Is(mapHoursError(plain), plain) {
		t.Fatalf("unrelated error not passed through")
	}
}
