package errors

import (
	"fmt"
	"io"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", New(IOFailure, "", nil), "i/o failure"},
		{"with subject", New(DatasetNotFound, "routput/Dmd", nil), "dataset not found: routput/Dmd"},
		{"with cause", New(FileNotFound, "db.h5", io.EOF), "file not found: db.h5: EOF"},
		{"formatted cause", Newf(SliceOutOfBounds, "a/b", "dim %d", 1), "slice out of bounds: a/b: dim 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIsByKind(t *testing.T) {
	err := fmt.Errorf("open: %w", New(DatasetNotFound, "x/y", io.ErrUnexpectedEOF))

	if !Is(err, ErrDatasetNotFound) {
		t.Error("Expected wrapped error to match ErrDatasetNotFound")
	}
	if Is(err, ErrIOFailure) {
		t.Error("Expected wrapped error not to match ErrIOFailure")
	}
	if !Is(err, io.ErrUnexpectedEOF) {
		t.Error("Expected cause to stay reachable")
	}
	if KindOf(err) != DatasetNotFound {
		t.Errorf("Expected DatasetNotFound, got %v", KindOf(err))
	}
	if KindOf(io.EOF) != Unknown {
		t.Errorf("Expected Unknown for foreign error, got %v", KindOf(io.EOF))
	}
}
