package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCompileError(t *testing.T) {
	tests := []struct {
		name     string
		err      *CompileError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with context",
			err:      &CompileError{Code: CodeInvalidChord, Message: "unknown root note", Context: "Hm7", Pos: 4},
			wantMsg:  `invalid_chord: unknown root note (near "Hm7")`,
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without context",
			err:      &CompileError{Code: CodeMismatchedBrackets, Message: "unbalanced loop brackets", Pos: -1},
			wantMsg:  "mismatched_brackets: unbalanced loop brackets",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("strconv failure")
		err := &CompileError{Code: CodeMissingRepeatCount, Message: "no digits after bracket", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestCompileCode(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		err := NewCompile(CodeDivisionError, "positions do not divide beats")
		if got := CompileCode(err); got != CodeDivisionError {
			t.Errorf("CompileCode() = %q, want %q", got, CodeDivisionError)
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		err := Wrap(NewCompile(CodeAllBeatsRemoved, "nothing left to play"), "section verse-1")
		if got := CompileCode(err); got != CodeAllBeatsRemoved {
			t.Errorf("CompileCode() = %q, want %q", got, CodeAllBeatsRemoved)
		}
	})

	t.Run("non compile error", func(t *testing.T) {
		if got := CompileCode(fmt.Errorf("plain")); got != "" {
			t.Errorf("CompileCode() = %q, want empty", got)
		}
	})
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "song", ID: "wild-horses"},
			wantMsg:  "song not found: wild-horses",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "pattern"},
			wantMsg:  "pattern not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "setlist", ID: "friday.tar.xz", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with field",
			err:      &ValidationError{Field: "tempo", Message: "must be between 20 and 400"},
			wantMsg:  "validation failed for tempo: must be between 20 and 400",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without field",
			err:      &ValidationError{Message: "invalid format"},
			wantMsg:  "validation failed: invalid format",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestIOError(t *testing.T) {
	baseErr := fmt.Errorf("permission denied")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &IOError{Operation: "read", Path: "/test/song.crd", Err: baseErr},
			wantMsg: "failed to read /test/song.crd: permission denied",
		},
		{
			name:    "without path",
			err:     &IOError{Operation: "write", Err: baseErr},
			wantMsg: "failed to write: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, baseErr) {
				t.Errorf("Unwrap() = %v, want %v", got, baseErr)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with path",
			err:      &ParseError{Format: "songcode", Path: "song.crd", Message: "unexpected EOF"},
			wantMsg:  "failed to parse songcode at song.crd: unexpected EOF",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without path",
			err:      &ParseError{Format: "MusicXML", Message: "malformed tag"},
			wantMsg:  "failed to parse MusicXML: malformed tag",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestUnsupportedError(t *testing.T) {
	tests := []struct {
		name     string
		err      *UnsupportedError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with reason",
			err:      &UnsupportedError{Feature: "time signature", Reason: "denominator must be 2 or 4"},
			wantMsg:  "unsupported time signature: denominator must be 2 or 4",
			wantBase: ErrUnsupported,
		},
		{
			name:     "without reason",
			err:      &UnsupportedError{Feature: "format"},
			wantMsg:  "unsupported format",
			wantBase: ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestHelperFunctions(t *testing.T) {
	t.Run("NewCompile", func(t *testing.T) {
		err := NewCompile(CodeTimingMismatch, "lyric beats do not sum")
		if err.Code != CodeTimingMismatch || err.Pos != -1 {
			t.Errorf("NewCompile() = %+v, want Code=timing_mismatch, Pos=-1", err)
		}
	})

	t.Run("NewCompileAt", func(t *testing.T) {
		err := NewCompileAt(CodeRemoverMisplaced, 7, "=", "remover needs a preceding chord")
		if err.Pos != 7 || err.Context != "=" {
			t.Errorf("NewCompileAt() = %+v, want Pos=7, Context==", err)
		}
	})

	t.Run("NewNotFound", func(t *testing.T) {
		err := NewNotFound("song", "test-id")
		if err.Resource != "song" || err.ID != "test-id" {
			t.Errorf("NewNotFound() = %+v, want Resource=song, ID=test-id", err)
		}
	})

	t.Run("NewValidation", func(t *testing.T) {
		err := NewValidation("capo", "out of range")
		if err.Field != "capo" || err.Message != "out of range" {
			t.Errorf("NewValidation() = %+v, unexpected values", err)
		}
	})

	t.Run("NewIO", func(t *testing.T) {
		baseErr := fmt.Errorf("disk full")
		err := NewIO("write", "/tmp/test", baseErr)
		if err.Operation != "write" || err.Path != "/tmp/test" || err.Err != baseErr {
			t.Errorf("NewIO() = %+v, unexpected values", err)
		}
	})

	t.Run("NewParse", func(t *testing.T) {
		err := NewParse("songcode", "song.crd", "invalid syntax")
		if err.Format != "songcode" || err.Path != "song.crd" || err.Message != "invalid syntax" {
			t.Errorf("NewParse() = %+v, unexpected values", err)
		}
	})

	t.Run("NewUnsupported", func(t *testing.T) {
		err := NewUnsupported("chord kind", "no mapping defined")
		if err.Feature != "chord kind" || err.Reason != "no mapping defined" {
			t.Errorf("NewUnsupported() = %+v, unexpected values", err)
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("wraps error", func(t *testing.T) {
		baseErr := fmt.Errorf("base error")
		wrapped := Wrap(baseErr, "context message")
		if wrapped == nil {
			t.Fatal("Wrap() returned nil")
		}
		if !errors.Is(wrapped, baseErr) {
			t.Errorf("Wrap() error does not unwrap to base error")
		}
		wantMsg := "context message: base error"
		if wrapped.Error() != wantMsg {
			t.Errorf("Wrap() = %q, want %q", wrapped.Error(), wantMsg)
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if got := Wrap(nil, "context"); got != nil {
			t.Errorf("Wrap(nil) = %v, want nil", got)
		}
	})
}

func TestWrapf(t *testing.T) {
	t.Run("wraps error with formatting", func(t *testing.T) {
		baseErr := fmt.Errorf("base error")
		wrapped := Wrapf(baseErr, "failed to process %s", "song.crd")
		if wrapped == nil {
			t.Fatal("Wrapf() returned nil")
		}
		if !errors.Is(wrapped, baseErr) {
			t.Errorf("Wrapf() error does not unwrap to base error")
		}
		wantMsg := "failed to process song.crd: base error"
		if wrapped.Error() != wantMsg {
			t.Errorf("Wrapf() = %q, want %q", wrapped.Error(), wantMsg)
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if got := Wrapf(nil, "context %s", "test"); got != nil {
			t.Errorf("Wrapf(nil) = %v, want nil", got)
		}
	})
}

func TestIs(t *testing.T) {
	err := &NotFoundError{Resource: "test"}
	if !Is(err, ErrNotFound) {
		t.Error("Is() failed to match NotFoundError to ErrNotFound")
	}
}

func TestAs(t *testing.T) {
	err := &NotFoundError{Resource: "test", ID: "123"}
	var nfErr *NotFoundError
	if !As(err, &nfErr) {
		t.Error("As() failed to match NotFoundError")
	}
	if nfErr.ID != "123" {
		t.Errorf("As() nfErr.ID = %q, want %q", nfErr.ID, "123")
	}
}
