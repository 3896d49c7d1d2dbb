package repo

import (
	"errors"
	"testing"

	"github.com/shaiso/Glyph/internal/domain"
)

func TestDSN(t *testing.T) {
	t.Setenv("GLYPH_DB_URL", "")
	if DSN() != DefaultDSN {
		t.Errorf("expected default dsn, got %s", DSN())
	}

	t.Setenv("GLYPH_DB_URL", "postgres://u:p@db:5432/ocr")
	if DSN() != "postgres://u:p@db:5432/ocr" {
		t.Errorf("expected env dsn, got %s", DSN())
	}
}

func TestMarshalResults(t *testing.T) {
	data, err := marshalResults(domain.Failed("a.png", errors.New("x")))
	if err != nil || data != nil {
		t.Errorf("expected nil for failed outcome, got %s (%v)", data, err)
	}

	data, err = marshalResults(domain.Succeeded("a.png", nil))
	if err != nil || string(data) != "[]" {
		t.Errorf("expected empty array, got %s (%v)", data, err)
	}
}

func TestNullString(t *testing.T) {
	if nullString("") != nil {
		t.Error("expected nil for empty string")
	}
	if s := nullString("boom"); s == nil || *s != "boom" {
		t.Error("expected pointer to value")
	}
}
