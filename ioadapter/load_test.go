package ioadapter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tangerg/veritas/value"
	"github.com/Tangerg/veritas/veritaserr"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writeTemp: %v", err)
	}
	return path
}

func TestLoadCSVFlatRows(t *testing.T) {
	path := writeTemp(t, "edge.csv", "1,2\n2,3\n3,4\n")
	tt := value.SeqType(value.LeafType(value.KindI64), value.LeafType(value.KindI64))

	got, err := Load(path, FormatCSV, tt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []value.Tuple{
		value.Seq(value.Leaf(value.NewI64(1)), value.Leaf(value.NewI64(2))),
		value.Seq(value.Leaf(value.NewI64(2)), value.Leaf(value.NewI64(3))),
		value.Seq(value.Leaf(value.NewI64(3)), value.Leaf(value.NewI64(4))),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tuples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].String() != want[i].String() {
			t.Errorf("row %d: got %s, want %s", i, got[i].String(), want[i].String())
		}
	}
}

func TestLoadTSVMixedColumns(t *testing.T) {
	path := writeTemp(t, "person.tsv", "alice\t30\ttrue\nbob\t25\tfalse\n")
	tt := value.SeqType(
		value.LeafType(value.KindString),
		value.LeafType(value.KindI64),
		value.LeafType(value.KindBool),
	)

	got, err := Load(path, FormatTSV, tt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tuples, want 2", len(got))
	}
	alice := got[0].Children()
	if alice[0].Value().String() != "alice" || alice[1].Value().I64() != 30 || alice[2].Value().Bool() != true {
		t.Errorf("row 0 decoded wrong: %s", got[0].String())
	}
}

func TestLoadSingleColumnIsLeafNotSeq(t *testing.T) {
	path := writeTemp(t, "names.csv", "a\nb\nc\n")
	tt := value.LeafType(value.KindSymbol)

	got, err := Load(path, FormatCSV, tt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 || !got[0].IsLeaf() {
		t.Fatalf("expected 3 leaf tuples, got %v", got)
	}
	if got[0].Value().String() != "a" {
		t.Errorf("got %q, want %q", got[0].Value().String(), "a")
	}
}

func TestLoadMalformedCellIsInputFileError(t *testing.T) {
	path := writeTemp(t, "bad.csv", "not-a-number,2\n")
	tt := value.SeqType(value.LeafType(value.KindI64), value.LeafType(value.KindI64))

	_, err := Load(path, FormatCSV, tt)
	if err == nil {
		t.Fatal("expected an error for a malformed cell, got nil")
	}
	var inputErr *veritaserr.InputFileError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected *veritaserr.InputFileError, got %T: %v", err, err)
	}
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.csv")
	tt := value.LeafType(value.KindI64)

	_, err := Load(path, FormatCSV, tt)
	if err == nil {
		t.Fatal("expected an error for a missing file, got nil")
	}
	var inputErr *veritaserr.InputFileError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected *veritaserr.InputFileError, got %T: %v", err, err)
	}
	if inputErr.Path != path {
		t.Errorf("got path %q, want %q", inputErr.Path, path)
	}
}
