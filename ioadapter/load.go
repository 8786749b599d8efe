package ioadapter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/Tangerg/veritas/value"
	"github.com/Tangerg/veritas/veritaserr"
)

// Format names a delimited input-file format (spec §6.3: "CSV or TSV").
type Format int

const (
	FormatCSV Format = iota
	FormatTSV
)

func (f Format) comma() rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}

// Load reads a delimited file at path and converts every row to a
// value.Tuple matching tt, using github.com/spf13/cast for per-column
// coercion so a malformed cell surfaces as a *veritaserr.InputFileError
// wrapping the coercion error instead of a silent zero value. Missing
// files are fatal, per spec §6.3.
func Load(path string, format Format, tt value.TupleType) ([]value.Tuple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &veritaserr.InputFileError{Path: path, Cause: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = format.comma()
	r.FieldsPerRecord = -1

	columns := leafColumns(tt)

	var out []value.Tuple
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &veritaserr.InputFileError{Path: path, Cause: err}
		}
		tup, err := rowToTuple(record, columns, tt)
		if err != nil {
			return nil, &veritaserr.InputFileError{Path: path, Cause: err}
		}
		out = append(out, tup)
	}
	return out, nil
}

// leafColumns flattens a (possibly nested) TupleType into the ordered
// list of leaf Kinds a CSV row's columns must decode into. Nesting in
// the declared type is recreated positionally once every leaf is
// coerced (rowToTuple's build walk over tt), matching how the RAM
// compiler lays out a flat input row against a structured tuple type.
func leafColumns(tt value.TupleType) []value.Kind {
	if tt.IsLeaf() {
		return []value.Kind{tt.Kind()}
	}
	var out []value.Kind
	for _, child := range tt.Children() {
		out = append(out, leafColumns(child)...)
	}
	return out
}

func rowToTuple(record []string, columns []value.Kind, tt value.TupleType) (value.Tuple, error) {
	if len(record) != len(columns) {
		return value.Tuple{}, fmt.Errorf("ioadapter: row has %d columns, want %d", len(record), len(columns))
	}
	leaves := make([]value.Tuple, len(record))
	for i, cell := range record {
		v, err := cellToValue(cell, columns[i])
		if err != nil {
			return value.Tuple{}, fmt.Errorf("ioadapter: column %d: %w", i, err)
		}
		leaves[i] = value.Leaf(v)
	}
	pos := 0
	var build func(t value.TupleType) value.Tuple
	build = func(t value.TupleType) value.Tuple {
		if t.IsLeaf() {
			pos++
			return leaves[pos-1]
		}
		children := make([]value.Tuple, 0, len(t.Children()))
		for _, c := range t.Children() {
			children = append(children, build(c))
		}
		return value.Seq(children...)
	}
	return build(tt), nil
}

func cellToValue(cell string, kind value.Kind) (value.Value, error) {
	switch kind {
	case value.KindI8:
		v, err := cast.ToInt8E(cell)
		return value.NewI8(v), err
	case value.KindI16:
		v, err := cast.ToInt16E(cell)
		return value.NewI16(v), err
	case value.KindI32:
		v, err := cast.ToInt32E(cell)
		return value.NewI32(v), err
	case value.KindI64:
		v, err := cast.ToInt64E(cell)
		return value.NewI64(v), err
	case value.KindU8:
		v, err := cast.ToUint8E(cell)
		return value.NewU8(v), err
	case value.KindU16:
		v, err := cast.ToUint16E(cell)
		return value.NewU16(v), err
	case value.KindU32:
		v, err := cast.ToUint32E(cell)
		return value.NewU32(v), err
	case value.KindU64:
		v, err := cast.ToUint64E(cell)
		return value.NewU64(v), err
	case value.KindF32:
		v, err := cast.ToFloat32E(cell)
		return value.NewF32(v), err
	case value.KindF64:
		v, err := cast.ToFloat64E(cell)
		return value.NewF64(v), err
	case value.KindBool:
		v, err := cast.ToBoolE(cell)
		return value.NewBool(v), err
	case value.KindChar:
		runes := []rune(cell)
		if len(runes) != 1 {
			return value.Value{}, fmt.Errorf("ioadapter: %q is not a single character", cell)
		}
		return value.NewChar(runes[0]), nil
	case value.KindString:
		return value.NewString(cell), nil
	case value.KindSymbol:
		return value.NewSymbol(strings.TrimSpace(cell)), nil
	case value.KindDate:
		t, err := cast.ToTimeE(cell)
		return value.NewDate(t), err
	case value.KindDuration:
		d, err := cast.ToDurationE(cell)
		return value.NewDuration(d), err
	case value.KindEntity:
		id, err := uuid.Parse(cell)
		return value.NewEntity(id), err
	default:
		return value.Value{}, fmt.Errorf("ioadapter: unsupported leaf kind %s", kind)
	}
}
