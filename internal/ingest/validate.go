package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"gradebook/internal/schema"
)

// Value is the decoded form of one field: Text for identifier, name and
// section fields, Score for score fields.
type Value struct {
	Text  string
	Score schema.Score
}

// isNone reports whether raw encodes an absent value.
func isNone(raw string) bool {
	return raw == "" || strings.EqualFold(raw, schema.SentinelNone)
}

// ValidateField classifies a single candidate value for f. Identifier
// uniqueness is not checked here; see Validator.
func ValidateField(f schema.Field, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)

	switch f.Kind {
	case schema.KindIdentifier:
		if raw == "" {
			return Value{}, &ValidationError{Field: f.Name, Err: ErrEmptyIdentifier}
		}
		return Value{Text: raw}, nil

	case schema.KindName:
		if isNone(raw) {
			return Value{}, nil
		}
		for _, r := range raw {
			if unicode.IsDigit(r) {
				return Value{}, &ValidationError{Field: f.Name, Value: raw, Err: ErrDigitInName}
			}
		}
		return Value{Text: raw}, nil

	case schema.KindSection:
		if isNone(raw) {
			return Value{}, nil
		}
		return Value{Text: raw}, nil

	case schema.KindScore:
		if isNone(raw) {
			return Value{Score: schema.Missing()}, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Value{}, &ValidationError{Field: f.Name, Value: raw, Err: ErrNotANumber}
		}
		if v < 0 || v > 100 {
			return Value{}, &ValidationError{Field: f.Name, Value: raw, Err: ErrOutOfRange}
		}
		return Value{Score: schema.Present(v)}, nil
	}

	return Value{}, fmt.Errorf("unknown field kind %v", f.Kind)
}

// Validator checks rows against the schema and against the set of ids it
// has seen, so uniqueness covers the whole roster and not only one batch.
type Validator struct {
	known map[string]struct{}
}

// NewValidator returns a validator that treats ids as already taken.
func NewValidator(ids ...string) *Validator {
	v := &Validator{known: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		v.known[id] = struct{}{}
	}
	return v
}

// Known reports whether id is taken.
func (v *Validator) Known(id string) bool {
	_, ok := v.known[id]
	return ok
}

// Accept marks id as taken.
func (v *Validator) Accept(id string) {
	v.known[id] = struct{}{}
}

// CheckIdentifier validates a candidate id, including uniqueness.
func (v *Validator) CheckIdentifier(raw string) (string, error) {
	f, _ := schema.Lookup(schema.FieldStudentID)
	val, err := ValidateField(f, raw)
	if err != nil {
		return "", err
	}
	if v.Known(val.Text) {
		return "", &DuplicateIdentifierError{ID: val.Text}
	}
	return val.Text, nil
}

// ValidateRow decodes a raw row into a Record. The first failing field is
// reported. The id is not marked as taken; call Accept once the record is kept.
func (v *Validator) ValidateRow(raw []string) (schema.Record, error) {
	var rec schema.Record

	if len(raw) != schema.NumFields {
		return rec, &ValidationError{
			Field: "row",
			Value: strconv.Itoa(len(raw)),
			Err:   fmt.Errorf("%w: want %d", ErrFieldCount, schema.NumFields),
		}
	}

	id, err := v.CheckIdentifier(raw[0])
	if err != nil {
		return rec, err
	}
	rec.ID = id

	for _, f := range schema.Fields()[1:] {
		val, err := ValidateField(f, raw[f.Index])
		if err != nil {
			return schema.Record{}, err
		}
		if f.Kind == schema.KindScore {
			_ = rec.SetScore(f.Name, val.Score)
		} else {
			_ = rec.SetText(f.Name, val.Text)
		}
	}
	return rec, nil
}

// EncodeRow renders a record for the roster file. Absent values are
// written as the "none" sentinel.
func EncodeRow(r schema.Record) []string {
	out := make([]string, 0, schema.NumFields)
	for _, f := range schema.Fields() {
		if f.Kind == schema.KindScore {
			s, _ := r.Score(f.Name)
			out = append(out, s.String())
			continue
		}
		text := r.Text(f.Name)
		if text == "" {
			text = schema.SentinelNone
		}
		out = append(out, text)
	}
	return out
}
