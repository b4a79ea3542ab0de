package lib

import (
	"bytes"
	"encoding/json"
	"io"

	"Xml2Json/common"
	"github.com/pkg/errors"
)

type Field struct {
	Key   string
	Value string
}

// Record : one converted 'list' element. Keys keep the order of their first appearance.
type Record struct {
	fields []Field
	index  map[string]int
}

func NewRecord() *Record {
	return &Record{index: make(map[string]int)}
}

// Set overwrites the value of an existing key in place (last write wins), or appends a new field.
func (r *Record) Set(key string, value string) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

func (r *Record) Get(key string) (string, bool) {
	if i, ok := r.index[key]; ok {
		return r.fields[i].Value, true
	}
	return "", false
}

func (r *Record) Len() int {
	return len(r.fields)
}

func (r *Record) Fields() []Field {
	return r.fields
}

func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for _, f := range r.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// ToMap loses the key order. Used for the libraries which only accept maps.
func (r *Record) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, len(r.fields))
	for _, f := range r.fields {
		m[f.Key] = f.Value
	}
	return m
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		// Encode appends '\n', which is insignificant whitespace in JSON
		if err := enc.Encode(f.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := enc.Encode(f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object of strings, keeping the key order. null becomes "".
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.Errorf("expected a JSON object but got %v", tok)
	}
	*r = *NewRecord()
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case string:
			r.Set(key, v)
		case nil:
			r.Set(key, "")
		default:
			return errors.Errorf("value of '%s' is not a string: %v", key, tok)
		}
	}
	_, err = dec.Token()
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

// EncodeJSON returns the records as a JSON array, 4 spaces indented, without escaping non-ASCII or HTML characters.
func EncodeJSON(records []*Record) ([]byte, error) {
	if records == nil {
		records = []*Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", common.JSON_INDENT)
	if err := enc.Encode(records); err != nil {
		return nil, errors.Wrap(err, "failed to encode records as JSON")
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes of encoding/json back into the characters.
// Escapes are read in pairs, so an escaped backslash followed by "u2028" is left alone.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if i+5 < len(b) && string(b[i+1:i+5]) == "u202" {
			switch b[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// DecodeJSON reads an array of flat string objects (e.g. a previously converted output.json).
func DecodeJSON(data []byte) ([]*Record, error) {
	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "failed to decode records from JSON")
	}
	// 'null' elements
	nonNil := records[:0]
	for _, r := range records {
		if r != nil {
			nonNil = append(nonNil, r)
		}
	}
	return nonNil, nil
}
