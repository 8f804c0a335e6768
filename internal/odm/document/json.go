package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeLayout is the layout used for the $dt wrapper form. It is
// ISO-8601 with millisecond precision, matching documents already stored
// by existing deployments.
const DefaultTimeLayout = "2006-01-02T15:04:05.000Z07:00"

var timeLayout = DefaultTimeLayout

// SetTimeLayout overrides the $dt layout. It is intended for process
// startup, before any documents are encoded or decoded.
func SetTimeLayout(layout string) {
	timeLayout = layout
}

// TimeLayout returns the layout currently used for the $dt wrapper form.
func TimeLayout() string {
	return timeLayout
}

// MarshalJSON serializes the document preserving element order and
// emitting wrapper forms for non-primitive scalars.
func (d Doc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeDoc(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object into the document, preserving key
// order and folding wrapper-form objects back into their scalar types.
func (d *Doc) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document: expected object, got %v", tok)
	}
	doc, err := decodeMembers(dec)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

func encodeDoc(buf *bytes.Buffer, d Doc) error {
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := encodeValue(buf, e.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case Doc:
		return encodeDoc(buf, val)
	case List:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case ObjectID:
		return encodeDoc(buf, Doc{{Key: "$oid", Value: val.Hex()}})
	case uuid.UUID:
		return encodeDoc(buf, Doc{{Key: "$uuid", Value: val.String()}})
	case time.Time:
		return encodeDoc(buf, Doc{{Key: "$dt", Value: val.Format(timeLayout)}})
	case Regex:
		return encodeDoc(buf, Doc{
			{Key: "$regex", Value: val.Pattern},
			{Key: "$flags", Value: int64(val.Flags)},
		})
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

// decodeMembers consumes object members up to and including the closing
// brace. The opening brace must already have been consumed.
func decodeMembers(dec *json.Decoder) (Doc, error) {
	doc := Doc{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("document: expected object key, got %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc = append(doc, Elem{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return doc, nil
}

func decodeDoc(dec *json.Decoder) (interface{}, error) {
	doc, err := decodeMembers(dec)
	if err != nil {
		return nil, err
	}
	return foldWrapper(doc)
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeDoc(dec)
		case '[':
			list := List{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, item)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("document: unexpected delimiter %v", t)
		}
	case json.Number:
		return decodeNumber(t)
	case string, bool, nil:
		return tok, nil
	default:
		return nil, fmt.Errorf("document: unexpected token %v", tok)
	}
}

func decodeNumber(n json.Number) (interface{}, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	return n.Float64()
}

// foldWrapper recognizes the wrapper-form shapes and converts them back
// into scalars. Any other object stays a plain Doc, including objects that
// merely contain a wrapper key among others.
func foldWrapper(d Doc) (interface{}, error) {
	switch len(d) {
	case 1:
		s, isString := d[0].Value.(string)
		if !isString {
			return d, nil
		}
		switch d[0].Key {
		case "$oid":
			id, err := ObjectIDFromHex(s)
			if err != nil {
				return nil, err
			}
			return id, nil
		case "$uuid":
			u, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("document: invalid $uuid: %w", err)
			}
			return u, nil
		case "$dt":
			t, err := time.Parse(timeLayout, s)
			if err != nil {
				return nil, fmt.Errorf("document: invalid $dt: %w", err)
			}
			return t, nil
		}
		return d, nil
	case 2:
		if d[0].Key == "$regex" && d[1].Key == "$flags" {
			pattern, okP := d[0].Value.(string)
			flags, okF := d[1].Value.(int64)
			if okP && okF {
				return Regex{Pattern: pattern, Flags: int32(flags)}, nil
			}
		}
		return d, nil
	default:
		return d, nil
	}
}
