package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrDecode marks stored or received data that is not a valid item list.
var ErrDecode = errors.New("malformed item list")

const itemListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["goal", "deadline", "people"],
    "properties": {
      "goal": {"type": "string"},
      "deadline": {"type": "string"},
      "people": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

var listSchema = jsonschema.MustCompileString("item-list.schema.json", itemListSchema)

// Validate checks that b is a JSON array of item-shaped objects.
// Unknown object properties are allowed.
func Validate(b []byte) error {
	doc, err := decodeAny(b)
	if err != nil {
		return fmt.Errorf("%w: json: %v", ErrDecode, err)
	}
	if err := listSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrDecode, describe(err))
	}
	return nil
}

// decodeAny parses b into a generic tree for schema validation. Numbers stay
// json.Number and anything after the first value is an error.
func decodeAny(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return doc, nil
}

// DecodeList parses a stored list. Blank input is the empty list.
func DecodeList(b []byte) ([]Item, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return []Item{}, nil
	}
	if err := Validate(b); err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("%w: json unmarshal: %v", ErrDecode, err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// EncodeList serializes items; a nil list encodes as [].
func EncodeList(items []Item) ([]byte, error) {
	b, err := json.Marshal(normalize(items))
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

// normalize copies items, replacing nil slices so the encoded form never
// carries null.
func normalize(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		if it.People == nil {
			out[i].People = []string{}
		}
	}
	return out
}

// describe flattens a schema validation error to its leaf causes.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	collect(ve, &msgs)
	if len(msgs) == 0 {
		return ve.Message
	}
	out := msgs[0]
	for _, m := range msgs[1:] {
		out += "; " + m
	}
	return out
}

func collect(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*msgs = append(*msgs, loc+": "+ve.Message)
		return
	}
	for _, c := range ve.Causes {
		collect(c, msgs)
	}
}
