package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

type (
	// FieldType declares the expected shape of a schema field
	FieldType int

	// A Schema is a recognized set of named attribute fields with
	// declared types. Attributes loaded from storage are checked
	// against it so that schema drift surfaces as an error instead
	// of being silently dropped
	Schema map[string]FieldType
)

const (
	String FieldType = iota
	Int
	Float
	Bool
	Object
)

var (
	ErrUnknownField = errors.New("unknown attribute field")
	ErrFieldType    = errors.New("attribute field type mismatch")
)

// Check validates a single encoded attribute against the schema
func (s Schema) Check(name string, data string) error {
	ft, ok := s[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	var err error
	switch ft {
	case String:
		var v string
		err = json.Unmarshal([]byte(data), &v)
	case Int:
		var v int64
		err = json.Unmarshal([]byte(data), &v)
	case Float:
		var v float64
		err = json.Unmarshal([]byte(data), &v)
	case Bool:
		var v bool
		err = json.Unmarshal([]byte(data), &v)
	case Object:
		var v map[string]any
		err = json.Unmarshal([]byte(data), &v)
	default:
		return fmt.Errorf("%w: %q has unsupported declared type", ErrFieldType, name)
	}

	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrFieldType, name, err)
	}

	return nil
}

// CheckAll validates a full attribute mapping as loaded from storage
func (s Schema) CheckAll(attrs map[string]string) error {
	for name, data := range attrs {
		if err := s.Check(name, data); err != nil {
			return err
		}
	}

	return nil
}
