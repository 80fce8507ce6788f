package models

import (
	"encoding/json"
	"fmt"
)

// Tristate is an answer that may not have been given yet.
// The zero value is Unknown so freshly created fields read as "not asked".
type Tristate int

const (
	Unknown Tristate = iota
	True
	False
)

// FromBool converts a definite answer.
func FromBool(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// FromPtr maps a nullable boolean column (or JSON field) onto a Tristate.
func FromPtr(b *bool) Tristate {
	if b == nil {
		return Unknown
	}
	return FromBool(*b)
}

// Ptr is the inverse of FromPtr.
func (t Tristate) Ptr() *bool {
	switch t {
	case True:
		v := true
		return &v
	case False:
		v := false
		return &v
	default:
		return nil
	}
}

func (t Tristate) IsKnown() bool { return t == True || t == False }

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null.
func (t Tristate) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Ptr())
}

func (t *Tristate) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("tristate must be true, false or null: %w", err)
	}
	*t = FromPtr(b)
	return nil
}
