package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a list-valued column stored as a JSON array in TEXT.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(l))
}

// Contains reports whether the list holds the given value.
func (l StringList) Contains(v string) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

// Union returns the de-duplicated union of the receiver and other, keeping
// first-seen order.
func (l StringList) Union(other StringList) StringList {
	seen := make(map[string]struct{}, len(l)+len(other))
	out := make(StringList, 0, len(l)+len(other))
	for _, list := range []StringList{l, other} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
