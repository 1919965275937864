// Package field writes and reads form fields by kind.
//
// Each kind of control has one Handler. A Registry resolves the handler for
// a Field once, when it is bound, so every later Set or Get goes straight
// to it.
package field

import (
	"fmt"
	"strings"
)

// Kind is the closed set of field kinds.
type Kind int

const (
	Text Kind = iota
	Numeric
	OptionSet
	Boolean
	Lookup
	DateTime
)

var kindNames = map[Kind]string{
	Text:      "text",
	Numeric:   "numeric",
	OptionSet: "optionset",
	Boolean:   "boolean",
	Lookup:    "lookup",
	DateTime:  "datetime",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a field kind name, as found in locator catalogs, to a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	switch name {
	case "string", "memo":
		return Text, nil
	case "integer", "decimal", "money", "number":
		return Numeric, nil
	case "picklist", "select":
		return OptionSet, nil
	case "bool", "twooptions":
		return Boolean, nil
	case "date":
		return DateTime, nil
	}
	return 0, fmt.Errorf("unknown field kind %q", s)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown field kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
