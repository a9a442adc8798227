package sessionstore

import (
	"encoding/json"
	"fmt"
)

// wrappedValue is the envelope every payload is stored in. The backend reports
// absence with its own sentinel, which would be indistinguishable from a
// legitimately stored null; the envelope keeps "no value" and "null value"
// apart.
type wrappedValue struct {
	Value interface{} `json:"value"`
}

func wrapValue(value interface{}) (string, error) {
	data, err := json.Marshal(wrappedValue{Value: value})
	if err != nil {
		return "", fmt.Errorf("wrapValue json.Marshal: %w", err)
	}
	return string(data), nil
}

func unwrapValue(raw string) (interface{}, error) {
	var wv wrappedValue
	if err := json.Unmarshal([]byte(raw), &wv); err != nil {
		return nil, fmt.Errorf("unwrapValue json.Unmarshal: %w", err)
	}
	return wv.Value, nil
}

func encodeRegistry(keys []string) (string, error) {
	data, err := json.Marshal(keys)
	if err != nil {
		return "", fmt.Errorf("encodeRegistry json.Marshal: %w", err)
	}
	return string(data), nil
}

func decodeRegistry(raw string) ([]string, error) {
	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, fmt.Errorf("decodeRegistry json.Unmarshal: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// deepCopy clones a value by round-tripping it through JSON. Every value held
// by the store survives JSON serialization already, so the clone is exactly
// what a fresh read from the backend would produce - a cached Get and an
// uncached Get are indistinguishable to the caller.
func deepCopy(value interface{}) (interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("deepCopy json.Marshal: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("deepCopy json.Unmarshal: %w", err)
	}
	return out, nil
}
