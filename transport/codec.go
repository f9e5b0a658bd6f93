package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// EncodeJSON encodes payload without HTML escaping. Slashes and non-ASCII
// characters are written verbatim.
func EncodeJSON(payload any) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("transport: encode json body: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeObject decodes a JSON object body. Bodies that are empty or not a JSON
// object decode to an empty map with ok=false.
func DecodeObject(body []byte) (map[string]any, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return map[string]any{}, false
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	out := map[string]any{}
	if err := decoder.Decode(&out); err != nil {
		return map[string]any{}, false
	}
	return out, true
}

// EncodeQuery flattens a payload into bracketed query keys, e.g.
// filter[from]=20240101 and items[0]=a. Nil values are skipped and booleans
// encode as 1 or 0.
func EncodeQuery(payload map[string]any) url.Values {
	values := url.Values{}
	keys := sortedKeys(payload)
	for _, key := range keys {
		appendQueryValue(values, key, payload[key])
	}
	return values
}

func appendQueryValue(values url.Values, key string, value any) {
	switch typed := value.(type) {
	case nil:
		return
	case map[string]any:
		for _, child := range sortedKeys(typed) {
			appendQueryValue(values, key+"["+child+"]", typed[child])
		}
	case []any:
		for index, item := range typed {
			appendQueryValue(values, key+"["+strconv.Itoa(index)+"]", item)
		}
	case []string:
		for index, item := range typed {
			values.Add(key+"["+strconv.Itoa(index)+"]", item)
		}
	case bool:
		if typed {
			values.Add(key, "1")
		} else {
			values.Add(key, "0")
		}
	case string:
		values.Add(key, typed)
	case json.Number:
		values.Add(key, typed.String())
	case float64:
		values.Add(key, strconv.FormatFloat(typed, 'f', -1, 64))
	case float32:
		values.Add(key, strconv.FormatFloat(float64(typed), 'f', -1, 32))
	default:
		values.Add(key, strings.TrimSpace(fmt.Sprint(typed)))
	}
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
