package factory

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
)

// placeholder matches ${dotted.path}.
var placeholder = regexp.MustCompile(`\$\{([\w.]+)\}`)

// Constants is a decoded constants document.
//
// A string that is exactly one placeholder takes the constant's value and type:
//
//	"amount_today": "${tuition.annual}"   ->  "amount_today": 25000
//
// Placeholders inside a longer string are substituted as text. Unknown
// placeholders are left untouched.
type Constants map[string]any

// Lookup finds a constant: first as a literal top-level key ("a.b"), then as a
// path into nested objects ($.a.b).
func (c Constants) Lookup(path string) (any, bool) {
	if v, ok := c[path]; ok {
		return v, true
	}
	if len(c) == 0 {
		return nil, false
	}
	v, err := jsonpath.Get("$."+path, map[string]any(c))
	if err != nil {
		return nil, false
	}
	// jsonpath may wrap a single match in a list
	if list, ok := v.([]any); ok && len(list) == 1 {
		v = list[0]
	}
	return v, true
}

// Resolve returns a copy of doc with every placeholder replaced.
func (c Constants) Resolve(doc any) any {
	switch v := doc.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = c.Resolve(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = c.Resolve(item)
		}
		return out
	case string:
		return c.resolveString(v)
	}
	return doc
}

func (c Constants) resolveString(s string) any {
	if m := placeholder.FindStringSubmatch(s); m != nil && m[0] == s {
		if v, ok := c.Lookup(m[1]); ok {
			return v
		}
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]
		v, ok := c.Lookup(path)
		if !ok {
			return match
		}
		return formatConstant(v)
	})
}

func formatConstant(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return fmt.Sprint(v)
}
