package schema

import (
	"bytes"
	"fmt"

	"github.com/auditdoc/auditdoc/pkg/jsonutil"
)

type orderedPair struct {
	key   string
	value any
}

// marshalOrdered encodes pairs as a JSON object, keeping their order.
func marshalOrdered(pairs []orderedPair) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := jsonutil.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		v, err := jsonutil.Marshal(p.value)
		if err != nil {
			return nil, fmt.Errorf("schema: encoding %q: %w", p.key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// cloneValue deep-copies the container shapes used by examples and sample
// data. Scalars are returned as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		if t == nil {
			return []string(nil)
		}
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
