package box

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec encodes resources to JSON and decodes JSON into the correct variant
// through a registry. Unknown input fields are preserved in the extras map of
// the decoded resource instead of being discarded, and merged back into the
// flat JSON object on encode.
type Codec struct {
	registry *Registry
}

// NewCodec returns a codec over the given registry.
func NewCodec(registry *Registry) *Codec {
	return &Codec{registry: registry}
}

// DefaultCodec is a codec over the default registry.
var DefaultCodec = NewCodec(Default)

// Encode renders a resource as JSON text. Known fields whose value is null
// are omitted, except the fields the variant schema declares null-observable,
// which encode as explicit JSON null. The type discriminant is always
// stamped from the registry, whether or not the instance ever set it.
func (c *Codec) Encode(res Resource) ([]byte, error) {
	m, err := c.encodeMap(res)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding %s resource: %w", res.ResourceType(), err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeString renders a resource as a JSON string.
func (c *Codec) EncodeString(res Resource) (string, error) {
	b, err := c.Encode(res)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Codec) encodeMap(res Resource) (map[string]any, error) {
	desc, ok := c.registry.Lookup(res.ResourceType())
	if !ok {
		return nil, fmt.Errorf("box: unregistered resource type %q", res.ResourceType())
	}

	obj := res.Properties()
	m := make(map[string]any, len(obj.known)+len(obj.extras)+1)
	for k, v := range obj.known {
		if k == FieldType {
			continue
		}
		if v == nil {
			if desc.Fields[k].NullObservable {
				m[k] = nil
			}
			continue
		}
		ev, err := c.encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		m[k] = ev
	}
	for k, v := range obj.extras {
		if _, taken := m[k]; taken || k == FieldType {
			continue
		}
		m[k] = v
	}
	m[FieldType] = desc.Type
	return m, nil
}

func (c *Codec) encodeValue(v any) (any, error) {
	switch val := v.(type) {
	case Resource:
		return c.encodeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			ev, err := c.encodeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return v, nil
	}
}

// Decode parses JSON text into the variant named by its type field, falling
// back to expectedType when the discriminant is absent or not registered.
// Malformed text returns a ParseError; well-formed text with values
// incompatible with the variant schema returns a SchemaError.
func (c *Codec) Decode(data []byte, expectedType string) (Resource, error) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, &ParseError{Err: err}
	}
	return c.decodeMap(m, expectedType)
}

// DecodeString parses a JSON string, see Decode.
func (c *Codec) DecodeString(data, expectedType string) (Resource, error) {
	return c.Decode([]byte(data), expectedType)
}

func (c *Codec) decodeMap(m map[string]any, expectedType string) (Resource, error) {
	typ := expectedType
	if t, ok := m[FieldType].(string); ok {
		if _, registered := c.registry.Lookup(t); registered {
			typ = t
		}
	}
	desc, ok := c.registry.Lookup(typ)
	if !ok {
		return nil, fmt.Errorf("box: unregistered resource type %q", typ)
	}

	res := desc.New()
	obj := res.Properties()
	for k, v := range m {
		if k == FieldType {
			obj.Put(FieldType, desc.Type)
			continue
		}
		spec, known := desc.Fields[k]
		if !known {
			obj.SetExtra(k, v)
			continue
		}
		dv, err := c.decodeValue(desc.Type, k, spec, v)
		if err != nil {
			return nil, err
		}
		obj.Put(k, dv)
	}
	return res, nil
}

func (c *Codec) decodeValue(typ, field string, spec FieldSpec, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch spec.Kind {
	case KindAny:
		return v, nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, &SchemaError{Type: typ, Field: field, Reason: "must be a string"}
		}
		return s, nil
	case KindNumber:
		n, ok := v.(json.Number)
		if !ok {
			return nil, &SchemaError{Type: typ, Field: field, Reason: "must be a number"}
		}
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, &SchemaError{Type: typ, Field: field, Reason: "must be a number"}
		}
		return f, nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, &SchemaError{Type: typ, Field: field, Reason: "must be a boolean"}
		}
		return b, nil
	case KindStringList:
		list, ok := v.([]any)
		if !ok {
			return nil, &SchemaError{Type: typ, Field: field, Reason: "must be an array of strings"}
		}
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &SchemaError{Type: typ, Field: field, Reason: "must be an array of strings"}
			}
			out[i] = s
		}
		return out, nil
	case KindResource:
		sub, ok := v.(map[string]any)
		if !ok {
			return nil, &SchemaError{Type: typ, Field: field, Reason: "must be an object"}
		}
		return c.decodeMap(sub, spec.Elem)
	case KindResourceList:
		list, ok := v.([]any)
		if !ok {
			return nil, &SchemaError{Type: typ, Field: field, Reason: "must be an array of objects"}
		}
		out := make([]any, len(list))
		for i, item := range list {
			sub, ok := item.(map[string]any)
			if !ok {
				return nil, &SchemaError{Type: typ, Field: field, Reason: "must be an array of objects"}
			}
			r, err := c.decodeMap(sub, spec.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}
