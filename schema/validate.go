package schema

import (
	"fmt"
	"math"
	"sort"

	json "github.com/goccy/go-json"
)

// Validate confere a estrutura genérica decodificada (map[string]any, []any,
// números, strings...) contra a gramática e devolve a Schema tipada.
// Em caso de falha devolve Issues com todas as violações encontradas.
func Validate(raw any) (Schema, error) {
	v := &validator{}
	s := v.value("", raw)
	if len(v.issues) > 0 {
		return nil, v.issues
	}
	return s, nil
}

type validator struct {
	issues Issues
}

func (v *validator) add(path, code, format string, args ...any) {
	v.issues = append(v.issues, Issue{Path: path, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) value(path string, raw any) Schema {
	m, ok := raw.(map[string]any)
	if !ok {
		v.add(path, CodeInvalidType, "expected object, got %s", typeName(raw))
		return nil
	}

	t, ok := m["type"]
	if !ok {
		v.add(joinPath(path, "type"), CodeRequired, "type is required")
		return nil
	}
	kind, ok := t.(string)
	if !ok {
		v.add(joinPath(path, "type"), CodeInvalidType, "expected string, got %s", typeName(t))
		return nil
	}

	switch Kind(kind) {
	case KindPrimitive:
		return v.primitive(path, m)
	case KindNumber:
		return v.number(path, m)
	case KindMulti:
		return v.multi(path, m)
	case KindArray:
		return v.array(path, m)
	case KindObject:
		return v.object(path, m)
	default:
		v.add(joinPath(path, "type"), CodeInvalidEnum,
			"type must be one of primitive, number, multi, array, object, got %q", kind)
		return nil
	}
}

func (v *validator) primitive(path string, m map[string]any) Schema {
	v.closed(path, m, "type", "values")
	values, ok := v.list(path, m, "values")
	if !ok {
		return nil
	}
	if len(values) == 0 {
		v.add(joinPath(path, "values"), CodeTooSmall, "values must not be empty")
		return nil
	}
	before := len(v.issues)
	for i, val := range values {
		v.literal(indexPath(joinPath(path, "values"), i), val)
	}
	if len(v.issues) > before {
		return nil
	}
	return Primitive{Values: values}
}

// literal confere que um valor de primitive volta ao gerador como JSON.
// YAML aceita NaN/Inf e mapas com chave não-string; JSON não.
func (v *validator) literal(path string, raw any) {
	switch x := raw.(type) {
	case nil, bool, string, json.Number:
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v.literal(joinPath(path, k), x[k])
		}
	case []any:
		for i, e := range x {
			v.literal(indexPath(path, i), e)
		}
	default:
		if _, ok := toFloat(raw); !ok {
			v.add(path, CodeInvalidType, "value is not representable as JSON (%s)", typeName(raw))
		}
	}
}

func (v *validator) number(path string, m map[string]any) Schema {
	v.closed(path, m, "type", "min", "max", "scale")
	lo, okMin := v.float(path, m, "min")
	hi, okMax := v.float(path, m, "max")
	scale, okScale := v.integer(path, m, "scale")
	if okMin && okMax && hi < lo {
		v.add(joinPath(path, "max"), CodeTooSmall, "max (%v) must be >= min (%v)", hi, lo)
		return nil
	}
	if !okMin || !okMax || !okScale {
		return nil
	}
	return Number{Min: lo, Max: hi, Scale: scale}
}

func (v *validator) multi(path string, m map[string]any) Schema {
	v.closed(path, m, "type", "values")
	values, ok := v.list(path, m, "values")
	if !ok {
		return nil
	}
	if len(values) == 0 {
		v.add(joinPath(path, "values"), CodeTooSmall, "values must not be empty")
		return nil
	}

	before := len(v.issues)
	choices := make([]Choice, 0, len(values))
	for i, item := range values {
		p := indexPath(joinPath(path, "values"), i)
		cm, ok := item.(map[string]any)
		if !ok {
			v.add(p, CodeInvalidType, "expected object, got %s", typeName(item))
			continue
		}
		v.closed(p, cm, "value", "weight")
		weight, _ := v.integer(p, cm, "weight")
		var sub Schema
		if raw, ok := v.required(p, cm, "value"); ok {
			sub = v.value(joinPath(p, "value"), raw)
		}
		choices = append(choices, Choice{Value: sub, Weight: weight})
	}
	if len(v.issues) > before {
		return nil
	}
	return Multi{Choices: choices}
}

func (v *validator) array(path string, m map[string]any) Schema {
	v.closed(path, m, "type", "minlength", "maxlength", "value")
	lo, okMin := v.integer(path, m, "minlength")
	hi, okMax := v.integer(path, m, "maxlength")
	if okMin && okMax && hi < lo {
		v.add(joinPath(path, "maxlength"), CodeTooSmall, "maxlength (%d) must be >= minlength (%d)", hi, lo)
	}

	before := len(v.issues)
	var item Schema
	if raw, ok := v.required(path, m, "value"); ok {
		item = v.value(joinPath(path, "value"), raw)
	}
	if !okMin || !okMax || item == nil || len(v.issues) > before || hi < lo {
		return nil
	}
	return Array{MinLength: lo, MaxLength: hi, Item: item}
}

func (v *validator) object(path string, m map[string]any) Schema {
	v.closed(path, m, "type", "fields")
	fields, ok := v.list(path, m, "fields")
	if !ok {
		return nil
	}

	before := len(v.issues)
	out := make([]Field, 0, len(fields))
	for i, item := range fields {
		p := indexPath(joinPath(path, "fields"), i)
		fm, ok := item.(map[string]any)
		if !ok {
			v.add(p, CodeInvalidType, "expected object, got %s", typeName(item))
			continue
		}
		v.closed(p, fm, "label", "value", "presence")

		var label string
		if raw, ok := v.required(p, fm, "label"); ok {
			if label, ok = raw.(string); !ok {
				v.add(joinPath(p, "label"), CodeInvalidType, "expected string, got %s", typeName(raw))
			}
		}
		presence, okPresence := v.float(p, fm, "presence")
		if okPresence && (presence < 0 || presence > 1) {
			v.add(joinPath(p, "presence"), CodeTooBig, "presence must be within [0, 1], got %v", presence)
		}
		var sub Schema
		if raw, ok := v.required(p, fm, "value"); ok {
			sub = v.value(joinPath(p, "value"), raw)
		}
		out = append(out, Field{Label: label, Value: sub, Presence: presence})
	}
	if len(v.issues) > before {
		return nil
	}
	return Object{Fields: out}
}

// closed registra unknown_key para qualquer chave fora de allowed.
// As chaves são ordenadas para que a saída seja determinística.
func (v *validator) closed(path string, m map[string]any, allowed ...string) {
	var extra []string
	for k := range m {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		v.add(joinPath(path, k), CodeUnknownKey, "unknown key %q", k)
	}
}

func (v *validator) required(path string, m map[string]any, key string) (any, bool) {
	raw, ok := m[key]
	if !ok {
		v.add(joinPath(path, key), CodeRequired, "%s is required", key)
		return nil, false
	}
	return raw, true
}

func (v *validator) list(path string, m map[string]any, key string) ([]any, bool) {
	raw, ok := v.required(path, m, key)
	if !ok {
		return nil, false
	}
	l, ok := raw.([]any)
	if !ok {
		v.add(joinPath(path, key), CodeInvalidType, "expected array, got %s", typeName(raw))
		return nil, false
	}
	return l, true
}

func (v *validator) float(path string, m map[string]any, key string) (float64, bool) {
	raw, ok := v.required(path, m, key)
	if !ok {
		return 0, false
	}
	f, ok := toFloat(raw)
	if !ok {
		v.add(joinPath(path, key), CodeInvalidType, "expected number, got %s", typeName(raw))
		return 0, false
	}
	return f, true
}

// integer aceita inteiros >= 0 que caibam em int (5.0 conta como inteiro).
func (v *validator) integer(path string, m map[string]any, key string) (int, bool) {
	f, ok := v.float(path, m, key)
	if !ok {
		return 0, false
	}
	p := joinPath(path, key)
	if f != math.Trunc(f) {
		v.add(p, CodeInvalidType, "expected integer, got %v", f)
		return 0, false
	}
	if f < 0 {
		v.add(p, CodeTooSmall, "%s must be >= 0, got %v", key, f)
		return 0, false
	}
	if f > float64(math.MaxInt32) {
		v.add(p, CodeTooBig, "%s must be <= %d, got %v", key, math.MaxInt32, f)
		return 0, false
	}
	return int(f), true
}

func toFloat(raw any) (float64, bool) {
	var f float64
	switch n := raw.(type) {
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case uint:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func typeName(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if _, ok := toFloat(raw); ok {
		return "number"
	}
	return fmt.Sprintf("%T", raw)
}
