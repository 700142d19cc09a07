package schema

import (
	json "github.com/goccy/go-json"
)

type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindNumber    Kind = "number"
	KindMulti     Kind = "multi"
	KindArray     Kind = "array"
	KindObject    Kind = "object"
)

// Schema é uma união fechada: só as cinco variantes deste pacote a implementam.
type Schema interface {
	Kind() Kind
	isSchema()
}

// Primitive: o gerador escolhe um dos valores literais.
type Primitive struct {
	Values []any
}

// Number: número em [Min, Max] arredondado para Scale casas decimais.
type Number struct {
	Min   float64
	Max   float64
	Scale int
}

type Choice struct {
	Value  Schema `json:"value"`
	Weight int    `json:"weight"`
}

// Multi: o gerador escolhe uma das sub-schemas, ponderada por Weight.
type Multi struct {
	Choices []Choice
}

// Array: sequência de itens no formato Item, com tamanho em [MinLength, MaxLength].
type Array struct {
	MinLength int
	MaxLength int
	Item      Schema
}

type Field struct {
	Label    string  `json:"label"`
	Value    Schema  `json:"value"`
	Presence float64 `json:"presence"`
}

// Object: registro onde cada campo aparece com probabilidade Presence.
type Object struct {
	Fields []Field
}

func (Primitive) Kind() Kind { return KindPrimitive }
func (Number) Kind() Kind    { return KindNumber }
func (Multi) Kind() Kind     { return KindMulti }
func (Array) Kind() Kind     { return KindArray }
func (Object) Kind() Kind    { return KindObject }

func (Primitive) isSchema() {}
func (Number) isSchema()    {}
func (Multi) isSchema()     {}
func (Array) isSchema()     {}
func (Object) isSchema()    {}

// MarshalJSON devolve o formato de fio aceito pelo gerador externo
// (o mesmo que Parse aceita).
func (p Primitive) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   Kind  `json:"type"`
		Values []any `json:"values"`
	}{KindPrimitive, p.Values})
}

func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  Kind    `json:"type"`
		Min   float64 `json:"min"`
		Max   float64 `json:"max"`
		Scale int     `json:"scale"`
	}{KindNumber, n.Min, n.Max, n.Scale})
}

func (m Multi) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   Kind     `json:"type"`
		Values []Choice `json:"values"`
	}{KindMulti, m.Choices})
}

func (a Array) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      Kind   `json:"type"`
		MinLength int    `json:"minlength"`
		MaxLength int    `json:"maxlength"`
		Value     Schema `json:"value"`
	}{KindArray, a.MinLength, a.MaxLength, a.Item})
}

func (o Object) MarshalJSON() ([]byte, error) {
	fields := o.Fields
	if fields == nil {
		fields = []Field{}
	}
	return json.Marshal(struct {
		Type   Kind    `json:"type"`
		Fields []Field `json:"fields"`
	}{KindObject, fields})
}
