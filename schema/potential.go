package schema

import "math"

// Potential calcula o limite superior de pontos de expansão de uma schema.
//
//   - primitive, number: 0
//   - multi: máximo entre as escolhas (só um ramo é gerado)
//   - array: maxlength * max(potential(item), 1)
//   - object: soma dos campos
//
// Linear no número de nós. A aritmética satura em math.MaxInt64.
func Potential(s Schema) int64 {
	switch v := s.(type) {
	case Multi:
		var best int64
		for _, c := range v.Choices {
			best = max(best, Potential(c.Value))
		}
		return best
	case Array:
		return mulSat(int64(v.MaxLength), max(Potential(v.Item), 1))
	case Object:
		var sum int64
		for _, f := range v.Fields {
			sum = addSat(sum, Potential(f.Value))
		}
		return sum
	default:
		return 0
	}
}

func addSat(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func mulSat(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}
