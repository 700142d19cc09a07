package schema

import (
	"errors"
	"fmt"
)

// DefaultMaxPotential é o teto usado quando a configuração não define outro.
const DefaultMaxPotential = 10000

var ErrPotentialExceeded = errors.New("schema: potential exceeded")

type PotentialError struct {
	Potential int64
	Max       int64
}

func (e *PotentialError) Error() string {
	return fmt.Sprintf("schema: potential %d exceeds maximum of %d", e.Potential, e.Max)
}

func (e *PotentialError) Unwrap() error { return ErrPotentialExceeded }

// Guard rejeita schemas cujo potential passe de Max.
// Max é decisão de deploy, não de requisição.
type Guard struct {
	Max int64
}

func (g Guard) Check(s Schema) error {
	if p := Potential(s); p > g.Max {
		return &PotentialError{Potential: p, Max: g.Max}
	}
	return nil
}

// Admit valida o documento e aplica o teto: o caminho comum de /test e /config.
func (g Guard) Admit(s Schema, err error) (Schema, error) {
	if err != nil {
		return nil, err
	}
	if err := g.Check(s); err != nil {
		return nil, err
	}
	return s, nil
}
