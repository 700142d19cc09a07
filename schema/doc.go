// Package schema define a gramática recursiva que descreve o formato dos dados
// aleatórios pedidos pelo cliente, sua validação estrita e o cálculo de
// "potential" (limite superior de expansão) usado como trava antes do envio ao
// gerador externo.
//
// Variantes (campo "type"):
//
//   - primitive: {values: [...]}
//   - number:    {min, max, scale}
//   - multi:     {values: [{value, weight}]}
//   - array:     {minlength, maxlength, value}
//   - object:    {fields: [{label, value, presence}]}
//
// A validação é pura: não tem efeitos colaterais e não conhece o store nem o gerador.
package schema
