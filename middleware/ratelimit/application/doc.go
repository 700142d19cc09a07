// Package application contém os casos de uso do rate limit e do limite de
// gerações simultâneas.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(key) retorna uma Decision (allow/deny + retry-after).
package application
