// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: contador de janela fixa por chave sobre internal/expiring
//   - SlotPool: semáforo simples para limite de gerações simultâneas
package infra
