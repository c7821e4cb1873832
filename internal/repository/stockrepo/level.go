package stockrepo

import (
	"fmt"

	"goerp/internal/domain"
	"goerp/internal/errors"
)

// Level é uma linha de stock_levels travada dentro de uma transação.
// As operações alteram apenas a memória; SaveLevels persiste o resultado.
type Level struct {
	ID       string
	Key      domain.StockKey
	Quantity int
	Reserved int
	Version  int

	dirty bool
}

// Available é o saldo livre para novas reservas.
func (l *Level) Available() int {
	if a := l.Quantity - l.Reserved; a > 0 {
		return a
	}
	return 0
}

// Release devolve uma reserva anterior. Nunca deixa a reserva negativa.
func (l *Level) Release(n int) {
	if n <= 0 {
		return
	}
	l.Reserved -= n
	if l.Reserved < 0 {
		l.Reserved = 0
	}
	l.dirty = true
}

// Reserve separa n unidades do saldo livre.
func (l *Level) Reserve(n int) error {
	if n <= 0 {
		return nil
	}
	if n > l.Available() {
		return errors.NewConflictError(fmt.Sprintf("Estoque insuficiente para %s: disponível %d, solicitado %d.", l.Key, l.Available(), n))
	}
	l.Reserved += n
	l.dirty = true
	return nil
}

// Consume baixa n unidades do estoque físico (entrega concluída ou venda confirmada).
func (l *Level) Consume(n int) error {
	if n <= 0 {
		return nil
	}
	if n > l.Available() {
		return errors.NewConflictError(fmt.Sprintf("Estoque insuficiente para %s: disponível %d, solicitado %d.", l.Key, l.Available(), n))
	}
	l.Quantity -= n
	l.dirty = true
	return nil
}
