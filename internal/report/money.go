package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency of every amount on an ABRAMUS statement.
const Currency = money.BRL

// FormatBRL renders an amount as Brazilian reais, e.g. "R$1.234,56".
// Amounts are rounded half away from zero to whole centavos.
func FormatBRL(amount decimal.Decimal) string {
	return toMoney(amount).Display()
}

func toMoney(amount decimal.Decimal) *money.Money {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, Currency)
}
