// Package money содержит преобразование денежных сумм между основными и
// минорными единицами валюты.
package money

import "math"

// ToCents переводит сумму в минорные единицы, округляя до двух знаков
// в большую сторону при половине минорной единицы. Для сумм с двумя
// десятичными знаками результат точен; суммы с большей точностью
// наследуют двоичное представление float64 (1.005 хранится как
// 1.00499..., поэтому даёт 100, а не 101).
func ToCents(v float64) int64 {
	return int64(math.Floor(v*100 + 0.5))
}

// FromCents переводит сумму из минорных единиц в основные.
func FromCents(c int64) float64 {
	return float64(c) / 100
}
