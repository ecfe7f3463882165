// Package lifecycle реализует граф переходов статусов заказа.
package lifecycle

import (
	"errors"

	"github.com/mmeshcher/storefront-system/internal/model"
)

// ErrInvalidTransition возвращается при попытке перевести заказ в статус,
// недостижимый из текущего.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions задаёт допустимые переходы между статусами заказа.
// Отмена возможна только до отгрузки; доставленный и отменённый заказы
// исходящих переходов не имеют.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:    {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered},
	model.OrderStatusDelivered:  {},
	model.OrderStatusCancelled:  {},
}

// IsValid сообщает, известен ли статус графу переходов.
func IsValid(s model.OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

// Allowed возвращает список статусов, достижимых из указанного.
func Allowed(from model.OrderStatus) []model.OrderStatus {
	return transitions[from]
}

// CanTransition сообщает, допустим ли переход между двумя статусами.
func CanTransition(from, to model.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal сообщает, является ли статус конечным.
func IsTerminal(s model.OrderStatus) bool {
	return IsValid(s) && len(transitions[s]) == 0
}

// DisplaySubtotal возвращает отображаемую долю суммы заказа без налога.
// Разбиение 90/10 служит только для отображения и не является расчётом
// налога.
func DisplaySubtotal(total float64) float64 {
	return total * 0.9
}

// DisplayTax возвращает отображаемую налоговую долю суммы заказа.
func DisplayTax(total float64) float64 {
	return total * 0.1
}
