// Package query содержит проекции списка заказов для административного
// интерфейса. Все функции чистые: они не обращаются к хранилищу и не
// изменяют входные срезы.
package query

import (
	"sort"
	"strings"

	"github.com/mmeshcher/storefront-system/internal/model"
)

// SortField задаёт поле сортировки списка заказов.
type SortField string

// SortDirection задаёт направление сортировки.
type SortDirection string

const (
	SortByDate  SortField = "date"
	SortByTotal SortField = "total"

	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Filter возвращает заказы, подходящие под поисковую строку и фильтр
// статуса. Поиск не зависит от регистра и совпадает по идентификатору
// заказа либо по имени покупателя из customerNames. Гостевые заказы
// по имени покупателя не находятся.
func Filter(orders []model.Order, search string, status model.OrderStatus, customerNames map[string]string) []model.Order {
	search = strings.ToLower(strings.TrimSpace(search))

	res := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if status != "" && o.Status != status {
			continue
		}
		if search != "" {
			var name string
			if o.UserID != nil {
				name = customerNames[*o.UserID]
			}
			if !strings.Contains(strings.ToLower(o.ID), search) &&
				!strings.Contains(strings.ToLower(name), search) {
				continue
			}
		}
		res = append(res, o)
	}

	return res
}

// SortBy сортирует заказы по дате создания или сумме. Сортировка
// устойчивая: при равенстве ключа сохраняется исходный порядок выборки.
func SortBy(orders []model.Order, field SortField, dir SortDirection) []model.Order {
	res := make([]model.Order, len(orders))
	copy(res, orders)

	sort.SliceStable(res, func(i, j int) bool {
		switch field {
		case SortByTotal:
			if dir == SortAsc {
				return res[i].TotalCents < res[j].TotalCents
			}
			return res[i].TotalCents > res[j].TotalCents
		default:
			if dir == SortAsc {
				return res[i].CreatedAt.Before(res[j].CreatedAt)
			}
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
	})

	return res
}
