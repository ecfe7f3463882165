// Package model содержит доменные сущности интернет-магазина.
package model

import "time"

// Category обозначает категорию товара каталога.
type Category string

const (
	CategoryMen         Category = "men"
	CategoryWomen       Category = "women"
	CategoryKids        Category = "kids"
	CategoryAccessories Category = "accessories"
)

// Product описывает товар внешнего каталога.
// Ядро заказов использует каталог только на чтение: цена товара фиксируется
// в позиции заказа в момент оформления и далее не перечитывается.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Category    Category
	ImageURL    string
	Sizes       []string
	Colors      []string
	InStock     bool
}

// CartItem описывает позицию корзины до оформления заказа.
type CartItem struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// Address содержит адрес доставки заказа.
type Address struct {
	FullName   string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderLineItem описывает позицию заказа с ценой, зафиксированной
// в момент оформления. После создания позиция не изменяется.
type OrderLineItem struct {
	OrderID        string
	ProductID      string
	Quantity       int
	Size           string
	Color          string
	UnitPriceCents int64
}

// Order описывает заказ вместе с его позициями.
// UserID равен nil для гостевого заказа. Сумма хранится в минорных
// единицах валюты и после создания заказа не изменяется; единственное
// изменяемое поле заказа — статус.
type Order struct {
	ID            string
	UserID        *string
	Items         []OrderLineItem
	TotalCents    int64
	Status        OrderStatus
	Address       Address
	PaymentMethod string
	CreatedAt     time.Time
}

// User представляет профиль пользователя магазина.
type User struct {
	ID      string
	Email   string
	Name    string
	IsAdmin bool
}

// Credentials содержит учётные данные пользователя в системе идентификации.
// Учётные данные и профиль хранятся раздельно: система идентификации и
// хранилище профилей — две независимые подсистемы.
type Credentials struct {
	UserID       string
	Email        string
	PasswordHash []byte
}

// DashboardStats содержит сводные показатели административной панели.
type DashboardStats struct {
	TotalOrders  int
	TotalUsers   int
	RevenueCents int64
	RecentOrders []Order
}
