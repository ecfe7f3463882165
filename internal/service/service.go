// Package service реализует бизнес-логику интернет-магазина.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/storefront-system/internal/lifecycle"
	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/query"
	"github.com/mmeshcher/storefront-system/internal/repository"
)

var (
	// ErrEmptyCart возвращается при попытке оформить заказ из пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity возвращается, если количество в позиции корзины меньше единицы.
	ErrInvalidQuantity = errors.New("cart item quantity must be at least one")
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccessDenied возвращается при попытке прочитать чужой заказ без прав администратора.
	ErrAccessDenied = errors.New("access denied")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateOrder(ctx context.Context, order model.Order) (*model.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, from, to model.OrderStatus) error
	CreateProfile(ctx context.Context, user model.User) error
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	ListProfiles(ctx context.Context) ([]model.User, error)
	CreateCredentials(ctx context.Context, creds model.Credentials) error
	GetCredentialsByEmail(ctx context.Context, email string) (*model.Credentials, error)
}

// Catalog описывает контракт внешней системы каталога (только чтение).
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, category model.Category) ([]model.Product, error)
}

// Service содержит бизнес-логику интернет-магазина.
type Service struct {
	repo    Repository
	catalog Catalog
}

// NewService создаёт новый сервис с указанным репозиторием и клиентом каталога.
func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует пользователя: создаёт учётные данные в системе
// идентификации, а затем отдельной записью — профиль пользователя.
func (s *Service) RegisterUser(ctx context.Context, email, name, password string) (*model.User, error) {
	userID := uuid.NewString()

	creds := model.Credentials{
		UserID:       userID,
		Email:        email,
		PasswordHash: hashPassword(email, password),
	}
	if err := s.repo.CreateCredentials(ctx, creds); err != nil {
		return nil, err
	}

	user := model.User{
		ID:      userID,
		Email:   email,
		Name:    name,
		IsAdmin: false,
	}
	if err := s.repo.CreateProfile(ctx, user); err != nil {
		return nil, err
	}

	return &user, nil
}

// AuthenticateUser проверяет email и пароль пользователя и возвращает его профиль.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	creds, err := s.repo.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialsNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	hashed := hashPassword(email, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(creds.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.repo.GetProfile(ctx, creds.UserID)
}

func hashPassword(email, password string) []byte {
	sum := sha256.Sum256([]byte(email + ":" + password))
	return sum[:]
}

// GetProfile возвращает профиль пользователя по идентификатору.
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return s.repo.GetProfile(ctx, userID)
}

// GetProduct возвращает товар внешнего каталога.
func (s *Service) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return s.catalog.GetProduct(ctx, id)
}

// ListProducts возвращает товары каталога, при необходимости отфильтрованные по категории.
func (s *Service) ListProducts(ctx context.Context, category model.Category) ([]model.Product, error) {
	return s.catalog.ListProducts(ctx, category)
}

// Checkout оформляет заказ из корзины: фиксирует текущие цены каталога
// в позициях, считает сумму и сохраняет заказ одним агрегатом со статусом
// pending. Пустая корзина отклоняется до каких-либо обращений к хранилищу.
// Повторные позиции корзины с одинаковыми товаром, размером и цветом
// объединяются в одну позицию заказа с суммарным количеством: ключ позиции
// в заказе уникален. Товары не в наличии не отклоняются: контроль
// остатков — внешняя забота.
func (s *Service) Checkout(ctx context.Context, userID *string, items []model.CartItem, addr model.Address, paymentMethod string) (*model.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidQuantity, it.ProductID)
		}
	}

	merged := mergeCartLines(items)

	orderID := uuid.NewString()

	lineItems := make([]model.OrderLineItem, 0, len(merged))
	var total int64
	for _, it := range merged {
		product, err := s.catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}

		lineItems = append(lineItems, model.OrderLineItem{
			OrderID:        orderID,
			ProductID:      product.ID,
			Quantity:       it.Quantity,
			Size:           it.Size,
			Color:          it.Color,
			UnitPriceCents: product.PriceCents,
		})
		total += product.PriceCents * int64(it.Quantity)
	}

	order := model.Order{
		ID:            orderID,
		UserID:        userID,
		Items:         lineItems,
		TotalCents:    total,
		Status:        model.OrderStatusPending,
		Address:       addr,
		PaymentMethod: paymentMethod,
		CreatedAt:     time.Now().UTC(),
	}

	return s.repo.CreateOrder(ctx, order)
}

// mergeCartLines складывает количества позиций корзины с одинаковым ключом
// (товар, размер, цвет), сохраняя порядок первого появления.
func mergeCartLines(items []model.CartItem) []model.CartItem {
	type lineKey struct {
		productID string
		size      string
		color     string
	}

	merged := make([]model.CartItem, 0, len(items))
	index := make(map[lineKey]int, len(items))
	for _, it := range items {
		k := lineKey{it.ProductID, it.Size, it.Color}
		if i, ok := index[k]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[k] = len(merged)
		merged = append(merged, it)
	}

	return merged
}

// GetOrdersByUser возвращает заказы пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// GetOrder возвращает заказ по идентификатору. Чужой заказ доступен
// только администратору; собственные заказы доступны их владельцу всегда.
func (s *Service) GetOrder(ctx context.Context, orderID string, requester *model.User) (*model.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if requester != nil && requester.IsAdmin {
		return order, nil
	}
	if requester != nil && order.UserID != nil && *order.UserID == requester.ID {
		return order, nil
	}

	return nil, ErrAccessDenied
}

// ListOrders возвращает все заказы магазина. Каждый вызов читает
// актуальное состояние хранилища: сервис ничего не кэширует.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// CustomerNames возвращает соответствие идентификаторов пользователей их именам
// для поиска и отображения в административных проекциях.
func (s *Service) CustomerNames(ctx context.Context) (map[string]string, error) {
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Name
	}
	return names, nil
}

// TransitionOrder переводит заказ в новый статус. Допустимость перехода
// проверяется здесь, до обращения к хранилищу, независимо от того, какие
// варианты предлагает вызывающий интерфейс. Запись изменяет только
// заголовок заказа: позиции переходом не затрагиваются.
func (s *Service) TransitionOrder(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error) {
	if !lifecycle.IsValid(to) {
		return nil, fmt.Errorf("%w: unknown status %q", lifecycle.ErrInvalidTransition, to)
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !lifecycle.CanTransition(order.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", lifecycle.ErrInvalidTransition, order.Status, to)
	}

	if err := s.repo.UpdateOrderStatus(ctx, orderID, order.Status, to); err != nil {
		return nil, err
	}

	order.Status = to
	return order, nil
}

// DashboardStats возвращает сводные показатели для административной панели.
func (s *Service) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	var revenue int64
	for _, o := range orders {
		revenue += o.TotalCents
	}

	recent := query.SortBy(orders, query.SortByDate, query.SortDesc)
	if len(recent) > 5 {
		recent = recent[:5]
	}

	return &model.DashboardStats{
		TotalOrders:  len(orders),
		TotalUsers:   len(profiles),
		RevenueCents: revenue,
		RecentOrders: recent,
	}, nil
}
