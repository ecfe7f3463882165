// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/mmeshcher/storefront-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrProfileExists возвращается при попытке создать профиль с уже существующим идентификатором или email.
	ErrProfileExists = errors.New("profile already exists")
	// ErrProfileNotFound возвращается, если профиль пользователя не найден.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrCredentialsExist возвращаются при повторной регистрации учётных данных с тем же email.
	ErrCredentialsExist = errors.New("credentials already exist")
	// ErrCredentialsNotFound возвращается, если учётные данные не найдены.
	ErrCredentialsNotFound = errors.New("credentials not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrEmptyOrder возвращается при попытке сохранить заказ без позиций.
	ErrEmptyOrder = errors.New("order has no line items")
	// ErrTotalMismatch возвращается, если сумма заказа не совпадает с суммой его позиций.
	ErrTotalMismatch = errors.New("order total does not match line items")
	// ErrForeignItem возвращается, если позиция ссылается на другой заказ.
	ErrForeignItem = errors.New("line item references another order")
	// ErrDuplicateItem возвращается, если две позиции заказа имеют одинаковый
	// ключ (товар, размер, цвет).
	ErrDuplicateItem = errors.New("duplicate line item key")
	// ErrStatusConflict возвращается, если статус заказа был изменён параллельно.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет операцию при ошибках сериализации и дедлоках.
// Такие транзакции гарантированно откачены, поэтому повтор безопасен;
// прочие ошибки хранилища не повторяются и отдаются вызывающему как есть.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn()
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) &&
			(pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected) {
			return retry.RetryableError(err)
		}

		return err
	})
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateOrder сохраняет заказ вместе с позициями в одной транзакции.
// Заголовок и позиции записываются целиком либо не записываются вовсе.
// Проверки целостности агрегата выполняются до обращения к хранилищу.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order model.Order) (*model.Order, error) {
	if len(order.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	type itemKey struct {
		productID string
		size      string
		color     string
	}

	// Ключ позиции совпадает с первичным ключом order_items: дубликат
	// отклоняется здесь, а не ошибкой вставки.
	seen := make(map[itemKey]struct{}, len(order.Items))

	var itemsTotal int64
	for _, it := range order.Items {
		if it.OrderID != order.ID {
			return nil, fmt.Errorf("%w: item for order %q inside order %q", ErrForeignItem, it.OrderID, order.ID)
		}
		k := itemKey{it.ProductID, it.Size, it.Color}
		if _, ok := seen[k]; ok {
			return nil, fmt.Errorf("%w: product %s size %q color %q", ErrDuplicateItem, it.ProductID, it.Size, it.Color)
		}
		seen[k] = struct{}{}
		itemsTotal += it.UnitPriceCents * int64(it.Quantity)
	}
	if itemsTotal != order.TotalCents {
		return nil, fmt.Errorf("%w: header %d, items %d", ErrTotalMismatch, order.TotalCents, itemsTotal)
	}

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		_, err = tx.Exec(ctx,
			`INSERT INTO orders
			     (id, user_id, total, status, full_name, street, city, state, postal_code, country, payment_method, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			order.ID, order.UserID, order.TotalCents, string(order.Status),
			order.Address.FullName, order.Address.Street, order.Address.City,
			order.Address.State, order.Address.PostalCode, order.Address.Country,
			order.PaymentMethod, order.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		rows := make([][]any, 0, len(order.Items))
		for _, it := range order.Items {
			rows = append(rows, []any{order.ID, it.ProductID, it.Quantity, it.Size, it.Color, it.UnitPriceCents})
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"order_items"},
			[]string{"order_id", "product_id", "quantity", "size", "color", "price"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

const orderColumns = `id, user_id, total, status, full_name, street, city, state, postal_code, country, payment_method, created_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.TotalCents, &status,
		&o.Address.FullName, &o.Address.Street, &o.Address.City,
		&o.Address.State, &o.Address.PostalCode, &o.Address.Country,
		&o.PaymentMethod, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	return &o, nil
}

// itemsForOrders возвращает позиции указанных заказов, сгруппированные по заказу.
func (r *PostgresRepository) itemsForOrders(ctx context.Context, orderIDs []string) (map[string][]model.OrderLineItem, error) {
	if len(orderIDs) == 0 {
		return map[string][]model.OrderLineItem{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, quantity, size, color, price
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, product_id, size, color`,
		orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	res := make(map[string][]model.OrderLineItem, len(orderIDs))
	for rows.Next() {
		var it model.OrderLineItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &it.Size, &it.Color, &it.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		res[it.OrderID] = append(res[it.OrderID], it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetOrderByID возвращает заказ по идентификатору вместе со всеми его позициями.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`,
		orderID,
	)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.itemsForOrders(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]

	return o, nil
}

func (r *PostgresRepository) selectOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	items, err := r.itemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

// GetOrdersByUser возвращает все заказы пользователя вместе с позициями.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return r.selectOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
}

// ListOrders возвращает все заказы магазина для административного интерфейса.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	return r.selectOrders(ctx,
		`SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`,
	)
}

// UpdateOrderStatus изменяет статус заказа, только если текущий статус
// совпадает с ожидаемым. Позиции заказа при этом не затрагиваются.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID string, from, to model.OrderStatus) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`,
		orderID, string(from), string(to),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if cmdTag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`,
		orderID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return ErrOrderNotFound
	}

	return ErrStatusConflict
}

// CreateProfile создаёт профиль пользователя.
func (r *PostgresRepository) CreateProfile(ctx context.Context, user model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, is_admin) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.Name, user.IsAdmin,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrProfileExists, user.Email)
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// GetProfile возвращает профиль пользователя по идентификатору.
func (r *PostgresRepository) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, name, is_admin FROM users WHERE id = $1`,
		userID,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &u, nil
}

// ListProfiles возвращает все профили пользователей.
func (r *PostgresRepository) ListProfiles(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, name, is_admin FROM users`)
	if err != nil {
		return nil, fmt.Errorf("select profiles: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

// CreateCredentials сохраняет учётные данные пользователя в системе идентификации.
func (r *PostgresRepository) CreateCredentials(ctx context.Context, creds model.Credentials) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO credentials (user_id, email, password_hash) VALUES ($1, $2, $3)`,
		creds.UserID, creds.Email, creds.PasswordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrCredentialsExist, creds.Email)
		}
		return fmt.Errorf("create credentials: %w", err)
	}
	return nil
}

// GetCredentialsByEmail возвращает учётные данные по email.
func (r *PostgresRepository) GetCredentialsByEmail(ctx context.Context, email string) (*model.Credentials, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT user_id, email, password_hash FROM credentials WHERE email = $1`,
		email,
	)

	var c model.Credentials
	err := row.Scan(&c.UserID, &c.Email, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}

	return &c, nil
}
