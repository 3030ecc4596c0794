package domain

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer представляет клиента с историей покупок и накопленным итогом трат.
//
// Операции безопасны для конкурентного использования: добавление покупки и
// обновление итога выполняются как единое целое относительно читателей.
type Customer struct {
	mu sync.RWMutex

	id       string
	name     string
	location string

	orders     []Order
	totalSpent decimal.Decimal
}

// NewCustomer создаёт клиента с нулём или более начальных покупок.
// Итог трат вычисляется один раз по переданному списку; сам список
// копируется, поэтому дальнейшие изменения аргумента клиента не затрагивают.
func NewCustomer(name, location string, initialOrders []Order) (*Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrCustomerNameRequired
	}

	total := decimal.Zero
	orders := make([]Order, 0, len(initialOrders))
	for _, order := range initialOrders {
		if err := order.Validate(); err != nil {
			return nil, err
		}
		orders = append(orders, order)
		total = total.Add(order.LineTotal())
	}

	return &Customer{
		id:         uuid.NewString(),
		name:       name,
		location:   location,
		orders:     orders,
		totalSpent: total,
	}, nil
}

// ID возвращает идентификатор клиента.
func (c *Customer) ID() string { return c.id }

// Name возвращает имя клиента.
func (c *Customer) Name() string { return c.name }

// Location возвращает местоположение клиента (может быть пустым).
func (c *Customer) Location() string { return c.location }

// AddOrder валидирует входные данные, добавляет новую покупку в историю и
// увеличивает накопленный итог на её стоимость. При ошибке валидации ни
// история, ни итог не изменяются.
func (c *Customer) AddOrder(itemName string, unitCost decimal.Decimal, quantity int32) (Order, error) {
	order, err := NewOrder(itemName, unitCost, quantity)
	if err != nil {
		return Order{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Добавление и обновление итога происходят под одной блокировкой:
	// читатель не увидит покупку без учтённой в итоге суммы.
	c.orders = append(c.orders, order)
	c.totalSpent = c.totalSpent.Add(order.LineTotal())

	return order, nil
}

// Orders возвращает копию истории покупок в порядке добавления.
func (c *Customer) Orders() []Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	orders := make([]Order, len(c.orders))
	copy(orders, c.orders)
	return orders
}

// TotalSpent возвращает накопленный итог трат клиента.
func (c *Customer) TotalSpent() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalSpent
}

// OrderCount возвращает число покупок в истории.
func (c *Customer) OrderCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}

// ValidateInvariants пересчитывает итог по истории покупок и проверяет базовые
// инварианты клиента, возвращая список замечаний.
func (c *Customer) ValidateInvariants() []error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error

	if strings.TrimSpace(c.name) == "" {
		errs = append(errs, ErrCustomerNameRequired)
	}

	// Сверяем накопленный итог с суммой стоимостей всех покупок.
	calc := decimal.Zero
	for _, order := range c.orders {
		if err := order.Validate(); err != nil {
			errs = append(errs, err)
		}
		calc = calc.Add(order.LineTotal())
	}
	if !calc.Equal(c.totalSpent) {
		errs = append(errs, ErrTotalSpentMismatch)
	}

	return errs
}
