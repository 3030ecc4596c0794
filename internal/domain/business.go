package domain

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Business представляет бизнес с реестром клиентов и запросом рейтинга по тратам.
//
// Реестр хранит разделяемые ссылки: изменения истории покупок клиента после
// регистрации видны последующим запросам рейтинга. Один и тот же клиент может
// быть зарегистрирован несколько раз, идентичность клиентов реестр не различает.
type Business struct {
	mu sync.RWMutex

	id           string
	name         string
	businessType string
	city         string

	customers []*Customer
}

// NewBusiness создаёт бизнес с нулём или более начальных клиентов.
// Ссылки на клиентов разделяются, сам список копируется.
func NewBusiness(name, businessType, city string, initialCustomers []*Customer) (*Business, error) {
	customers := make([]*Customer, 0, len(initialCustomers))
	for _, customer := range initialCustomers {
		if customer == nil {
			return nil, ErrCustomerRequired
		}
		customers = append(customers, customer)
	}

	return &Business{
		id:           uuid.NewString(),
		name:         name,
		businessType: businessType,
		city:         city,
		customers:    customers,
	}, nil
}

// ID возвращает идентификатор бизнеса.
func (b *Business) ID() string { return b.id }

// Name возвращает название бизнеса.
func (b *Business) Name() string { return b.name }

// BusinessType возвращает тип бизнеса.
func (b *Business) BusinessType() string { return b.businessType }

// City возвращает город бизнеса.
func (b *Business) City() string { return b.city }

// AddCustomer регистрирует клиента в реестре. Проверка дубликатов не
// выполняется: повторная регистрация той же ссылки допустима.
func (b *Business) AddCustomer(c *Customer) error {
	if c == nil {
		return ErrCustomerRequired
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.customers = append(b.customers, c)
	return nil
}

// Customers возвращает копию реестра клиентов в порядке регистрации.
func (b *Business) Customers() []*Customer {
	b.mu.RLock()
	defer b.mu.RUnlock()

	customers := make([]*Customer, len(b.customers))
	copy(customers, b.customers)
	return customers
}

// CustomerCount возвращает размер реестра.
func (b *Business) CustomerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.customers)
}

// TopNCustomers возвращает не более n клиентов, отсортированных по убыванию
// накопленного итога трат. При равных итогах сохраняется порядок регистрации.
// Запрос не изменяет ни реестр, ни клиентов; n == 0 даёт пустой результат,
// n больше размера реестра — весь реестр.
func (b *Business) TopNCustomers(n int) ([]*Customer, error) {
	if n < 0 {
		return nil, ErrTopNNegative
	}

	type rankedCustomer struct {
		customer *Customer
		total    decimal.Decimal
	}

	// Снимок реестра и итогов берётся под блокировкой чтения, сортировка
	// идёт уже по зафиксированным значениям.
	b.mu.RLock()
	ranked := make([]rankedCustomer, 0, len(b.customers))
	for _, customer := range b.customers {
		ranked = append(ranked, rankedCustomer{
			customer: customer,
			total:    customer.TotalSpent(),
		})
	}
	b.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].total.GreaterThan(ranked[j].total)
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}

	result := make([]*Customer, 0, len(ranked))
	for _, entry := range ranked {
		result = append(result, entry.customer)
	}
	return result, nil
}
