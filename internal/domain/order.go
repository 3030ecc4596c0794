package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order представляет одну неизменяемую запись о покупке.
type Order struct {
	// ID записи нужен для однозначной идентификации и аудита.
	ID string
	// ItemName — наименование купленного товара.
	ItemName string
	// UnitCost — цена за единицу товара.
	UnitCost decimal.Decimal
	// Quantity — количество единиц товара.
	Quantity int32
	// CreatedAt фиксирует момент оформления покупки.
	CreatedAt time.Time
}

// NewOrder валидирует входные данные и создаёт запись о покупке.
func NewOrder(itemName string, unitCost decimal.Decimal, quantity int32) (Order, error) {
	order := Order{
		ID:        uuid.NewString(),
		ItemName:  itemName,
		UnitCost:  unitCost,
		Quantity:  quantity,
		CreatedAt: time.Now().UTC(),
	}
	if err := order.Validate(); err != nil {
		return Order{}, err
	}
	return order, nil
}

// Validate проверяет ограничения записи о покупке.
func (o Order) Validate() error {
	if strings.TrimSpace(o.ItemName) == "" {
		return ErrItemNameRequired
	}
	if o.UnitCost.IsNegative() {
		return ErrUnitCostNegative
	}
	if o.Quantity <= 0 {
		return ErrQuantityInvalid
	}
	return nil
}

// LineTotal возвращает стоимость покупки: цена за единицу, умноженная на количество.
func (o Order) LineTotal() decimal.Decimal {
	return o.UnitCost.Mul(decimal.NewFromInt32(o.Quantity))
}
