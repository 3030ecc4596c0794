package domain

import "errors"

var (
	// Ошибка пустого имени клиента.
	ErrCustomerNameRequired = errors.New("customer name is required")
	// Ошибка пустого наименования товара в покупке.
	ErrItemNameRequired = errors.New("item name is required")
	// Ошибка отрицательной цены за единицу товара.
	ErrUnitCostNegative = errors.New("unit cost must be non-negative")
	// Ошибка некорректного количества товара (<= 0).
	ErrQuantityInvalid = errors.New("quantity must be greater than zero")
	// Ошибка пустой ссылки на клиента при регистрации в реестре.
	ErrCustomerRequired = errors.New("customer reference is required")
	// Ошибка отрицательного размера выборки в запросе рейтинга.
	ErrTopNNegative = errors.New("top n must be non-negative")
	// Ошибка расхождения накопленного итога с суммой покупок.
	ErrTotalSpentMismatch = errors.New("total spent does not match orders sum")
)

// invalidArgumentErrors перечисляет ошибки валидации входных аргументов.
// ErrTotalSpentMismatch сюда не входит: это нарушение инварианта состояния,
// а не ошибка вызывающей стороны.
var invalidArgumentErrors = []error{
	ErrCustomerNameRequired,
	ErrItemNameRequired,
	ErrUnitCostNegative,
	ErrQuantityInvalid,
	ErrCustomerRequired,
	ErrTopNNegative,
}

// IsInvalidArgument проверяет, является ли ошибка ошибкой валидации аргументов.
func IsInvalidArgument(err error) bool {
	for _, target := range invalidArgumentErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
