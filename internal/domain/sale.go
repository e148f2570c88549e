package domain

type SaleShape string

const (
	ShapeCart   SaleShape = "cart"
	ShapeLegacy SaleShape = "legacy"
)

func (s Sale) Shape() SaleShape {
	if len(s.Items) == 0 && s.ProductID != 0 {
		return ShapeLegacy
	}
	return ShapeCart
}

// LineItems is the only place that looks at the record shape. A legacy
// single-item sale becomes a one-line cart whose unit price and cost are
// recovered from the stored total and profit.
func (s Sale) LineItems() []SaleItem {
	if s.Shape() == ShapeCart {
		items := make([]SaleItem, len(s.Items))
		copy(items, s.Items)
		return items
	}

	item := SaleItem{
		ProductID: s.ProductID,
		Quantity:  s.Quantity,
		Subtotal:  s.Total,
	}
	if s.Quantity > 0 {
		item.Price = s.Total / float64(s.Quantity)
		item.Cost = (s.Total - s.Profit) / float64(s.Quantity)
	}
	return []SaleItem{item}
}

func (s Sale) Status() PaymentStatus {
	return s.PaymentStatus.Normalize()
}

// Clone returns a copy that shares no slices with s.
func (s Sale) Clone() Sale {
	dup := s
	if s.Items != nil {
		dup.Items = make([]SaleItem, len(s.Items))
		copy(dup.Items, s.Items)
	}
	return dup
}

// ItemCount is the number of units across all lines.
func (s Sale) ItemCount() int {
	count := 0
	for _, item := range s.LineItems() {
		count += item.Quantity
	}
	return count
}
