package memory

import (
	"kasirbuku/backend/internal/domain"
)

// NewSeeded returns a demo store. Stock already accounts for the seeded
// sales, one of which uses the single-item record shape.
func NewSeeded(today string) *Store {
	s := New()

	products := []domain.Product{
		{Name: "Mie Goreng Instan", AcquisitionCost: 120000, InitialStock: 40, SellPrice: 3500},
		{Name: "Telur 10 Butir", AcquisitionCost: 460000, InitialStock: 20, SellPrice: 26500},
		{Name: "Susu UHT 1L", AcquisitionCost: 348000, InitialStock: 24, SellPrice: 18900},
		{Name: "Roti Tawar", AcquisitionCost: 150000, InitialStock: 12, SellPrice: 17800},
		{Name: "Kopi Sachet", AcquisitionCost: 100000, InitialStock: 50, SellPrice: 2600},
		{Name: "Gula 1kg", AcquisitionCost: 465000, InitialStock: 30, SellPrice: 17400},
		{Name: "Teh Celup", AcquisitionCost: 145000, InitialStock: 20, SellPrice: 9800},
		{Name: "Air Mineral 600ml", AcquisitionCost: 76800, InitialStock: 48, SellPrice: 3900},
	}
	for _, p := range products {
		p.ID = s.st.nextProductID
		s.st.nextProductID++
		p.Stock = p.InitialStock
		s.st.products[p.ID] = p
	}

	// recorded before carts existed: flat product and quantity, no status
	legacy := domain.Sale{
		Client:    "Bu Sari",
		Date:      today,
		ProductID: 1,
		Quantity:  4,
		Total:     14000,
		Profit:    2000,
	}
	legacy.AmountPaid = legacy.Total
	s.seedSale(legacy)

	coffee := s.st.products[5]
	sugar := s.st.products[6]
	items := []domain.SaleItem{
		seedLine(coffee, 10),
		seedLine(sugar, 2),
	}
	cart := domain.Sale{
		Client:        "Pak Joko",
		Date:          today,
		Items:         items,
		PaymentStatus: domain.PaymentPartial,
		AmountPaid:    20000,
		DueDate:       today,
	}
	for _, item := range items {
		cart.Total += item.Subtotal
		cart.Profit += (item.Price - item.Cost) * float64(item.Quantity)
	}
	cart.Balance = cart.Total - cart.AmountPaid
	s.seedSale(cart)

	return s
}

func (s *Store) seedSale(sale domain.Sale) {
	sale.ID = s.st.nextSaleID
	s.st.nextSaleID++
	s.st.sales[sale.ID] = sale
	for _, item := range sale.LineItems() {
		p := s.st.products[item.ProductID]
		p.Stock -= item.Quantity
		s.st.products[p.ID] = p
	}
}

func seedLine(p domain.Product, qty int) domain.SaleItem {
	return domain.SaleItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		Price:       p.SellPrice,
		Cost:        p.UnitCost(),
		Subtotal:    p.SellPrice * float64(qty),
	}
}
