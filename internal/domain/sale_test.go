package domain

import "testing"

func TestLineItemsNormalizesLegacySale(t *testing.T) {
	sale := Sale{ID: 1, Client: "Budi", Date: "2026-10-01", ProductID: 7, Quantity: 4, Total: 20, Profit: 8}

	if sale.Shape() != ShapeLegacy {
		t.Fatalf("expected legacy shape, got %s", sale.Shape())
	}
	items := sale.LineItems()
	if len(items) != 1 {
		t.Fatalf("expected one synthesized line, got %d", len(items))
	}
	item := items[0]
	if item.ProductID != 7 || item.Quantity != 4 {
		t.Fatalf("unexpected line %+v", item)
	}
	if item.Price != 5 || item.Cost != 3 || item.Subtotal != 20 {
		t.Fatalf("unexpected recovered price/cost %+v", item)
	}
}

func TestLineItemsReturnsCopyForCartSale(t *testing.T) {
	sale := Sale{Items: []SaleItem{{ProductID: 1, Quantity: 2, Price: 3, Subtotal: 6}}}

	items := sale.LineItems()
	items[0].Quantity = 99
	if sale.Items[0].Quantity != 2 {
		t.Fatalf("expected LineItems to return a copy")
	}
	if sale.Shape() != ShapeCart {
		t.Fatalf("expected cart shape")
	}
}

func TestMissingPaymentStatusReadsAsPaid(t *testing.T) {
	if (Sale{}).Status() != PaymentPaid {
		t.Fatalf("expected empty status to normalize to paid")
	}
	if (Sale{PaymentStatus: PaymentPartial}).Status() != PaymentPartial {
		t.Fatalf("expected explicit status to be kept")
	}
}

func TestProductUnitCost(t *testing.T) {
	cases := []struct {
		name    string
		product Product
		want    float64
	}{
		{name: "spread over batch", product: Product{AcquisitionCost: 20, InitialStock: 10}, want: 2},
		{name: "empty batch", product: Product{AcquisitionCost: 20}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.product.UnitCost(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	view := NewProductView(Product{AcquisitionCost: 20, InitialStock: 10, SellPrice: 5})
	if view.UnitMargin != 3 || view.MarginPercent != 150 {
		t.Fatalf("unexpected margin view %+v", view)
	}
}
