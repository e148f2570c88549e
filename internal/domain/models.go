package domain

import "time"

const DateLayout = "2006-01-02"

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
	PaymentUnpaid  PaymentStatus = "unpaid"
)

// Normalize treats a missing status as paid, which is how records written
// before deferred payments existed are read.
func (p PaymentStatus) Normalize() PaymentStatus {
	if p == "" {
		return PaymentPaid
	}
	return p
}

type Product struct {
	ID              int64   `json:"id" db:"id"`
	Name            string  `json:"name" db:"name"`
	AcquisitionCost float64 `json:"acquisition_cost" db:"acquisition_cost"`
	InitialStock    int     `json:"initial_stock" db:"initial_stock"`
	SellPrice       float64 `json:"sell_price" db:"sell_price"`
	Stock           int     `json:"stock" db:"stock"`
}

// UnitCost is never stored: it is the acquisition cost spread over the
// initial batch.
func (p Product) UnitCost() float64 {
	if p.InitialStock <= 0 {
		return 0
	}
	return p.AcquisitionCost / float64(p.InitialStock)
}

type ProductView struct {
	Product
	UnitCost      float64 `json:"unit_cost"`
	UnitMargin    float64 `json:"unit_margin"`
	MarginPercent float64 `json:"margin_percent"`
}

func NewProductView(p Product) ProductView {
	unitCost := p.UnitCost()
	view := ProductView{
		Product:    p,
		UnitCost:   unitCost,
		UnitMargin: p.SellPrice - unitCost,
	}
	if unitCost > 0 {
		view.MarginPercent = view.UnitMargin / unitCost * 100
	}
	return view
}

type ProductCreateRequest struct {
	Name            string  `json:"name" validate:"required"`
	AcquisitionCost float64 `json:"acquisition_cost" validate:"gte=0"`
	InitialStock    int     `json:"initial_stock" validate:"gte=0"`
	SellPrice       float64 `json:"sell_price" validate:"gte=0"`
}

type ProductUpdateRequest struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	AcquisitionCost *float64 `json:"acquisition_cost,omitempty" validate:"omitempty,gte=0"`
	InitialStock    *int     `json:"initial_stock,omitempty" validate:"omitempty,gte=0"`
	SellPrice       *float64 `json:"sell_price,omitempty" validate:"omitempty,gte=0"`
}

type SaleItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Cost        float64 `json:"cost"`
	Subtotal    float64 `json:"subtotal"`
}

type Sale struct {
	ID     int64      `json:"id"`
	Client string     `json:"client"`
	Date   string     `json:"date"`
	Items  []SaleItem `json:"items,omitempty"`

	// ProductID and Quantity hold the single-item shape that predates carts.
	// They are only set on records that have no Items.
	ProductID int64 `json:"product_id,omitempty"`
	Quantity  int   `json:"quantity,omitempty"`

	Total         float64       `json:"total"`
	Profit        float64       `json:"profit"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	AmountPaid    float64       `json:"amount_paid"`
	Balance       float64       `json:"balance"`
	DueDate       string        `json:"due_date,omitempty"`
}

type CartLine struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

// SaleDraft is the caller's intent for a create or update. Prices and costs
// are never taken from the caller; they are snapshotted from the catalog.
type SaleDraft struct {
	Client        string        `json:"client" validate:"required"`
	Date          string        `json:"date" validate:"required,isodate"`
	Items         []CartLine    `json:"items" validate:"dive"`
	PaymentStatus PaymentStatus `json:"payment_status" validate:"omitempty,oneof=paid partial unpaid"`
	AmountPaid    float64       `json:"amount_paid" validate:"gte=0"`
	DueDate       string        `json:"due_date,omitempty" validate:"omitempty,isodate"`
}

type SaleFilter struct {
	Query  string
	Status PaymentStatus
}

type AddToCartRequest struct {
	Cart      []CartLine `json:"cart"`
	ProductID int64      `json:"product_id"`
	Quantity  int        `json:"quantity"`
}

type Debtor struct {
	Client     string  `json:"client"`
	TotalSales float64 `json:"total_sales"`
	TotalPaid  float64 `json:"total_paid"`
	Balance    float64 `json:"balance"`
	DueDate    string  `json:"due_date,omitempty"`
	Overdue    bool    `json:"overdue"`
	Sales      []Sale  `json:"sales"`
}

type DebtorReport struct {
	TotalDebt    float64  `json:"total_debt"`
	DebtorsCount int      `json:"debtors_count"`
	Debtors      []Debtor `json:"debtors"`
}

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

type SummaryStats struct {
	TotalSales      float64 `json:"total_sales"`
	TotalProfit     float64 `json:"total_profit"`
	SalesCount      int     `json:"sales_count"`
	ProductsInStock int     `json:"products_in_stock"`
}

type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type TopProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type Dashboard struct {
	Period           Period        `json:"period"`
	Today            string        `json:"today"`
	Summary          SummaryStats  `json:"summary"`
	DailySales       []SeriesPoint `json:"daily_sales"`
	TopProducts      []TopProduct  `json:"top_products"`
	CumulativeProfit []SeriesPoint `json:"cumulative_profit"`
}

type ReportRow struct {
	SaleID   int64   `json:"sale_id"`
	Date     string  `json:"date"`
	Client   string  `json:"client"`
	Product  string  `json:"product"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
	Profit   float64 `json:"profit"`
}

type DateRangeReport struct {
	Start       string      `json:"start"`
	End         string      `json:"end"`
	TotalSales  float64     `json:"total_sales"`
	TotalProfit float64     `json:"total_profit"`
	SalesCount  int         `json:"sales_count"`
	Rows        []ReportRow `json:"rows"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
