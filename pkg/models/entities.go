package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/forklift/pkg/errors"
)

// Raw table names
const (
	TableCustomers   = "customers"
	TableRestaurants = "restaurants"
	TableDrivers     = "drivers"
	TableMenuItems   = "menu_items"
	TableOrders      = "orders"
	TableOrderItems  = "order_items"
	TableDeliveries  = "deliveries"
)

// RawTableNames lists the raw tables in generation order. Referencing
// tables come after the tables they reference.
var RawTableNames = []string{
	TableCustomers,
	TableRestaurants,
	TableDrivers,
	TableMenuItems,
	TableOrders,
	TableOrderItems,
	TableDeliveries,
}

// Customer is a raw customer row. Immutable once generated.
type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SignupDate    time.Time `json:"signup_date"`
	LoyaltyMember bool      `json:"loyalty_member"`
	Area          string    `json:"area"`
	Segment       string    `json:"segment"`
	PaymentMethod string    `json:"payment_method"`
}

// CustomerSchema describes the customers table
var CustomerSchema = Schema{
	Name: TableCustomers,
	Key:  "id",
	Columns: []Column{
		{Name: "id", Type: TypeString},
		{Name: "name", Type: TypeString},
		{Name: "signup_date", Type: TypeDate},
		{Name: "loyalty_member", Type: TypeBool},
		{Name: "area", Type: TypeString},
		{Name: "segment", Type: TypeString},
		{Name: "payment_method", Type: TypeString},
	},
}

// Values returns column values in CustomerSchema order
func (c Customer) Values() []interface{} {
	return []interface{}{c.ID, c.Name, c.SignupDate, c.LoyaltyMember, c.Area, c.Segment, c.PaymentMethod}
}

// Restaurant is a raw restaurant row. Immutable once generated.
type Restaurant struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Cuisine        string  `json:"cuisine"`
	PriceTier      string  `json:"price_tier"`
	Area           string  `json:"area"`
	Rating         float64 `json:"rating"`
	LoyaltyPartner bool    `json:"loyalty_partner"`
	Active         bool    `json:"active"`
}

// RestaurantSchema describes the restaurants table
var RestaurantSchema = Schema{
	Name: TableRestaurants,
	Key:  "id",
	Columns: []Column{
		{Name: "id", Type: TypeString},
		{Name: "name", Type: TypeString},
		{Name: "cuisine", Type: TypeString},
		{Name: "price_tier", Type: TypeString},
		{Name: "area", Type: TypeString},
		{Name: "rating", Type: TypeFloat},
		{Name: "loyalty_partner", Type: TypeBool},
		{Name: "active", Type: TypeBool},
	},
}

// Values returns column values in RestaurantSchema order
func (r Restaurant) Values() []interface{} {
	return []interface{}{r.ID, r.Name, r.Cuisine, r.PriceTier, r.Area, r.Rating, r.LoyaltyPartner, r.Active}
}

// Driver is a raw driver row. Immutable once generated.
type Driver struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	VehicleType string  `json:"vehicle_type"`
	Area        string  `json:"area"`
	Rating      float64 `json:"rating"`
	Active      bool    `json:"active"`
}

// DriverSchema describes the drivers table
var DriverSchema = Schema{
	Name: TableDrivers,
	Key:  "id",
	Columns: []Column{
		{Name: "id", Type: TypeString},
		{Name: "name", Type: TypeString},
		{Name: "vehicle_type", Type: TypeString},
		{Name: "area", Type: TypeString},
		{Name: "rating", Type: TypeFloat},
		{Name: "active", Type: TypeBool},
	},
}

// Values returns column values in DriverSchema order
func (d Driver) Values() []interface{} {
	return []interface{}{d.ID, d.Name, d.VehicleType, d.Area, d.Rating, d.Active}
}

// MenuItem is a raw menu item row, owned by exactly one restaurant.
type MenuItem struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurant_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
}

// MenuItemSchema describes the menu_items table
var MenuItemSchema = Schema{
	Name: TableMenuItems,
	Key:  "id",
	Columns: []Column{
		{Name: "id", Type: TypeString},
		{Name: "restaurant_id", Type: TypeString},
		{Name: "name", Type: TypeString},
		{Name: "category", Type: TypeString},
		{Name: "price", Type: TypeDecimal},
	},
}

// Values returns column values in MenuItemSchema order
func (m MenuItem) Values() []interface{} {
	return []interface{}{m.ID, m.RestaurantID, m.Name, m.Category, m.Price}
}

// Validate checks the row invariants
func (m MenuItem) Validate() error {
	if m.Price.IsNegative() {
		return errors.New(errors.ErrorTypeInternal, "menu item price is negative").
			WithTable(TableMenuItems).WithKey(m.ID)
	}
	return nil
}

// Order is a raw order row referencing a customer, restaurant and driver.
type Order struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customer_id"`
	RestaurantID string          `json:"restaurant_id"`
	DriverID     string          `json:"driver_id"`
	PlacedAt     time.Time       `json:"placed_at"`
	Status       string          `json:"status"`
	ItemCount    int64           `json:"item_count"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
	Tax          decimal.Decimal `json:"tax"`
	Tip          decimal.Decimal `json:"tip"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
}

// OrderSchema describes the orders table
var OrderSchema = Schema{
	Name: TableOrders,
	Key:  "id",
	Columns: []Column{
		{Name: "id", Type: TypeString},
		{Name: "customer_id", Type: TypeString},
		{Name: "restaurant_id", Type: TypeString},
		{Name: "driver_id", Type: TypeString},
		{Name: "placed_at", Type: TypeTimestamp},
		{Name: "status", Type: TypeString},
		{Name: "item_count", Type: TypeInt},
		{Name: "subtotal", Type: TypeDecimal},
		{Name: "delivery_fee", Type: TypeDecimal},
		{Name: "tax", Type: TypeDecimal},
		{Name: "tip", Type: TypeDecimal},
		{Name: "discount", Type: TypeDecimal},
		{Name: "total", Type: TypeDecimal},
	},
}

// Values returns column values in OrderSchema order
func (o Order) Values() []interface{} {
	return []interface{}{
		o.ID, o.CustomerID, o.RestaurantID, o.DriverID, o.PlacedAt, o.Status,
		o.ItemCount, o.Subtotal, o.DeliveryFee, o.Tax, o.Tip, o.Discount, o.Total,
	}
}

// Validate checks the row invariants
func (o Order) Validate() error {
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"subtotal", o.Subtotal},
		{"delivery_fee", o.DeliveryFee},
		{"tax", o.Tax},
		{"tip", o.Tip},
		{"discount", o.Discount},
		{"total", o.Total},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return errors.Newf(errors.ErrorTypeInternal, "order %s is negative", a.name).
				WithTable(TableOrders).WithKey(o.ID)
		}
	}
	if o.ItemCount < 1 {
		return errors.New(errors.ErrorTypeInternal, "order has no items").
			WithTable(TableOrders).WithKey(o.ID)
	}
	return nil
}

// OrderItem is a raw order line item row.
type OrderItem struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	MenuItemID string          `json:"menu_item_id"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// OrderItemSchema describes the order_items table
var OrderItemSchema = Schema{
	Name: TableOrderItems,
	Key:  "id",
	Columns: []Column{
		{Name: "id", Type: TypeString},
		{Name: "order_id", Type: TypeString},
		{Name: "menu_item_id", Type: TypeString},
		{Name: "quantity", Type: TypeInt},
		{Name: "unit_price", Type: TypeDecimal},
		{Name: "line_total", Type: TypeDecimal},
	},
}

// Values returns column values in OrderItemSchema order
func (i OrderItem) Values() []interface{} {
	return []interface{}{i.ID, i.OrderID, i.MenuItemID, i.Quantity, i.UnitPrice, i.LineTotal}
}

// Validate checks the row invariants
func (i OrderItem) Validate() error {
	if i.Quantity < 1 {
		return errors.New(errors.ErrorTypeInternal, "order item quantity below 1").
			WithTable(TableOrderItems).WithKey(i.ID)
	}
	if i.UnitPrice.IsNegative() || i.LineTotal.IsNegative() {
		return errors.New(errors.ErrorTypeInternal, "order item price is negative").
			WithTable(TableOrderItems).WithKey(i.ID)
	}
	return nil
}

// Delivery is a raw delivery row, exactly one per order. Rating is 0
// when the order never completed and no rating was collected.
type Delivery struct {
	ID               string    `json:"id"`
	OrderID          string    `json:"order_id"`
	PickupAt         time.Time `json:"pickup_at"`
	DropoffAt        time.Time `json:"dropoff_at"`
	EstimatedMinutes int64     `json:"estimated_minutes"`
	ActualMinutes    int64     `json:"actual_minutes"`
	OnTime           bool      `json:"on_time"`
	Rating           float64   `json:"rating"`
	Issue            string    `json:"issue"`
}

// DeliverySchema describes the deliveries table
var DeliverySchema = Schema{
	Name: TableDeliveries,
	Key:  "id",
	Columns: []Column{
		{Name: "id", Type: TypeString},
		{Name: "order_id", Type: TypeString},
		{Name: "pickup_at", Type: TypeTimestamp},
		{Name: "dropoff_at", Type: TypeTimestamp},
		{Name: "estimated_minutes", Type: TypeInt},
		{Name: "actual_minutes", Type: TypeInt},
		{Name: "on_time", Type: TypeBool},
		{Name: "rating", Type: TypeFloat},
		{Name: "issue", Type: TypeString},
	},
}

// Values returns column values in DeliverySchema order
func (d Delivery) Values() []interface{} {
	return []interface{}{
		d.ID, d.OrderID, d.PickupAt, d.DropoffAt, d.EstimatedMinutes,
		d.ActualMinutes, d.OnTime, d.Rating, d.Issue,
	}
}

// Validate checks the row invariants. The pickup-after-order check
// needs the parent order and lives with the generator.
func (d Delivery) Validate() error {
	if d.DropoffAt.Before(d.PickupAt) {
		return errors.New(errors.ErrorTypeInternal, "delivery dropoff precedes pickup").
			WithTable(TableDeliveries).WithKey(d.ID)
	}
	if d.EstimatedMinutes < 0 || d.ActualMinutes < 0 {
		return errors.New(errors.ErrorTypeInternal, "delivery duration is negative").
			WithTable(TableDeliveries).WithKey(d.ID)
	}
	return nil
}

// Dataset is the complete raw output of a generation run
type Dataset struct {
	Customers   []Customer
	Restaurants []Restaurant
	Drivers     []Driver
	MenuItems   []MenuItem
	Orders      []Order
	OrderItems  []OrderItem
	Deliveries  []Delivery
}

// TableData renders one raw table by name
func (d *Dataset) TableData(name string) (TableData, error) {
	switch name {
	case TableCustomers:
		rows := make([][]interface{}, len(d.Customers))
		for i, r := range d.Customers {
			rows[i] = r.Values()
		}
		return TableData{Schema: CustomerSchema, Rows: rows}, nil
	case TableRestaurants:
		rows := make([][]interface{}, len(d.Restaurants))
		for i, r := range d.Restaurants {
			rows[i] = r.Values()
		}
		return TableData{Schema: RestaurantSchema, Rows: rows}, nil
	case TableDrivers:
		rows := make([][]interface{}, len(d.Drivers))
		for i, r := range d.Drivers {
			rows[i] = r.Values()
		}
		return TableData{Schema: DriverSchema, Rows: rows}, nil
	case TableMenuItems:
		rows := make([][]interface{}, len(d.MenuItems))
		for i, r := range d.MenuItems {
			rows[i] = r.Values()
		}
		return TableData{Schema: MenuItemSchema, Rows: rows}, nil
	case TableOrders:
		rows := make([][]interface{}, len(d.Orders))
		for i, r := range d.Orders {
			rows[i] = r.Values()
		}
		return TableData{Schema: OrderSchema, Rows: rows}, nil
	case TableOrderItems:
		rows := make([][]interface{}, len(d.OrderItems))
		for i, r := range d.OrderItems {
			rows[i] = r.Values()
		}
		return TableData{Schema: OrderItemSchema, Rows: rows}, nil
	case TableDeliveries:
		rows := make([][]interface{}, len(d.Deliveries))
		for i, r := range d.Deliveries {
			rows[i] = r.Values()
		}
		return TableData{Schema: DeliverySchema, Rows: rows}, nil
	default:
		return TableData{}, errors.Newf(errors.ErrorTypeInternal, "unknown raw table %q", name)
	}
}
