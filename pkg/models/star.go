package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/forklift/pkg/errors"
)

// Warehouse table names
const (
	TableCustomerDim    = "customer_dim"
	TableRestaurantDim  = "restaurant_dim"
	TableDriverDim      = "driver_dim"
	TableMenuItemDim    = "menu_item_dim"
	TableDatetimeDim    = "datetime_dim"
	TableOrderFact      = "fact_table"
	TableOrderItemsFact = "order_items_fact"
)

// StarTableNames lists the warehouse tables in load order: dimensions
// first so fact foreign keys always land on existing rows.
var StarTableNames = []string{
	TableCustomerDim,
	TableRestaurantDim,
	TableDriverDim,
	TableMenuItemDim,
	TableDatetimeDim,
	TableOrderFact,
	TableOrderItemsFact,
}

// CustomerDim is a deduplicated customer dimension row
type CustomerDim struct {
	CustomerKey   int64     `json:"customer_key"`
	CustomerID    string    `json:"customer_id"`
	Name          string    `json:"name"`
	SignupDate    time.Time `json:"signup_date"`
	LoyaltyMember bool      `json:"loyalty_member"`
	Area          string    `json:"area"`
	Segment       string    `json:"segment"`
	PaymentMethod string    `json:"payment_method"`
}

// CustomerDimSchema describes the customer_dim table
var CustomerDimSchema = Schema{
	Name: TableCustomerDim,
	Key:  "customer_key",
	Columns: []Column{
		{Name: "customer_key", Type: TypeInt},
		{Name: "customer_id", Type: TypeString},
		{Name: "name", Type: TypeString},
		{Name: "signup_date", Type: TypeDate},
		{Name: "loyalty_member", Type: TypeBool},
		{Name: "area", Type: TypeString},
		{Name: "segment", Type: TypeString},
		{Name: "payment_method", Type: TypeString},
	},
}

// Values returns column values in CustomerDimSchema order
func (d CustomerDim) Values() []interface{} {
	return []interface{}{
		d.CustomerKey, d.CustomerID, d.Name, d.SignupDate,
		d.LoyaltyMember, d.Area, d.Segment, d.PaymentMethod,
	}
}

// RestaurantDim is a deduplicated restaurant dimension row
type RestaurantDim struct {
	RestaurantKey  int64   `json:"restaurant_key"`
	RestaurantID   string  `json:"restaurant_id"`
	Name           string  `json:"name"`
	Cuisine        string  `json:"cuisine"`
	PriceTier      string  `json:"price_tier"`
	Area           string  `json:"area"`
	Rating         float64 `json:"rating"`
	LoyaltyPartner bool    `json:"loyalty_partner"`
}

// RestaurantDimSchema describes the restaurant_dim table
var RestaurantDimSchema = Schema{
	Name: TableRestaurantDim,
	Key:  "restaurant_key",
	Columns: []Column{
		{Name: "restaurant_key", Type: TypeInt},
		{Name: "restaurant_id", Type: TypeString},
		{Name: "name", Type: TypeString},
		{Name: "cuisine", Type: TypeString},
		{Name: "price_tier", Type: TypeString},
		{Name: "area", Type: TypeString},
		{Name: "rating", Type: TypeFloat},
		{Name: "loyalty_partner", Type: TypeBool},
	},
}

// Values returns column values in RestaurantDimSchema order
func (d RestaurantDim) Values() []interface{} {
	return []interface{}{
		d.RestaurantKey, d.RestaurantID, d.Name, d.Cuisine,
		d.PriceTier, d.Area, d.Rating, d.LoyaltyPartner,
	}
}

// DriverDim is a deduplicated driver dimension row
type DriverDim struct {
	DriverKey   int64   `json:"driver_key"`
	DriverID    string  `json:"driver_id"`
	Name        string  `json:"name"`
	VehicleType string  `json:"vehicle_type"`
	Area        string  `json:"area"`
	Rating      float64 `json:"rating"`
}

// DriverDimSchema describes the driver_dim table
var DriverDimSchema = Schema{
	Name: TableDriverDim,
	Key:  "driver_key",
	Columns: []Column{
		{Name: "driver_key", Type: TypeInt},
		{Name: "driver_id", Type: TypeString},
		{Name: "name", Type: TypeString},
		{Name: "vehicle_type", Type: TypeString},
		{Name: "area", Type: TypeString},
		{Name: "rating", Type: TypeFloat},
	},
}

// Values returns column values in DriverDimSchema order
func (d DriverDim) Values() []interface{} {
	return []interface{}{d.DriverKey, d.DriverID, d.Name, d.VehicleType, d.Area, d.Rating}
}

// MenuItemDim is a deduplicated menu item dimension row
type MenuItemDim struct {
	MenuItemKey  int64           `json:"menu_item_key"`
	MenuItemID   string          `json:"menu_item_id"`
	RestaurantID string          `json:"restaurant_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
}

// MenuItemDimSchema describes the menu_item_dim table
var MenuItemDimSchema = Schema{
	Name: TableMenuItemDim,
	Key:  "menu_item_key",
	Columns: []Column{
		{Name: "menu_item_key", Type: TypeInt},
		{Name: "menu_item_id", Type: TypeString},
		{Name: "restaurant_id", Type: TypeString},
		{Name: "name", Type: TypeString},
		{Name: "category", Type: TypeString},
		{Name: "price", Type: TypeDecimal},
	},
}

// Values returns column values in MenuItemDimSchema order
func (d MenuItemDim) Values() []interface{} {
	return []interface{}{d.MenuItemKey, d.MenuItemID, d.RestaurantID, d.Name, d.Category, d.Price}
}

// DatetimeDim is a derived dimension row decomposing one distinct
// timestamp drawn from orders and deliveries. DayOfWeek follows
// time.Weekday numbering (Sunday = 0).
type DatetimeDim struct {
	DatetimeKey int64     `json:"datetime_key"`
	Timestamp   time.Time `json:"ts"`
	Year        int64     `json:"year"`
	Month       int64     `json:"month"`
	Day         int64     `json:"day"`
	Hour        int64     `json:"hour"`
	DayOfWeek   int64     `json:"day_of_week"`
	IsWeekend   bool      `json:"is_weekend"`
	MealPeriod  string    `json:"meal_period"`
}

// DatetimeDimSchema describes the datetime_dim table
var DatetimeDimSchema = Schema{
	Name: TableDatetimeDim,
	Key:  "datetime_key",
	Columns: []Column{
		{Name: "datetime_key", Type: TypeInt},
		{Name: "ts", Type: TypeTimestamp},
		{Name: "year", Type: TypeInt},
		{Name: "month", Type: TypeInt},
		{Name: "day", Type: TypeInt},
		{Name: "hour", Type: TypeInt},
		{Name: "day_of_week", Type: TypeInt},
		{Name: "is_weekend", Type: TypeBool},
		{Name: "meal_period", Type: TypeString},
	},
}

// Values returns column values in DatetimeDimSchema order
func (d DatetimeDim) Values() []interface{} {
	return []interface{}{
		d.DatetimeKey, d.Timestamp, d.Year, d.Month, d.Day,
		d.Hour, d.DayOfWeek, d.IsWeekend, d.MealPeriod,
	}
}

// OrderFact is one row per order with delivery measures folded in.
// Foreign keys reference dimension surrogate keys only.
type OrderFact struct {
	OrderKey            int64           `json:"order_key"`
	CustomerKey         int64           `json:"customer_key"`
	RestaurantKey       int64           `json:"restaurant_key"`
	DriverKey           int64           `json:"driver_key"`
	OrderDatetimeKey    int64           `json:"order_datetime_key"`
	DeliveryDatetimeKey int64           `json:"delivery_datetime_key"`
	OrderID             string          `json:"order_id"`
	Status              string          `json:"status"`
	ItemCount           int64           `json:"item_count"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee"`
	Tax                 decimal.Decimal `json:"tax"`
	Tip                 decimal.Decimal `json:"tip"`
	Discount            decimal.Decimal `json:"discount"`
	Total               decimal.Decimal `json:"total"`
	EstimatedMinutes    int64           `json:"estimated_minutes"`
	ActualMinutes       int64           `json:"actual_minutes"`
	DelayMinutes        int64           `json:"delay_minutes"`
	OnTime              bool            `json:"on_time"`
	DeliveryRating      float64         `json:"delivery_rating"`
}

// OrderFactSchema describes the fact_table table
var OrderFactSchema = Schema{
	Name: TableOrderFact,
	Key:  "order_key",
	Columns: []Column{
		{Name: "order_key", Type: TypeInt},
		{Name: "customer_key", Type: TypeInt},
		{Name: "restaurant_key", Type: TypeInt},
		{Name: "driver_key", Type: TypeInt},
		{Name: "order_datetime_key", Type: TypeInt},
		{Name: "delivery_datetime_key", Type: TypeInt},
		{Name: "order_id", Type: TypeString},
		{Name: "status", Type: TypeString},
		{Name: "item_count", Type: TypeInt},
		{Name: "subtotal", Type: TypeDecimal},
		{Name: "delivery_fee", Type: TypeDecimal},
		{Name: "tax", Type: TypeDecimal},
		{Name: "tip", Type: TypeDecimal},
		{Name: "discount", Type: TypeDecimal},
		{Name: "total", Type: TypeDecimal},
		{Name: "estimated_minutes", Type: TypeInt},
		{Name: "actual_minutes", Type: TypeInt},
		{Name: "delay_minutes", Type: TypeInt},
		{Name: "on_time", Type: TypeBool},
		{Name: "delivery_rating", Type: TypeFloat},
	},
}

// Values returns column values in OrderFactSchema order
func (f OrderFact) Values() []interface{} {
	return []interface{}{
		f.OrderKey, f.CustomerKey, f.RestaurantKey, f.DriverKey,
		f.OrderDatetimeKey, f.DeliveryDatetimeKey, f.OrderID, f.Status,
		f.ItemCount, f.Subtotal, f.DeliveryFee, f.Tax, f.Tip, f.Discount,
		f.Total, f.EstimatedMinutes, f.ActualMinutes, f.DelayMinutes,
		f.OnTime, f.DeliveryRating,
	}
}

// OrderItemFact is one row per order line item
type OrderItemFact struct {
	OrderItemKey int64           `json:"order_item_key"`
	OrderKey     int64           `json:"order_key"`
	MenuItemKey  int64           `json:"menu_item_key"`
	OrderItemID  string          `json:"order_item_id"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// OrderItemsFactSchema describes the order_items_fact table
var OrderItemsFactSchema = Schema{
	Name: TableOrderItemsFact,
	Key:  "order_item_key",
	Columns: []Column{
		{Name: "order_item_key", Type: TypeInt},
		{Name: "order_key", Type: TypeInt},
		{Name: "menu_item_key", Type: TypeInt},
		{Name: "order_item_id", Type: TypeString},
		{Name: "quantity", Type: TypeInt},
		{Name: "unit_price", Type: TypeDecimal},
		{Name: "line_total", Type: TypeDecimal},
	},
}

// Values returns column values in OrderItemsFactSchema order
func (f OrderItemFact) Values() []interface{} {
	return []interface{}{
		f.OrderItemKey, f.OrderKey, f.MenuItemKey, f.OrderItemID,
		f.Quantity, f.UnitPrice, f.LineTotal,
	}
}

// StarSet is the complete output of the star-schema transform
type StarSet struct {
	CustomerDims   []CustomerDim
	RestaurantDims []RestaurantDim
	DriverDims     []DriverDim
	MenuItemDims   []MenuItemDim
	DatetimeDims   []DatetimeDim
	OrderFacts     []OrderFact
	OrderItemFacts []OrderItemFact
}

// TableData renders one warehouse table by name
func (s *StarSet) TableData(name string) (TableData, error) {
	switch name {
	case TableCustomerDim:
		rows := make([][]interface{}, len(s.CustomerDims))
		for i, r := range s.CustomerDims {
			rows[i] = r.Values()
		}
		return TableData{Schema: CustomerDimSchema, Rows: rows}, nil
	case TableRestaurantDim:
		rows := make([][]interface{}, len(s.RestaurantDims))
		for i, r := range s.RestaurantDims {
			rows[i] = r.Values()
		}
		return TableData{Schema: RestaurantDimSchema, Rows: rows}, nil
	case TableDriverDim:
		rows := make([][]interface{}, len(s.DriverDims))
		for i, r := range s.DriverDims {
			rows[i] = r.Values()
		}
		return TableData{Schema: DriverDimSchema, Rows: rows}, nil
	case TableMenuItemDim:
		rows := make([][]interface{}, len(s.MenuItemDims))
		for i, r := range s.MenuItemDims {
			rows[i] = r.Values()
		}
		return TableData{Schema: MenuItemDimSchema, Rows: rows}, nil
	case TableDatetimeDim:
		rows := make([][]interface{}, len(s.DatetimeDims))
		for i, r := range s.DatetimeDims {
			rows[i] = r.Values()
		}
		return TableData{Schema: DatetimeDimSchema, Rows: rows}, nil
	case TableOrderFact:
		rows := make([][]interface{}, len(s.OrderFacts))
		for i, r := range s.OrderFacts {
			rows[i] = r.Values()
		}
		return TableData{Schema: OrderFactSchema, Rows: rows}, nil
	case TableOrderItemsFact:
		rows := make([][]interface{}, len(s.OrderItemFacts))
		for i, r := range s.OrderItemFacts {
			rows[i] = r.Values()
		}
		return TableData{Schema: OrderItemsFactSchema, Rows: rows}, nil
	default:
		return TableData{}, errors.Newf(errors.ErrorTypeInternal, "unknown warehouse table %q", name)
	}
}
