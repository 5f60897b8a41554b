package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/forklift/pkg/errors"
)

// rowScanner pulls typed values out of a column-ordered row, recording
// the first mismatch instead of panicking. Getters must be called in
// schema column order.
type rowScanner struct {
	table string
	row   []interface{}
	idx   int
	err   error
}

func newRowScanner(table string, row []interface{}, width int) *rowScanner {
	rs := &rowScanner{table: table, row: row}
	if len(row) != width {
		rs.err = errors.Newf(errors.ErrorTypeIntegrity,
			"row has %d values, schema has %d columns", len(row), width).
			WithTable(table)
	}
	return rs
}

func (rs *rowScanner) mismatch(want string) {
	rs.err = errors.Newf(errors.ErrorTypeIntegrity,
		"column %d holds %T, expected %s", rs.idx, rs.row[rs.idx], want).
		WithTable(rs.table)
}

func (rs *rowScanner) nextString() string {
	if rs.err != nil {
		return ""
	}
	v, ok := rs.row[rs.idx].(string)
	if !ok {
		rs.mismatch("string")
		return ""
	}
	rs.idx++
	return v
}

func (rs *rowScanner) nextInt() int64 {
	if rs.err != nil {
		return 0
	}
	v, ok := rs.row[rs.idx].(int64)
	if !ok {
		rs.mismatch("int64")
		return 0
	}
	rs.idx++
	return v
}

func (rs *rowScanner) nextFloat() float64 {
	if rs.err != nil {
		return 0
	}
	v, ok := rs.row[rs.idx].(float64)
	if !ok {
		rs.mismatch("float64")
		return 0
	}
	rs.idx++
	return v
}

func (rs *rowScanner) nextBool() bool {
	if rs.err != nil {
		return false
	}
	v, ok := rs.row[rs.idx].(bool)
	if !ok {
		rs.mismatch("bool")
		return false
	}
	rs.idx++
	return v
}

func (rs *rowScanner) nextTime() time.Time {
	if rs.err != nil {
		return time.Time{}
	}
	v, ok := rs.row[rs.idx].(time.Time)
	if !ok {
		rs.mismatch("time.Time")
		return time.Time{}
	}
	rs.idx++
	return v
}

func (rs *rowScanner) nextDecimal() decimal.Decimal {
	if rs.err != nil {
		return decimal.Decimal{}
	}
	v, ok := rs.row[rs.idx].(decimal.Decimal)
	if !ok {
		rs.mismatch("decimal.Decimal")
		return decimal.Decimal{}
	}
	rs.idx++
	return v
}

// CustomerFromRow rebuilds a Customer from a column-ordered value row
func CustomerFromRow(row []interface{}) (Customer, error) {
	rs := newRowScanner(TableCustomers, row, len(CustomerSchema.Columns))
	c := Customer{
		ID:            rs.nextString(),
		Name:          rs.nextString(),
		SignupDate:    rs.nextTime(),
		LoyaltyMember: rs.nextBool(),
		Area:          rs.nextString(),
		Segment:       rs.nextString(),
		PaymentMethod: rs.nextString(),
	}
	return c, rs.err
}

// RestaurantFromRow rebuilds a Restaurant from a column-ordered value row
func RestaurantFromRow(row []interface{}) (Restaurant, error) {
	rs := newRowScanner(TableRestaurants, row, len(RestaurantSchema.Columns))
	r := Restaurant{
		ID:             rs.nextString(),
		Name:           rs.nextString(),
		Cuisine:        rs.nextString(),
		PriceTier:      rs.nextString(),
		Area:           rs.nextString(),
		Rating:         rs.nextFloat(),
		LoyaltyPartner: rs.nextBool(),
		Active:         rs.nextBool(),
	}
	return r, rs.err
}

// DriverFromRow rebuilds a Driver from a column-ordered value row
func DriverFromRow(row []interface{}) (Driver, error) {
	rs := newRowScanner(TableDrivers, row, len(DriverSchema.Columns))
	d := Driver{
		ID:          rs.nextString(),
		Name:        rs.nextString(),
		VehicleType: rs.nextString(),
		Area:        rs.nextString(),
		Rating:      rs.nextFloat(),
		Active:      rs.nextBool(),
	}
	return d, rs.err
}

// MenuItemFromRow rebuilds a MenuItem from a column-ordered value row
func MenuItemFromRow(row []interface{}) (MenuItem, error) {
	rs := newRowScanner(TableMenuItems, row, len(MenuItemSchema.Columns))
	m := MenuItem{
		ID:           rs.nextString(),
		RestaurantID: rs.nextString(),
		Name:         rs.nextString(),
		Category:     rs.nextString(),
		Price:        rs.nextDecimal(),
	}
	return m, rs.err
}

// OrderFromRow rebuilds an Order from a column-ordered value row
func OrderFromRow(row []interface{}) (Order, error) {
	rs := newRowScanner(TableOrders, row, len(OrderSchema.Columns))
	o := Order{
		ID:           rs.nextString(),
		CustomerID:   rs.nextString(),
		RestaurantID: rs.nextString(),
		DriverID:     rs.nextString(),
		PlacedAt:     rs.nextTime(),
		Status:       rs.nextString(),
		ItemCount:    rs.nextInt(),
		Subtotal:     rs.nextDecimal(),
		DeliveryFee:  rs.nextDecimal(),
		Tax:          rs.nextDecimal(),
		Tip:          rs.nextDecimal(),
		Discount:     rs.nextDecimal(),
		Total:        rs.nextDecimal(),
	}
	return o, rs.err
}

// OrderItemFromRow rebuilds an OrderItem from a column-ordered value row
func OrderItemFromRow(row []interface{}) (OrderItem, error) {
	rs := newRowScanner(TableOrderItems, row, len(OrderItemSchema.Columns))
	i := OrderItem{
		ID:         rs.nextString(),
		OrderID:    rs.nextString(),
		MenuItemID: rs.nextString(),
		Quantity:   rs.nextInt(),
		UnitPrice:  rs.nextDecimal(),
		LineTotal:  rs.nextDecimal(),
	}
	return i, rs.err
}

// DeliveryFromRow rebuilds a Delivery from a column-ordered value row
func DeliveryFromRow(row []interface{}) (Delivery, error) {
	rs := newRowScanner(TableDeliveries, row, len(DeliverySchema.Columns))
	d := Delivery{
		ID:               rs.nextString(),
		OrderID:          rs.nextString(),
		PickupAt:         rs.nextTime(),
		DropoffAt:        rs.nextTime(),
		EstimatedMinutes: rs.nextInt(),
		ActualMinutes:    rs.nextInt(),
		OnTime:           rs.nextBool(),
		Rating:           rs.nextFloat(),
		Issue:            rs.nextString(),
	}
	return d, rs.err
}

// DatasetFromTables rebuilds a typed Dataset from raw table data, for
// pipeline stages that start from files instead of memory. Every raw
// table must be present, though it may be empty.
func DatasetFromTables(tables map[string]TableData) (*Dataset, error) {
	ds := &Dataset{}
	for _, name := range RawTableNames {
		td, ok := tables[name]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeIntegrity, "dataset is missing table %q", name).
				WithTable(name)
		}

		var err error
		switch name {
		case TableCustomers:
			ds.Customers, err = rowsInto(td.Rows, CustomerFromRow)
		case TableRestaurants:
			ds.Restaurants, err = rowsInto(td.Rows, RestaurantFromRow)
		case TableDrivers:
			ds.Drivers, err = rowsInto(td.Rows, DriverFromRow)
		case TableMenuItems:
			ds.MenuItems, err = rowsInto(td.Rows, MenuItemFromRow)
		case TableOrders:
			ds.Orders, err = rowsInto(td.Rows, OrderFromRow)
		case TableOrderItems:
			ds.OrderItems, err = rowsInto(td.Rows, OrderItemFromRow)
		case TableDeliveries:
			ds.Deliveries, err = rowsInto(td.Rows, DeliveryFromRow)
		}
		if err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func rowsInto[T any](rows [][]interface{}, from func([]interface{}) (T, error)) ([]T, error) {
	out := make([]T, len(rows))
	for i, row := range rows {
		v, err := from(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
