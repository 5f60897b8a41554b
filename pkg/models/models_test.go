package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/forklift/pkg/errors"
)

func TestSchemasMatchValues(t *testing.T) {
	ts := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)
	price := decimal.NewFromFloat(12.99)

	tests := []struct {
		schema Schema
		values []interface{}
	}{
		{CustomerSchema, Customer{SignupDate: ts}.Values()},
		{RestaurantSchema, Restaurant{}.Values()},
		{DriverSchema, Driver{}.Values()},
		{MenuItemSchema, MenuItem{Price: price}.Values()},
		{OrderSchema, Order{PlacedAt: ts}.Values()},
		{OrderItemSchema, OrderItem{}.Values()},
		{DeliverySchema, Delivery{PickupAt: ts, DropoffAt: ts}.Values()},
		{CustomerDimSchema, CustomerDim{}.Values()},
		{RestaurantDimSchema, RestaurantDim{}.Values()},
		{DriverDimSchema, DriverDim{}.Values()},
		{MenuItemDimSchema, MenuItemDim{}.Values()},
		{DatetimeDimSchema, DatetimeDim{Timestamp: ts}.Values()},
		{OrderFactSchema, OrderFact{}.Values()},
		{OrderItemsFactSchema, OrderItemFact{}.Values()},
	}

	for _, tt := range tests {
		t.Run(tt.schema.Name, func(t *testing.T) {
			assert.Len(t, tt.values, len(tt.schema.Columns),
				"Values() must yield one value per column")
			assert.NotEqual(t, -1, tt.schema.KeyIndex(),
				"key column must exist in schema")
		})
	}
}

func TestSchemaColumnNames(t *testing.T) {
	names := OrderItemSchema.ColumnNames()
	assert.Equal(t, []string{"id", "order_id", "menu_item_id", "quantity", "unit_price", "line_total"}, names)
}

func TestOrderValidate(t *testing.T) {
	valid := Order{
		ID:        "ord-1",
		ItemCount: 2,
		Subtotal:  decimal.NewFromFloat(31.98),
		Total:     decimal.NewFromFloat(38.50),
	}
	require.NoError(t, valid.Validate())

	negative := valid
	negative.Tip = decimal.NewFromFloat(-1)
	err := negative.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))

	empty := valid
	empty.ItemCount = 0
	assert.Error(t, empty.Validate())
}

func TestDeliveryValidate(t *testing.T) {
	pickup := time.Date(2024, 3, 9, 19, 0, 0, 0, time.UTC)

	ok := Delivery{ID: "del-1", PickupAt: pickup, DropoffAt: pickup.Add(25 * time.Minute)}
	require.NoError(t, ok.Validate())

	backwards := Delivery{ID: "del-2", PickupAt: pickup, DropoffAt: pickup.Add(-time.Minute)}
	err := backwards.Validate()
	require.Error(t, err)

	var ferr *errors.Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, TableDeliveries, ferr.Table())
}

func TestOrderItemValidate(t *testing.T) {
	bad := OrderItem{ID: "itm-1", Quantity: 0}
	assert.Error(t, bad.Validate())

	good := OrderItem{ID: "itm-2", Quantity: 1, UnitPrice: decimal.NewFromInt(8), LineTotal: decimal.NewFromInt(8)}
	assert.NoError(t, good.Validate())
}

func TestDatasetTableData(t *testing.T) {
	ds := &Dataset{
		Customers: []Customer{{ID: "c1"}, {ID: "c2"}},
		Orders:    []Order{{ID: "o1"}},
	}

	td, err := ds.TableData(TableCustomers)
	require.NoError(t, err)
	assert.Equal(t, 2, td.RowCount())
	assert.Equal(t, CustomerSchema, td.Schema)

	td, err = ds.TableData(TableOrders)
	require.NoError(t, err)
	assert.Equal(t, 1, td.RowCount())

	_, err = ds.TableData("nope")
	assert.Error(t, err)
}

func TestStarSetTableData(t *testing.T) {
	set := &StarSet{
		CustomerDims: []CustomerDim{{CustomerKey: 1, CustomerID: "c1"}},
		OrderFacts:   []OrderFact{{OrderKey: 1}, {OrderKey: 2}},
	}

	td, err := set.TableData(TableCustomerDim)
	require.NoError(t, err)
	assert.Equal(t, 1, td.RowCount())
	assert.Equal(t, int64(1), td.Rows[0][0])

	td, err = set.TableData(TableOrderFact)
	require.NoError(t, err)
	assert.Equal(t, 2, td.RowCount())

	_, err = set.TableData("bogus")
	assert.Error(t, err)
}

func TestTableOrder(t *testing.T) {
	// referencing tables must come after their referents
	idx := func(names []string, want string) int {
		for i, n := range names {
			if n == want {
				return i
			}
		}
		return -1
	}

	assert.Less(t, idx(RawTableNames, TableRestaurants), idx(RawTableNames, TableMenuItems))
	assert.Less(t, idx(RawTableNames, TableOrders), idx(RawTableNames, TableOrderItems))
	assert.Less(t, idx(RawTableNames, TableOrders), idx(RawTableNames, TableDeliveries))
	assert.Less(t, idx(StarTableNames, TableCustomerDim), idx(StarTableNames, TableOrderFact))
	assert.Less(t, idx(StarTableNames, TableOrderFact), idx(StarTableNames, TableOrderItemsFact))
}
