package generate

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/models"
)

func testGenConfig() config.GenerationConfig {
	cfg := config.Default().Generation
	cfg.Customers = 40
	cfg.Restaurants = 12
	cfg.Drivers = 15
	cfg.Orders = 200
	return cfg
}

func generateAll(t *testing.T, cfg config.GenerationConfig) *models.Dataset {
	t.Helper()
	logger := zaptest.NewLogger(t)

	ds, err := NewEntityGenerator(cfg, logger).Generate(context.Background())
	require.NoError(t, err)
	require.NoError(t, NewTransactionGenerator(cfg, logger).Generate(context.Background(), ds))
	return ds
}

func TestGenerateCounts(t *testing.T) {
	cfg := testGenConfig()
	ds := generateAll(t, cfg)

	assert.Len(t, ds.Customers, cfg.Customers)
	assert.Len(t, ds.Restaurants, cfg.Restaurants)
	assert.Len(t, ds.Drivers, cfg.Drivers)
	assert.GreaterOrEqual(t, len(ds.MenuItems), cfg.Restaurants*5,
		"every restaurant carries at least five menu items")
	assert.Len(t, ds.Orders, cfg.Orders)
	assert.Len(t, ds.Deliveries, cfg.Orders, "every order gets exactly one delivery")
	assert.GreaterOrEqual(t, len(ds.OrderItems), cfg.Orders)
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := testGenConfig()

	first := generateAll(t, cfg)
	second := generateAll(t, cfg)
	assert.Equal(t, first, second, "same seed must reproduce the dataset byte for byte")

	cfg.Seed = 43
	third := generateAll(t, cfg)
	assert.NotEqual(t, first.Orders, third.Orders, "different seed must change the data")
}

func TestGenerateStreamIsolation(t *testing.T) {
	// Each entity type draws from its own seeded stream, so changing
	// one count leaves the other tables untouched.
	cfg := testGenConfig()
	base := generateAll(t, cfg)

	cfg.Customers = 10
	smaller := generateAll(t, cfg)

	assert.Equal(t, base.Restaurants, smaller.Restaurants)
	assert.Equal(t, base.Drivers, smaller.Drivers)
	assert.Equal(t, base.MenuItems, smaller.MenuItems)
	assert.Equal(t, base.Customers[:10], smaller.Customers)
}

func TestTransactionsEmptyReference(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.GenerationConfig)
		table  string
	}{
		{"no customers", func(c *config.GenerationConfig) { c.Customers = 0 }, models.TableCustomers},
		{"no restaurants", func(c *config.GenerationConfig) { c.Restaurants = 0 }, models.TableRestaurants},
		{"no drivers", func(c *config.GenerationConfig) { c.Drivers = 0 }, models.TableDrivers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testGenConfig()
			tt.mutate(&cfg)
			logger := zaptest.NewLogger(t)

			ds, err := NewEntityGenerator(cfg, logger).Generate(context.Background())
			require.NoError(t, err, "zero entity counts are legal at generation time")

			err = NewTransactionGenerator(cfg, logger).Generate(context.Background(), ds)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeReference))

			var fkErr *errors.Error
			require.ErrorAs(t, err, &fkErr)
			assert.Equal(t, tt.table, fkErr.Table())
		})
	}
}

func TestZeroOrders(t *testing.T) {
	cfg := testGenConfig()
	cfg.Customers = 0
	cfg.Restaurants = 0
	cfg.Drivers = 0
	cfg.Orders = 0

	ds := generateAll(t, cfg)
	assert.Empty(t, ds.Orders)
	assert.Empty(t, ds.OrderItems)
	assert.Empty(t, ds.Deliveries)
}

func TestNegativeCountRejected(t *testing.T) {
	cfg := testGenConfig()
	cfg.Drivers = -1

	_, err := NewEntityGenerator(cfg, zaptest.NewLogger(t)).Generate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestEntityAttributes(t *testing.T) {
	cfg := testGenConfig()
	ds := generateAll(t, cfg)

	for _, c := range ds.Customers {
		assert.NotEmpty(t, c.ID)
		assert.NotEmpty(t, c.Name)
		assert.Contains(t, Areas, c.Area)
		assert.Contains(t, Segments, c.Segment)
		assert.Contains(t, PaymentMethods, c.PaymentMethod)
	}
	for _, r := range ds.Restaurants {
		assert.Contains(t, Cuisines, r.Cuisine)
		assert.Contains(t, PriceTiers, r.PriceTier)
		assert.GreaterOrEqual(t, r.Rating, cfg.RestaurantRating.Min)
		assert.LessOrEqual(t, r.Rating, cfg.RestaurantRating.Max)
	}
	for _, d := range ds.Drivers {
		assert.Contains(t, VehicleTypes, d.VehicleType)
		assert.GreaterOrEqual(t, d.Rating, cfg.DriverRating.Min)
		assert.LessOrEqual(t, d.Rating, cfg.DriverRating.Max)
	}
	for _, m := range ds.MenuItems {
		assert.True(t, m.Price.IsPositive())
		priceF, _ := m.Price.Float64()
		assert.GreaterOrEqual(t, priceF, cfg.MenuPrice.Min)
		assert.LessOrEqual(t, priceF, cfg.MenuPrice.Max)
	}
}

func TestOrderItemOwnership(t *testing.T) {
	cfg := testGenConfig()
	ds := generateAll(t, cfg)

	restaurantOf := make(map[string]string, len(ds.MenuItems))
	priceOf := make(map[string]decimal.Decimal, len(ds.MenuItems))
	for _, m := range ds.MenuItems {
		restaurantOf[m.ID] = m.RestaurantID
		priceOf[m.ID] = m.Price
	}
	orderRestaurant := make(map[string]string, len(ds.Orders))
	for _, o := range ds.Orders {
		orderRestaurant[o.ID] = o.RestaurantID
	}

	for _, item := range ds.OrderItems {
		owner, ok := restaurantOf[item.MenuItemID]
		require.True(t, ok, "order item references an unknown menu item")
		assert.Equal(t, orderRestaurant[item.OrderID], owner,
			"order items come from the ordering restaurant's menu")

		assert.GreaterOrEqual(t, item.Quantity, int64(1))
		assert.LessOrEqual(t, item.Quantity, int64(4))
		assert.True(t, item.UnitPrice.Equal(priceOf[item.MenuItemID]))
		assert.True(t, item.LineTotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))))
	}
}

func TestOrderEconomics(t *testing.T) {
	cfg := testGenConfig()
	ds := generateAll(t, cfg)

	itemTotals := make(map[string]decimal.Decimal)
	itemCounts := make(map[string]int64)
	for _, item := range ds.OrderItems {
		itemTotals[item.OrderID] = itemTotals[item.OrderID].Add(item.LineTotal)
		itemCounts[item.OrderID]++
	}

	for _, o := range ds.Orders {
		assert.Contains(t, OrderStatuses, o.Status)
		assert.Equal(t, itemCounts[o.ID], o.ItemCount)
		assert.LessOrEqual(t, o.ItemCount, int64(cfg.MaxItemsPerOrder))

		assert.True(t, o.Subtotal.Equal(itemTotals[o.ID]),
			"subtotal %s must equal the sum of line totals %s", o.Subtotal, itemTotals[o.ID])

		expectedTax := o.Subtotal.Mul(decimal.NewFromFloat(taxRate)).Round(2)
		assert.True(t, o.Tax.Equal(expectedTax))

		expectedTotal := o.Subtotal.Add(o.Tax).Add(o.DeliveryFee).Add(o.Tip).Sub(o.Discount)
		if expectedTotal.IsNegative() {
			expectedTotal = decimal.Zero
		}
		assert.True(t, o.Total.Equal(expectedTotal),
			"total %s must reconcile to %s", o.Total, expectedTotal)

		assert.False(t, o.Tip.IsNegative())
		assert.False(t, o.Discount.IsNegative())
		assert.False(t, o.DeliveryFee.IsNegative())
	}
}

func TestDeliveryTimeline(t *testing.T) {
	cfg := testGenConfig()
	ds := generateAll(t, cfg)

	placedAt := make(map[string]int64, len(ds.Orders))
	status := make(map[string]string, len(ds.Orders))
	for _, o := range ds.Orders {
		placedAt[o.ID] = o.PlacedAt.Unix()
		status[o.ID] = o.Status
	}

	for _, d := range ds.Deliveries {
		placed, ok := placedAt[d.OrderID]
		require.True(t, ok, "delivery references an unknown order")

		assert.GreaterOrEqual(t, d.PickupAt.Unix(), placed, "pickup precedes order placement")
		assert.False(t, d.DropoffAt.Before(d.PickupAt), "dropoff precedes pickup")

		assert.GreaterOrEqual(t, d.EstimatedMinutes, int64(1))
		assert.GreaterOrEqual(t, d.ActualMinutes, int64(5))
		assert.Equal(t, d.ActualMinutes <= d.EstimatedMinutes+onTimeGraceMins, d.OnTime)

		if status[d.OrderID] != StatusCompleted {
			assert.Zero(t, d.Rating, "only completed orders are rated")
			assert.Empty(t, d.Issue)
		}
		if d.Rating != 0 {
			assert.GreaterOrEqual(t, d.Rating, 1.0)
			assert.LessOrEqual(t, d.Rating, 5.0)
		}
	}
}

func TestOrderTimestampsInsideWindow(t *testing.T) {
	cfg := testGenConfig()
	ds := generateAll(t, cfg)

	start, end := cfg.Window()
	for _, o := range ds.Orders {
		assert.False(t, o.PlacedAt.Before(start))
		assert.False(t, o.PlacedAt.After(end))
	}
}

func TestSamplingPolicies(t *testing.T) {
	uniform := testGenConfig()
	uniform.Sampling = config.SamplingUniform
	weighted := testGenConfig()
	weighted.Sampling = config.SamplingWeighted

	uds := generateAll(t, uniform)
	wds := generateAll(t, weighted)

	assert.Equal(t, uds.Customers, wds.Customers, "sampling policy only affects transactions")
	assert.NotEqual(t, uds.Orders, wds.Orders, "policies select different references")
}

func TestMealPeriodFor(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{6, "Breakfast"},
		{10, "Breakfast"},
		{11, "Lunch"},
		{14, "Lunch"},
		{15, "Afternoon"},
		{16, "Afternoon"},
		{17, "Dinner"},
		{21, "Dinner"},
		{22, "Late Night"},
		{23, "Late Night"},
		{0, "Late Night"},
		{5, "Late Night"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MealPeriodFor(tt.hour), "hour %d", tt.hour)
	}
}

func TestStreamDeterminism(t *testing.T) {
	a := NewStream(42, "orders")
	b := NewStream(42, "orders")
	for i := 0; i < 16; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
	assert.Equal(t, NewStream(42, "orders").UUID(), NewStream(42, "orders").UUID())

	c := NewStream(42, "drivers")
	d := NewStream(43, "orders")
	base := NewStream(42, "orders")
	assert.NotEqual(t, base.UUID(), c.UUID(), "stream name changes the sequence")
	assert.NotEqual(t, NewStream(42, "orders").UUID(), d.UUID(), "seed changes the sequence")
}

func TestWeightedIndex(t *testing.T) {
	s := NewStream(1, "weights")

	counts := make([]int, 3)
	for i := 0; i < 3000; i++ {
		counts[s.WeightedIndex([]float64{0.1, 0.3, 0.6})]++
	}
	assert.Greater(t, counts[2], counts[1])
	assert.Greater(t, counts[1], counts[0])

	// Non-positive weights degrade to uniform rather than panicking.
	idx := s.WeightedIndex([]float64{0, 0, 0})
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, 3)
}
