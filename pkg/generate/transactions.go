package generate

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/metrics"
	"github.com/ajitpratap0/forklift/pkg/models"
)

// Pricing constants applied per order
const (
	taxRate          = 0.08
	crossAreaFee     = 2.00
	maxTipPct        = 0.25
	promoChance      = 0.15
	promoPctCap      = 0.20
	promoDollarCap   = 10.0
	baseDeliveryMins = 30.0
	onTimeGraceMins  = 5
)

var (
	deliveryRatings       = []float64{1, 2, 3, 4, 5}
	deliveryRatingWeights = []float64{0.01, 0.04, 0.10, 0.25, 0.60}
)

// TransactionGenerator produces orders, order items and deliveries
// referencing already-generated entities. References are sampled only
// from existing keys and delivery timestamps are derived from the order
// timestamp, so relational and temporal consistency hold by
// construction.
type TransactionGenerator struct {
	cfg    config.GenerationConfig
	logger *zap.Logger
}

// NewTransactionGenerator creates a transaction generator
func NewTransactionGenerator(cfg config.GenerationConfig, logger *zap.Logger) *TransactionGenerator {
	return &TransactionGenerator{cfg: cfg, logger: logger}
}

// Generate fills ds.Orders, ds.OrderItems and ds.Deliveries. Every
// order gets exactly one delivery row; cancelled and refunded orders
// carry their scheduled times. A reference error is returned as soon
// as an order needs a row from an empty entity table.
func (g *TransactionGenerator) Generate(ctx context.Context, ds *models.Dataset) error {
	if g.cfg.Orders == 0 {
		g.logger.Info("no orders requested, skipping transactions")
		return nil
	}

	for _, ref := range []struct {
		table string
		size  int
	}{
		{models.TableCustomers, len(ds.Customers)},
		{models.TableRestaurants, len(ds.Restaurants)},
		{models.TableDrivers, len(ds.Drivers)},
	} {
		if ref.size == 0 {
			return errors.Newf(errors.ErrorTypeReference,
				"cannot sample %s for orders: table is empty", ref.table).
				WithTable(ref.table)
		}
	}

	start := time.Now()
	s := NewStream(g.cfg.Seed, "transactions")

	menuByRestaurant := make(map[string][]int, len(ds.Restaurants))
	for i, item := range ds.MenuItems {
		menuByRestaurant[item.RestaurantID] = append(menuByRestaurant[item.RestaurantID], i)
	}

	weighted := g.cfg.Sampling == config.SamplingWeighted
	customerWeights := g.customerWeights(ds.Customers, weighted)
	driverWeights := g.driverWeights(ds.Drivers, weighted)
	windowStart, windowEnd := g.cfg.Window()

	ds.Orders = make([]models.Order, 0, g.cfg.Orders)
	ds.OrderItems = make([]models.OrderItem, 0, g.cfg.Orders*2)
	ds.Deliveries = make([]models.Delivery, 0, g.cfg.Orders)

	for i := 0; i < g.cfg.Orders; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "transaction generation cancelled")
		}

		customer := ds.Customers[s.WeightedIndex(customerWeights)]
		restaurant := ds.Restaurants[g.pickRestaurant(s, ds.Restaurants, customer, weighted)]
		driver := ds.Drivers[s.WeightedIndex(driverWeights)]

		menu := menuByRestaurant[restaurant.ID]
		if len(menu) == 0 {
			return errors.Newf(errors.ErrorTypeReference,
				"restaurant has no menu items to sample").
				WithTable(models.TableMenuItems).WithKey(restaurant.ID)
		}

		order, items := g.buildOrder(s, ds, customer, restaurant, driver, menu, windowStart, windowEnd)
		if err := order.Validate(); err != nil {
			return err
		}
		for _, item := range items {
			if err := item.Validate(); err != nil {
				return err
			}
		}

		delivery := g.buildDelivery(s, order)
		if err := delivery.Validate(); err != nil {
			return err
		}
		if delivery.PickupAt.Before(order.PlacedAt) {
			return errors.New(errors.ErrorTypeInternal, "delivery pickup precedes order").
				WithTable(models.TableDeliveries).WithKey(delivery.ID)
		}

		ds.Orders = append(ds.Orders, order)
		ds.OrderItems = append(ds.OrderItems, items...)
		ds.Deliveries = append(ds.Deliveries, delivery)
	}

	metrics.RowsGenerated.WithLabelValues(models.TableOrders).Add(float64(len(ds.Orders)))
	metrics.RowsGenerated.WithLabelValues(models.TableOrderItems).Add(float64(len(ds.OrderItems)))
	metrics.RowsGenerated.WithLabelValues(models.TableDeliveries).Add(float64(len(ds.Deliveries)))

	g.logger.Info("transaction generation complete",
		zap.Int("orders", len(ds.Orders)),
		zap.Int("order_items", len(ds.OrderItems)),
		zap.Int("deliveries", len(ds.Deliveries)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// customerWeights biases order volume toward heavier segments under the
// weighted policy; the uniform policy assigns equal weight.
func (g *TransactionGenerator) customerWeights(customers []models.Customer, weighted bool) []float64 {
	weights := make([]float64, len(customers))
	for i, c := range customers {
		if weighted {
			weights[i] = segmentOrderWeight[c.Segment]
		} else {
			weights[i] = 1
		}
	}
	return weights
}

// driverWeights biases assignment toward higher-rated drivers under the
// weighted policy.
func (g *TransactionGenerator) driverWeights(drivers []models.Driver, weighted bool) []float64 {
	weights := make([]float64, len(drivers))
	for i, d := range drivers {
		if weighted {
			weights[i] = d.Rating
		} else {
			weights[i] = 1
		}
	}
	return weights
}

// pickRestaurant prefers higher-rated, same-area and loyalty-partner
// restaurants for loyalty members under the weighted policy.
func (g *TransactionGenerator) pickRestaurant(s *Stream, restaurants []models.Restaurant, customer models.Customer, weighted bool) int {
	if !weighted {
		return s.Intn(len(restaurants))
	}

	weights := make([]float64, len(restaurants))
	for i, r := range restaurants {
		w := r.Rating / 5.0 * 2.0
		if r.Area == customer.Area {
			w *= 3.0
		}
		if r.LoyaltyPartner && customer.LoyaltyMember {
			w *= 1.5
		}
		weights[i] = w
	}
	return s.WeightedIndex(weights)
}

func (g *TransactionGenerator) buildOrder(
	s *Stream,
	ds *models.Dataset,
	customer models.Customer,
	restaurant models.Restaurant,
	driver models.Driver,
	menu []int,
	windowStart, windowEnd time.Time,
) (models.Order, []models.OrderItem) {
	orderID := s.UUID()
	placedAt := orderTimestamp(s, windowStart, windowEnd)
	status := s.Weighted(OrderStatuses, statusWeights)

	itemCount := int(s.LogNormal(1.1, 0.3))
	if itemCount < 1 {
		itemCount = 1
	}
	if itemCount > g.cfg.MaxItemsPerOrder {
		itemCount = g.cfg.MaxItemsPerOrder
	}

	items := make([]models.OrderItem, 0, itemCount)
	subtotal := decimal.Zero
	for i := 0; i < itemCount; i++ {
		menuItem := ds.MenuItems[menu[s.Intn(len(menu))]]

		qty := int64(1)
		if s.Chance(0.2) {
			qty = int64(s.IntBetween(2, 4))
		}
		lineTotal := menuItem.Price.Mul(decimal.NewFromInt(qty))
		subtotal = subtotal.Add(lineTotal)

		items = append(items, models.OrderItem{
			ID:         s.UUID(),
			OrderID:    orderID,
			MenuItemID: menuItem.ID,
			Quantity:   qty,
			UnitPrice:  menuItem.Price,
			LineTotal:  lineTotal,
		})
	}

	fee := decimal.Zero
	if !(customer.LoyaltyMember && restaurant.LoyaltyPartner) {
		base := tierEconomics[restaurant.PriceTier].DeliveryFee
		if restaurant.Area != customer.Area {
			base += crossAreaFee
		}
		fee = cents(base)
	}

	tax := subtotal.Mul(decimal.NewFromFloat(taxRate)).Round(2)
	tip := subtotal.Mul(decimal.NewFromFloat(s.Uniform(0, maxTipPct))).Round(2)

	discount := decimal.Zero
	if s.Chance(promoChance) {
		discount = decimal.Min(
			cents(promoDollarCap),
			subtotal.Mul(decimal.NewFromFloat(promoPctCap)).Round(2),
		)
	}

	total := subtotal.Add(tax).Add(fee).Add(tip).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return models.Order{
		ID:           orderID,
		CustomerID:   customer.ID,
		RestaurantID: restaurant.ID,
		DriverID:     driver.ID,
		PlacedAt:     placedAt,
		Status:       status,
		ItemCount:    int64(len(items)),
		Subtotal:     subtotal,
		DeliveryFee:  fee,
		Tax:          tax,
		Tip:          tip,
		Discount:     discount,
		Total:        total,
	}, items
}

// orderTimestamp samples a day in the generation window and an hour
// inside a weighted meal period. The late-night period wraps midnight:
// 60% of its orders land before midnight, 40% after.
func orderTimestamp(s *Stream, windowStart, windowEnd time.Time) time.Time {
	day := randomDate(s, windowStart, windowEnd)

	period := mealPeriods[s.WeightedIndex(mealPeriodWeights())]
	var hour int
	if period.StartHour <= period.EndHour {
		hour = s.IntBetween(period.StartHour, period.EndHour)
	} else if s.Chance(0.6) {
		hour = s.IntBetween(period.StartHour, 23)
	} else {
		hour = s.IntBetween(0, period.EndHour)
	}

	return day.Add(time.Duration(hour)*time.Hour +
		time.Duration(s.Intn(60))*time.Minute +
		time.Duration(s.Intn(60))*time.Second)
}

func mealPeriodWeights() []float64 {
	weights := make([]float64, len(mealPeriods))
	for i, p := range mealPeriods {
		weights[i] = p.Weight
	}
	return weights
}

// buildDelivery derives pickup and dropoff from the order timestamp.
// Estimated duration scales a 30-minute base by rush-hour, weekend and
// weather factors; the actual duration adds noise with a 5-minute
// floor. Prep time is bounded by the actual duration, which keeps
// dropoff >= pickup >= order time.
func (g *TransactionGenerator) buildDelivery(s *Stream, order models.Order) models.Delivery {
	hour := order.PlacedAt.Hour()
	weekday := order.PlacedAt.Weekday()
	isWeekend := weekday == time.Saturday || weekday == time.Sunday

	rush := 1.0
	lunchRush := !isWeekend && (hour == 12 || hour == 13)
	dinnerRush := hour == 18 || hour == 19
	if lunchRush || dinnerRush {
		rush = 1.3
	}

	weekendFactor := 1.0
	if isWeekend {
		weekendFactor = 1.2
	}

	estimated := baseDeliveryMins * rush * weekendFactor * s.Uniform(0.9, 1.4)
	actual := estimated + s.Normal(0, 10)
	if actual < 5 {
		actual = 5
	}

	estMins := int64(math.Round(estimated))
	actMins := int64(math.Round(actual))

	prep := int64(math.Round(actual*0.45 + s.Normal(0, 3)))
	if prep < 1 {
		prep = 1
	}
	if prep > actMins {
		prep = actMins
	}

	rating := 0.0
	issue := ""
	if order.Status == StatusCompleted {
		if s.Chance(0.7) {
			rating = deliveryRatings[s.WeightedIndex(deliveryRatingWeights)]
		}
		if s.Chance(0.1) {
			issue = s.Pick(DeliveryIssues)
		}
	}

	return models.Delivery{
		ID:               s.UUID(),
		OrderID:          order.ID,
		PickupAt:         order.PlacedAt.Add(time.Duration(prep) * time.Minute),
		DropoffAt:        order.PlacedAt.Add(time.Duration(actMins) * time.Minute),
		EstimatedMinutes: estMins,
		ActualMinutes:    actMins,
		OnTime:           actMins <= estMins+onTimeGraceMins,
		Rating:           rating,
		Issue:            issue,
	}
}
