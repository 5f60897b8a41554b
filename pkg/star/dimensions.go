package star

import (
	"sort"
	"time"

	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/generate"
	"github.com/ajitpratap0/forklift/pkg/models"
)

// Dimension builders assign surrogate keys 1..N in first-appearance
// order and return a natural-key index for the fact joins. A repeated
// natural key is an integrity defect, never silently collapsed.

func buildCustomerDims(customers []models.Customer) ([]models.CustomerDim, map[string]int64, error) {
	dims := make([]models.CustomerDim, 0, len(customers))
	keys := make(map[string]int64, len(customers))
	for _, c := range customers {
		if _, dup := keys[c.ID]; dup {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity, "duplicate customer natural key").
				WithTable(models.TableCustomerDim).WithKey(c.ID)
		}
		key := int64(len(dims) + 1)
		keys[c.ID] = key
		dims = append(dims, models.CustomerDim{
			CustomerKey:   key,
			CustomerID:    c.ID,
			Name:          c.Name,
			SignupDate:    c.SignupDate,
			LoyaltyMember: c.LoyaltyMember,
			Area:          c.Area,
			Segment:       c.Segment,
			PaymentMethod: c.PaymentMethod,
		})
	}
	return dims, keys, nil
}

func buildRestaurantDims(restaurants []models.Restaurant) ([]models.RestaurantDim, map[string]int64, error) {
	dims := make([]models.RestaurantDim, 0, len(restaurants))
	keys := make(map[string]int64, len(restaurants))
	for _, r := range restaurants {
		if _, dup := keys[r.ID]; dup {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity, "duplicate restaurant natural key").
				WithTable(models.TableRestaurantDim).WithKey(r.ID)
		}
		key := int64(len(dims) + 1)
		keys[r.ID] = key
		dims = append(dims, models.RestaurantDim{
			RestaurantKey:  key,
			RestaurantID:   r.ID,
			Name:           r.Name,
			Cuisine:        r.Cuisine,
			PriceTier:      r.PriceTier,
			Area:           r.Area,
			Rating:         r.Rating,
			LoyaltyPartner: r.LoyaltyPartner,
		})
	}
	return dims, keys, nil
}

func buildDriverDims(drivers []models.Driver) ([]models.DriverDim, map[string]int64, error) {
	dims := make([]models.DriverDim, 0, len(drivers))
	keys := make(map[string]int64, len(drivers))
	for _, d := range drivers {
		if _, dup := keys[d.ID]; dup {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity, "duplicate driver natural key").
				WithTable(models.TableDriverDim).WithKey(d.ID)
		}
		key := int64(len(dims) + 1)
		keys[d.ID] = key
		dims = append(dims, models.DriverDim{
			DriverKey:   key,
			DriverID:    d.ID,
			Name:        d.Name,
			VehicleType: d.VehicleType,
			Area:        d.Area,
			Rating:      d.Rating,
		})
	}
	return dims, keys, nil
}

func buildMenuItemDims(items []models.MenuItem) ([]models.MenuItemDim, map[string]int64, error) {
	dims := make([]models.MenuItemDim, 0, len(items))
	keys := make(map[string]int64, len(items))
	for _, m := range items {
		if _, dup := keys[m.ID]; dup {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity, "duplicate menu item natural key").
				WithTable(models.TableMenuItemDim).WithKey(m.ID)
		}
		key := int64(len(dims) + 1)
		keys[m.ID] = key
		dims = append(dims, models.MenuItemDim{
			MenuItemKey:  key,
			MenuItemID:   m.ID,
			RestaurantID: m.RestaurantID,
			Name:         m.Name,
			Category:     m.Category,
			Price:        m.Price,
		})
	}
	return dims, keys, nil
}

// buildDatetimeDims derives the datetime dimension from every distinct
// timestamp the facts will reference: order placement, delivery pickup
// and delivery dropoff. Keys follow ascending timestamp order, so the
// dimension is already sorted.
func buildDatetimeDims(orders []models.Order, deliveries []models.Delivery) ([]models.DatetimeDim, map[int64]int64) {
	seen := make(map[int64]time.Time)
	add := func(t time.Time) {
		u := t.UTC()
		seen[u.Unix()] = u
	}
	for _, o := range orders {
		add(o.PlacedAt)
	}
	for _, d := range deliveries {
		add(d.PickupAt)
		add(d.DropoffAt)
	}

	distinct := make([]int64, 0, len(seen))
	for u := range seen {
		distinct = append(distinct, u)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	dims := make([]models.DatetimeDim, 0, len(distinct))
	keys := make(map[int64]int64, len(distinct))
	for i, u := range distinct {
		ts := seen[u]
		key := int64(i + 1)
		keys[u] = key

		wd := ts.Weekday()
		dims = append(dims, models.DatetimeDim{
			DatetimeKey: key,
			Timestamp:   ts,
			Year:        int64(ts.Year()),
			Month:       int64(ts.Month()),
			Day:         int64(ts.Day()),
			Hour:        int64(ts.Hour()),
			DayOfWeek:   int64(wd),
			IsWeekend:   wd == time.Saturday || wd == time.Sunday,
			MealPeriod:  generate.MealPeriodFor(ts.Hour()),
		})
	}
	return dims, keys
}
