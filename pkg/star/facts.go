package star

import (
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/models"
)

// buildOrderFacts joins each order with its delivery and resolves every
// natural reference to a dimension surrogate key. Any unresolved
// reference halts the transform; a fact row is never written with a
// dangling key and a raw row is never silently dropped.
func buildOrderFacts(
	orders []models.Order,
	deliveries []models.Delivery,
	customerKeys, restaurantKeys, driverKeys map[string]int64,
	datetimeKeys map[int64]int64,
) ([]models.OrderFact, map[string]int64, error) {
	deliveryByOrder := make(map[string]models.Delivery, len(deliveries))
	for _, d := range deliveries {
		if _, dup := deliveryByOrder[d.OrderID]; dup {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity, "order has more than one delivery row").
				WithTable(models.TableOrderFact).WithKey(d.OrderID)
		}
		deliveryByOrder[d.OrderID] = d
	}

	facts := make([]models.OrderFact, 0, len(orders))
	orderKeys := make(map[string]int64, len(orders))
	for _, o := range orders {
		if _, dup := orderKeys[o.ID]; dup {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity, "duplicate order natural key").
				WithTable(models.TableOrderFact).WithKey(o.ID)
		}

		del, ok := deliveryByOrder[o.ID]
		if !ok {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity, "order has no delivery row").
				WithTable(models.TableOrderFact).WithKey(o.ID)
		}
		customerKey, ok := customerKeys[o.CustomerID]
		if !ok {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity,
				"order references a customer absent from customer_dim").
				WithTable(models.TableOrderFact).WithKey(o.CustomerID)
		}
		restaurantKey, ok := restaurantKeys[o.RestaurantID]
		if !ok {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity,
				"order references a restaurant absent from restaurant_dim").
				WithTable(models.TableOrderFact).WithKey(o.RestaurantID)
		}
		driverKey, ok := driverKeys[o.DriverID]
		if !ok {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity,
				"order references a driver absent from driver_dim").
				WithTable(models.TableOrderFact).WithKey(o.DriverID)
		}
		orderDT, ok := datetimeKeys[o.PlacedAt.UTC().Unix()]
		if !ok {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity,
				"order timestamp absent from datetime_dim").
				WithTable(models.TableOrderFact).WithKey(o.ID)
		}
		deliveryDT, ok := datetimeKeys[del.DropoffAt.UTC().Unix()]
		if !ok {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity,
				"delivery timestamp absent from datetime_dim").
				WithTable(models.TableOrderFact).WithKey(o.ID)
		}

		key := int64(len(facts) + 1)
		orderKeys[o.ID] = key
		facts = append(facts, models.OrderFact{
			OrderKey:            key,
			CustomerKey:         customerKey,
			RestaurantKey:       restaurantKey,
			DriverKey:           driverKey,
			OrderDatetimeKey:    orderDT,
			DeliveryDatetimeKey: deliveryDT,
			OrderID:             o.ID,
			Status:              o.Status,
			ItemCount:           o.ItemCount,
			Subtotal:            o.Subtotal,
			DeliveryFee:         o.DeliveryFee,
			Tax:                 o.Tax,
			Tip:                 o.Tip,
			Discount:            o.Discount,
			Total:               o.Total,
			EstimatedMinutes:    del.EstimatedMinutes,
			ActualMinutes:       del.ActualMinutes,
			DelayMinutes:        del.ActualMinutes - del.EstimatedMinutes,
			OnTime:              del.OnTime,
			DeliveryRating:      del.Rating,
		})
	}

	// A delivery whose order never surfaced would otherwise vanish.
	for _, d := range deliveries {
		if _, ok := orderKeys[d.OrderID]; !ok {
			return nil, nil, errors.New(errors.ErrorTypeIntegrity, "delivery references a missing order").
				WithTable(models.TableOrderFact).WithKey(d.OrderID)
		}
	}
	return facts, orderKeys, nil
}

// buildOrderItemFacts resolves each line item against the order and
// menu item surrogate keys.
func buildOrderItemFacts(
	items []models.OrderItem,
	orderKeys, menuItemKeys map[string]int64,
) ([]models.OrderItemFact, error) {
	facts := make([]models.OrderItemFact, 0, len(items))
	for _, it := range items {
		orderKey, ok := orderKeys[it.OrderID]
		if !ok {
			return nil, errors.New(errors.ErrorTypeIntegrity,
				"order item references an order absent from fact_table").
				WithTable(models.TableOrderItemsFact).WithKey(it.OrderID)
		}
		menuItemKey, ok := menuItemKeys[it.MenuItemID]
		if !ok {
			return nil, errors.New(errors.ErrorTypeIntegrity,
				"order item references a menu item absent from menu_item_dim").
				WithTable(models.TableOrderItemsFact).WithKey(it.MenuItemID)
		}

		facts = append(facts, models.OrderItemFact{
			OrderItemKey: int64(len(facts) + 1),
			OrderKey:     orderKey,
			MenuItemKey:  menuItemKey,
			OrderItemID:  it.ID,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			LineTotal:    it.LineTotal,
		})
	}
	return facts, nil
}
