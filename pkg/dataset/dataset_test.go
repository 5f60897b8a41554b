package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/forklift/pkg/compression"
	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/models"
)

func fixtureDataset() *models.Dataset {
	placed := time.Date(2024, 3, 15, 12, 30, 45, 0, time.UTC)
	return &models.Dataset{
		Customers: []models.Customer{
			{
				ID:            "c-1",
				Name:          `O'Brien, "Paddy"`,
				SignupDate:    time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC),
				LoyaltyMember: true,
				Area:          "Downtown",
				Segment:       "Regular",
				PaymentMethod: "Credit Card",
			},
			{
				ID:            "c-2",
				Name:          "Mei Lin",
				SignupDate:    time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
				LoyaltyMember: false,
				Area:          "Uptown",
				Segment:       "New",
				PaymentMethod: "Cash",
			},
		},
		Restaurants: []models.Restaurant{
			{ID: "r-1", Name: "Golden Dragon", Cuisine: "Chinese", PriceTier: "$$",
				Area: "Downtown", Rating: 4.3, LoyaltyPartner: true, Active: true},
		},
		Drivers: []models.Driver{
			{ID: "d-1", Name: "Sam Ortiz", VehicleType: "Bicycle", Area: "Downtown",
				Rating: 4.9, Active: true},
		},
		MenuItems: []models.MenuItem{
			{ID: "m-1", RestaurantID: "r-1", Name: "Spicy Noodles", Category: "Main Course",
				Price: decimal.New(1250, -2)},
			{ID: "m-2", RestaurantID: "r-1", Name: "Green Tea", Category: "Beverage",
				Price: decimal.New(299, -2)},
		},
		Orders: []models.Order{
			{
				ID: "o-1", CustomerID: "c-1", RestaurantID: "r-1", DriverID: "d-1",
				PlacedAt: placed, Status: "Completed", ItemCount: 2,
				Subtotal:    decimal.New(1549, -2),
				DeliveryFee: decimal.Zero,
				Tax:         decimal.New(124, -2),
				Tip:         decimal.New(200, -2),
				Discount:    decimal.Zero,
				Total:       decimal.New(1873, -2),
			},
		},
		OrderItems: []models.OrderItem{
			{ID: "i-1", OrderID: "o-1", MenuItemID: "m-1", Quantity: 1,
				UnitPrice: decimal.New(1250, -2), LineTotal: decimal.New(1250, -2)},
			{ID: "i-2", OrderID: "o-1", MenuItemID: "m-2", Quantity: 1,
				UnitPrice: decimal.New(299, -2), LineTotal: decimal.New(299, -2)},
		},
		Deliveries: []models.Delivery{
			{ID: "del-1", OrderID: "o-1",
				PickupAt:         placed.Add(14 * time.Minute),
				DropoffAt:        placed.Add(33 * time.Minute),
				EstimatedMinutes: 31, ActualMinutes: 33, OnTime: true,
				Rating: 5, Issue: ""},
		},
	}
}

func newTestWriter(t *testing.T, dir, format, codec string) *Writer {
	t.Helper()
	return NewWriter(config.DatasetConfig{
		Dir:         dir,
		Format:      format,
		Compression: codec,
	}, zaptest.NewLogger(t))
}

func requireSameFiles(t *testing.T, dirA, dirB string, m *Manifest) {
	t.Helper()
	files := []string{ManifestName}
	for _, tm := range m.Tables {
		files = append(files, tm.File)
	}
	for _, f := range files {
		a, err := os.ReadFile(filepath.Join(dirA, f))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, f))
		require.NoError(t, err)
		assert.Equal(t, a, b, "file %s differs between runs", f)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ds := fixtureDataset()

	m, err := newTestWriter(t, dir, config.FormatCSV, compression.None).
		WriteDataset(context.Background(), ds, 42)
	require.NoError(t, err)
	assert.Len(t, m.Tables, len(models.RawTableNames))
	assert.Equal(t, int64(42), m.Seed)

	back, err := NewReader(dir, zaptest.NewLogger(t)).ReadDataset()
	require.NoError(t, err)

	require.Len(t, back.Customers, 2)
	assert.Equal(t, ds.Customers[0].Name, back.Customers[0].Name, "csv quoting must survive")
	assert.True(t, ds.Customers[0].SignupDate.Equal(back.Customers[0].SignupDate))
	assert.Equal(t, ds.Customers[0].LoyaltyMember, back.Customers[0].LoyaltyMember)

	require.Len(t, back.Orders, 1)
	assert.True(t, ds.Orders[0].PlacedAt.Equal(back.Orders[0].PlacedAt))
	assert.True(t, ds.Orders[0].Subtotal.Equal(back.Orders[0].Subtotal))
	assert.True(t, ds.Orders[0].DeliveryFee.Equal(back.Orders[0].DeliveryFee))
	assert.True(t, ds.Orders[0].Total.Equal(back.Orders[0].Total))
	assert.Equal(t, ds.Orders[0].ItemCount, back.Orders[0].ItemCount)

	require.Len(t, back.Deliveries, 1)
	assert.True(t, ds.Deliveries[0].PickupAt.Equal(back.Deliveries[0].PickupAt))
	assert.Equal(t, ds.Deliveries[0].OnTime, back.Deliveries[0].OnTime)
	assert.Equal(t, ds.Deliveries[0].Rating, back.Deliveries[0].Rating)
	assert.Equal(t, "", back.Deliveries[0].Issue)
}

func TestNDJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ds := fixtureDataset()

	_, err := newTestWriter(t, dir, config.FormatNDJSON, compression.None).
		WriteDataset(context.Background(), ds, 7)
	require.NoError(t, err)

	back, err := NewReader(dir, zaptest.NewLogger(t)).ReadDataset()
	require.NoError(t, err)

	require.Len(t, back.MenuItems, 2)
	assert.True(t, ds.MenuItems[0].Price.Equal(back.MenuItems[0].Price))
	require.Len(t, back.OrderItems, 2)
	assert.Equal(t, int64(1), back.OrderItems[0].Quantity)
	assert.True(t, ds.OrderItems[1].LineTotal.Equal(back.OrderItems[1].LineTotal))
	require.Len(t, back.Restaurants, 1)
	assert.Equal(t, 4.3, back.Restaurants[0].Rating)
}

func TestCompressedRoundTrip(t *testing.T) {
	suffixes := map[string]string{
		compression.Gzip: ".gz",
		compression.Zstd: ".zst",
		compression.LZ4:  ".lz4",
	}

	for codec, suffix := range suffixes {
		t.Run(codec, func(t *testing.T) {
			dir := t.TempDir()
			ds := fixtureDataset()

			m, err := newTestWriter(t, dir, config.FormatCSV, codec).
				WriteDataset(context.Background(), ds, 42)
			require.NoError(t, err)
			assert.Equal(t, codec, m.Compression)

			for _, tm := range m.Tables {
				assert.Equal(t, suffix, filepath.Ext(tm.File))
			}

			back, err := NewReader(dir, zaptest.NewLogger(t)).ReadDataset()
			require.NoError(t, err)
			assert.Len(t, back.Customers, 2)
			assert.Len(t, back.Orders, 1)
			assert.True(t, ds.Orders[0].Total.Equal(back.Orders[0].Total))
		})
	}
}

func TestWriteDeterministic(t *testing.T) {
	// Identical inputs must produce byte-identical directories; the
	// manifest carries no wall-clock fields that could differ.
	dirA := t.TempDir()
	dirB := t.TempDir()
	ds := fixtureDataset()

	m, err := newTestWriter(t, dirA, config.FormatNDJSON, compression.Gzip).
		WriteDataset(context.Background(), ds, 42)
	require.NoError(t, err)
	_, err = newTestWriter(t, dirB, config.FormatNDJSON, compression.Gzip).
		WriteDataset(context.Background(), ds, 42)
	require.NoError(t, err)

	requireSameFiles(t, dirA, dirB, m)
}

func TestReEncodeStable(t *testing.T) {
	// Writing, reading and writing again must reproduce the same bytes,
	// proving the codec loses nothing.
	dirA := t.TempDir()
	dirB := t.TempDir()

	m, err := newTestWriter(t, dirA, config.FormatCSV, compression.None).
		WriteDataset(context.Background(), fixtureDataset(), 42)
	require.NoError(t, err)

	back, err := NewReader(dirA, zaptest.NewLogger(t)).ReadDataset()
	require.NoError(t, err)
	_, err = newTestWriter(t, dirB, config.FormatCSV, compression.None).
		WriteDataset(context.Background(), back, 42)
	require.NoError(t, err)

	requireSameFiles(t, dirA, dirB, m)
}

func TestManifestDescribesFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := newTestWriter(t, dir, config.FormatCSV, compression.None).
		WriteDataset(context.Background(), fixtureDataset(), 42)
	require.NoError(t, err)

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, m.FormatVersion)
	assert.Equal(t, config.FormatCSV, m.Format)
	assert.Equal(t, models.RawTableNames, m.TableNames())

	orders, ok := m.Table(models.TableOrders)
	require.True(t, ok)
	assert.Equal(t, 1, orders.Rows)
	assert.Equal(t, "orders.csv", orders.File)
	assert.Equal(t, models.OrderSchema, orders.Schema)

	_, ok = m.Table("no_such_table")
	assert.False(t, ok)
}

func TestReadMissingManifest(t *testing.T) {
	_, err := NewReader(t.TempDir(), zaptest.NewLogger(t)).ReadDataset()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestReadRejectsTamperedFile(t *testing.T) {
	dir := t.TempDir()
	_, err := newTestWriter(t, dir, config.FormatCSV, compression.None).
		WriteDataset(context.Background(), fixtureDataset(), 42)
	require.NoError(t, err)

	t.Run("row count mismatch", func(t *testing.T) {
		path := filepath.Join(dir, "customers.csv")
		original, err := os.ReadFile(path)
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, os.WriteFile(path, original, 0o644)) })

		header := []byte("id,name,signup_date,loyalty_member,area,segment,payment_method\n")
		require.NoError(t, os.WriteFile(path, header, 0o644))

		_, err = NewReader(dir, zaptest.NewLogger(t)).ReadTable(models.TableCustomers)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeIntegrity))
	})

	t.Run("unparseable cell", func(t *testing.T) {
		path := filepath.Join(dir, "orders.csv")
		original, err := os.ReadFile(path)
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, os.WriteFile(path, original, 0o644)) })

		tampered := []byte("id,customer_id,restaurant_id,driver_id,placed_at,status,item_count,subtotal,delivery_fee,tax,tip,discount,total\n" +
			"o-1,c-1,r-1,d-1,not-a-timestamp,Completed,2,15.49,0,1.24,2,0,18.73\n")
		require.NoError(t, os.WriteFile(path, tampered, 0o644))

		_, err = NewReader(dir, zaptest.NewLogger(t)).ReadTable(models.TableOrders)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeIntegrity))
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(dir, "drivers.csv")
		original, err := os.ReadFile(path)
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, os.WriteFile(path, original, 0o644)) })

		require.NoError(t, os.Remove(path))
		_, err = NewReader(dir, zaptest.NewLogger(t)).ReadTable(models.TableDrivers)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeIntegrity))
	})
}

func TestWriteStarSet(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 3, 15, 12, 30, 45, 0, time.UTC)
	star := &models.StarSet{
		CustomerDims: []models.CustomerDim{
			{CustomerKey: 1, CustomerID: "c-1", Name: "Mei Lin",
				SignupDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
				Area:       "Uptown", Segment: "New", PaymentMethod: "Cash"},
		},
		DatetimeDims: []models.DatetimeDim{
			{DatetimeKey: 1, Timestamp: ts, Year: 2024, Month: 3, Day: 15, Hour: 12,
				DayOfWeek: int64(ts.Weekday()), IsWeekend: false, MealPeriod: "Lunch"},
		},
		OrderFacts: []models.OrderFact{
			{OrderKey: 1, CustomerKey: 1, RestaurantKey: 1, DriverKey: 1,
				OrderDatetimeKey: 1, DeliveryDatetimeKey: 1, OrderID: "o-1",
				Status: "Completed", ItemCount: 2,
				Subtotal: decimal.New(1549, -2), DeliveryFee: decimal.Zero,
				Tax: decimal.New(124, -2), Tip: decimal.New(200, -2),
				Discount: decimal.Zero, Total: decimal.New(1873, -2),
				EstimatedMinutes: 31, ActualMinutes: 33, DelayMinutes: 2,
				OnTime: true, DeliveryRating: 5},
		},
	}

	m, err := newTestWriter(t, dir, config.FormatCSV, compression.None).
		WriteStarSet(context.Background(), star, 42)
	require.NoError(t, err)
	assert.Equal(t, models.StarTableNames, m.TableNames())

	td, err := NewReader(dir, zaptest.NewLogger(t)).ReadTable(models.TableOrderFact)
	require.NoError(t, err)
	require.Equal(t, 1, td.RowCount())
	assert.Equal(t, models.OrderFactSchema, td.Schema)
	assert.Equal(t, int64(1), td.Rows[0][0], "order_key survives as int64")

	sub, ok := td.Rows[0][9].(decimal.Decimal)
	require.True(t, ok, "subtotal decodes as decimal")
	assert.True(t, sub.Equal(decimal.New(1549, -2)))
}

func TestEncodeDecodeValues(t *testing.T) {
	ts := time.Date(2024, 6, 1, 18, 4, 5, 0, time.UTC)
	tests := []struct {
		name string
		col  models.Column
		val  interface{}
		text string
	}{
		{"string", models.Column{Name: "s", Type: models.TypeString}, "hello", "hello"},
		{"int", models.Column{Name: "n", Type: models.TypeInt}, int64(-42), "-42"},
		{"float", models.Column{Name: "f", Type: models.TypeFloat}, 4.3, "4.3"},
		{"bool", models.Column{Name: "b", Type: models.TypeBool}, true, "true"},
		{"timestamp", models.Column{Name: "t", Type: models.TypeTimestamp}, ts, "2024-06-01T18:04:05Z"},
		{"date", models.Column{Name: "d", Type: models.TypeDate},
			time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "2024-06-01"},
		{"decimal", models.Column{Name: "m", Type: models.TypeDecimal},
			decimal.New(1299, -2), "12.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := EncodeValue(tt.col, tt.val)
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)

			back, err := DecodeValue(tt.col, text)
			require.NoError(t, err)

			switch want := tt.val.(type) {
			case time.Time:
				assert.True(t, want.Equal(back.(time.Time)))
			case decimal.Decimal:
				assert.True(t, want.Equal(back.(decimal.Decimal)))
			default:
				assert.Equal(t, tt.val, back)
			}
		})
	}
}

func TestEncodeRejectsWrongType(t *testing.T) {
	_, err := EncodeValue(models.Column{Name: "n", Type: models.TypeInt}, "not-an-int")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		col  models.Column
		text string
	}{
		{models.Column{Name: "n", Type: models.TypeInt}, "12.5"},
		{models.Column{Name: "b", Type: models.TypeBool}, "maybe"},
		{models.Column{Name: "t", Type: models.TypeTimestamp}, "yesterday"},
		{models.Column{Name: "m", Type: models.TypeDecimal}, "$9.99"},
	}
	for _, tt := range tests {
		_, err := DecodeValue(tt.col, tt.text)
		require.Error(t, err, "column %s should reject %q", tt.col.Name, tt.text)
		assert.True(t, errors.IsType(err, errors.ErrorTypeIntegrity))
	}
}
