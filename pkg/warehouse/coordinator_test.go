package warehouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/models"
)

// fakeDestination records calls and simulates failures for coordinator
// tests.
type fakeDestination struct {
	initialized bool
	closed      bool
	calls       []string

	initErr   error
	failTable string
	failErr   error
	block     bool
}

func newFakeDestination() *fakeDestination {
	return &fakeDestination{}
}

func (f *fakeDestination) Initialize(_ context.Context) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	f.calls = append(f.calls, "initialize")
	return nil
}

func (f *fakeDestination) EnsureTable(_ context.Context, schema models.Schema) error {
	f.calls = append(f.calls, "ensure:"+schema.Name)
	return nil
}

func (f *fakeDestination) FullRefresh(ctx context.Context, table models.TableData) (int, error) {
	f.calls = append(f.calls, "refresh:"+table.Schema.Name)
	return f.apply(ctx, table)
}

func (f *fakeDestination) Upsert(ctx context.Context, table models.TableData) (int, error) {
	f.calls = append(f.calls, "upsert:"+table.Schema.Name)
	return f.apply(ctx, table)
}

func (f *fakeDestination) apply(ctx context.Context, table models.TableData) (int, error) {
	if f.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if f.failTable == table.Schema.Name {
		return 0, f.failErr
	}
	return table.RowCount(), nil
}

func (f *fakeDestination) Close(_ context.Context) error {
	f.closed = true
	f.calls = append(f.calls, "close")
	return nil
}

func dimTable(rows int) models.TableData {
	td := models.TableData{
		Schema: models.Schema{
			Name: "customer_dim",
			Columns: []models.Column{
				{Name: "customer_key", Type: models.TypeInt},
				{Name: "name", Type: models.TypeString},
			},
			Key: "customer_key",
		},
	}
	for i := 0; i < rows; i++ {
		td.Rows = append(td.Rows, []interface{}{int64(i + 1), fmt.Sprintf("customer %d", i+1)})
	}
	return td
}

func factTable(rows int) models.TableData {
	td := models.TableData{
		Schema: models.Schema{
			Name: "order_facts",
			Columns: []models.Column{
				{Name: "order_key", Type: models.TypeInt},
				{Name: "customer_key", Type: models.TypeInt},
			},
			Key: "order_key",
		},
	}
	for i := 0; i < rows; i++ {
		td.Rows = append(td.Rows, []interface{}{int64(i + 1), int64(1)})
	}
	return td
}

func testLoadConfig() config.LoadConfig {
	cfg := config.Default().Load
	cfg.Destination = "fake"
	return cfg
}

func TestCoordinatorLoadAllTables(t *testing.T) {
	fake := newFakeDestination()
	c := NewCoordinator(testLoadConfig(), fake, zaptest.NewLogger(t))

	report, err := c.Load(context.Background(), []models.TableData{dimTable(3), factTable(5)})
	require.NoError(t, err)

	assert.True(t, fake.initialized)
	assert.True(t, fake.closed)
	assert.Equal(t, []string{
		"initialize",
		"ensure:customer_dim", "refresh:customer_dim",
		"ensure:order_facts", "refresh:order_facts",
		"close",
	}, fake.calls)

	require.Len(t, report.Tables, 2)
	assert.Equal(t, "fake", report.Destination)
	assert.Equal(t, "customer_dim", report.Tables[0].Table)
	assert.Equal(t, config.ModeFullRefresh, report.Tables[0].Mode)
	assert.Equal(t, 3, report.Tables[0].Rows)
	assert.Equal(t, 5, report.Tables[1].Rows)
	assert.Equal(t, 8, report.TotalRows())
}

func TestCoordinatorModeRouting(t *testing.T) {
	fake := newFakeDestination()
	cfg := testLoadConfig()
	cfg.TableModes = map[string]string{"order_facts": config.ModeUpsert}
	c := NewCoordinator(cfg, fake, zaptest.NewLogger(t))

	report, err := c.Load(context.Background(), []models.TableData{dimTable(2), factTable(4)})
	require.NoError(t, err)

	assert.Contains(t, fake.calls, "refresh:customer_dim")
	assert.Contains(t, fake.calls, "upsert:order_facts")
	assert.NotContains(t, fake.calls, "refresh:order_facts")
	assert.Equal(t, config.ModeUpsert, report.Tables[1].Mode)
}

func TestCoordinatorFailFast(t *testing.T) {
	fake := newFakeDestination()
	fake.failTable = "customer_dim"
	fake.failErr = fmt.Errorf("disk full")
	c := NewCoordinator(testLoadConfig(), fake, zaptest.NewLogger(t))

	report, err := c.Load(context.Background(), []models.TableData{dimTable(3), factTable(5)})
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrorTypeWrite))
	assert.True(t, errors.IsRetryable(err))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "customer_dim", e.Table())
	assert.Equal(t, "[0,3)", e.Details["row_range"])
	assert.Equal(t, config.ModeFullRefresh, e.Details["mode"])

	// the failing table aborts the run before the fact table is touched
	assert.NotContains(t, fake.calls, "ensure:order_facts")
	assert.Empty(t, report.Tables)
	assert.True(t, fake.closed)
}

func TestCoordinatorTimeout(t *testing.T) {
	fake := newFakeDestination()
	fake.block = true
	cfg := testLoadConfig()
	cfg.TableTimeout = 20 * time.Millisecond
	c := NewCoordinator(cfg, fake, zaptest.NewLogger(t))

	_, err := c.Load(context.Background(), []models.TableData{dimTable(3)})
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))
	assert.True(t, errors.IsRetryable(err))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "customer_dim", e.Table())
}

func TestCoordinatorZeroRowRefresh(t *testing.T) {
	fake := newFakeDestination()
	c := NewCoordinator(testLoadConfig(), fake, zaptest.NewLogger(t))

	report, err := c.Load(context.Background(), []models.TableData{dimTable(0)})
	require.NoError(t, err)

	assert.Contains(t, fake.calls, "refresh:customer_dim")
	require.Len(t, report.Tables, 1)
	assert.Equal(t, 0, report.Tables[0].Rows)
	assert.Equal(t, 0, report.TotalRows())
}

func TestCoordinatorInitializeFailure(t *testing.T) {
	fake := newFakeDestination()
	fake.initErr = fmt.Errorf("connection refused")
	c := NewCoordinator(testLoadConfig(), fake, zaptest.NewLogger(t))

	report, err := c.Load(context.Background(), []models.TableData{dimTable(1)})
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrorTypeWrite))
	assert.Empty(t, report.Tables)
	assert.False(t, fake.closed)
	assert.NotContains(t, fake.calls, "ensure:customer_dim")
}
