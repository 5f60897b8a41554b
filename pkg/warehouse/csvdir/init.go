package csvdir

import (
	"github.com/ajitpratap0/forklift/pkg/warehouse"
)

func init() {
	_ = warehouse.RegisterDestination("csv", New)
}
