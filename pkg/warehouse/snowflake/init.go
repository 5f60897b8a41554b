package snowflake

import (
	"github.com/ajitpratap0/forklift/pkg/warehouse"
)

func init() {
	_ = warehouse.RegisterDestination("snowflake", New)
}
