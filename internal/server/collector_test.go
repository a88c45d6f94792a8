package server

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-park/internal/carpark"
)

type fixedStats carpark.Stats

func (f fixedStats) Stats() carpark.Stats { return carpark.Stats(f) }

func TestRegistryCollector(t *testing.T) {
	c := NewRegistryCollector(fixedStats{Total: 5, Occupied: 3, Available: 2})

	assert.Equal(t, 3, testutil.CollectAndCount(c))

	expected := `
# HELP carpark_registry_occupied_spots Number of occupied parking spots.
# TYPE carpark_registry_occupied_spots gauge
carpark_registry_occupied_spots 3
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "carpark_registry_occupied_spots"))
}

func TestRegistryCollectorFollowsRegistry(t *testing.T) {
	cp := carpark.NewCarPark()
	c := NewRegistryCollector(cp)

	require.NoError(t, cp.AddSpot("A001"))
	require.NoError(t, cp.AddSpot("A002"))

	expected := `
# HELP carpark_registry_available_spots Number of unoccupied parking spots.
# TYPE carpark_registry_available_spots gauge
carpark_registry_available_spots 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "carpark_registry_available_spots"))
}
