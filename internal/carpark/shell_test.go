package carpark

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runShell(t *testing.T, input string) (string, *InstrumentedCarPark) {
	t.Helper()
	tel := newTestTelemetry(t)
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	now := at
	cp := NewCarPark(WithClock(func() time.Time { return now }))
	icp, err := NewInstrumentedCarPark(cp, tel.provider, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	shell := NewInstrumentedShell(icp, tel.provider, strings.NewReader(input), &out)
	shell.Run(context.Background())
	return out.String(), icp
}

func TestShellEndToEnd(t *testing.T) {
	out, icp := runShell(t, strings.Join([]string{
		"add_spot d004",
		"park d1234 Honda Civic 2020 D004",
		"find D1234",
		"delete_spot D004",
		"remove D1234",
		"delete_spot D004",
		"list",
	}, "\n"))

	assert.Contains(t, out, "Parking spot D004 added successfully")
	assert.Contains(t, out, "Car D1234 parked successfully in spot D004")
	assert.Contains(t, out, "Car D1234 found in spot D004: Honda Civic (2020), parked for 0:00")
	assert.Contains(t, out, "Failed to delete parking spot D004: spot is occupied")
	assert.Contains(t, out, "Car D1234 removed from spot D004")
	assert.Contains(t, out, "Parking spot D004 deleted successfully")
	assert.Contains(t, out, "Car park is empty")
	assert.Empty(t, icp.ListSpots(context.Background()))
}

func TestShellParkValidation(t *testing.T) {
	out, icp := runShell(t, strings.Join([]string{
		"add_spot A001",
		"park 12345 Ford Ka 2010 A001",
		"park A1111 Ford Ka 1999 A001",
		"park A1111 Ford Ka abc A001",
		"park A1111 Ford Ka 2010 A002",
		"park A1111 Ford Ka 2010 A001",
		"park A1111 Ford Ka 2010 A001",
	}, "\n"))

	assert.Contains(t, out, "Invalid registration number")
	assert.Equal(t, 2, strings.Count(out, "Invalid year. Expected a year between 2004 and 2024"))
	assert.Contains(t, out, "spot A002 does not exist (repeat with --create to add it)")
	assert.Contains(t, out, "Car A1111 parked successfully in spot A001")
	assert.Contains(t, out, "Failed to park car: spot is occupied")
	assert.Equal(t, 1, icp.Stats().Occupied)
}

func TestShellParkWithCreate(t *testing.T) {
	out, icp := runShell(t, "park E1234 Audi A3 2019 e001 --create\nlist\n")

	assert.Contains(t, out, "Parking spot E001 added successfully")
	assert.Contains(t, out, "Car E1234 parked successfully in spot E001")
	assert.Contains(t, out, "Total: 1, Occupied: 1, Available: 0")
	assert.Equal(t, Stats{Total: 1, Occupied: 1}, icp.Stats())
}

func TestShellParkQuotedMakeAndModel(t *testing.T) {
	out, icp := runShell(t, strings.Join([]string{
		`park L1234 "Land Rover" "Range Rover Sport" 2018 L001 --create`,
		"find_make land rover",
		`find_make "LAND ROVER"`,
		`park L5678 "Land Rover 2012 L001`,
	}, "\n"))

	assert.Contains(t, out, "Car L1234 parked successfully in spot L001")
	assert.Equal(t, 2, strings.Count(out, "Range Rover Sport"))
	assert.NotContains(t, out, "No cars found")
	assert.Contains(t, out, "Invalid input: unterminated quote")

	spot, err := icp.FindByRegistration(context.Background(), "L1234")
	require.NoError(t, err)
	assert.Equal(t, "Land Rover", spot.Vehicle.Make)
	assert.Equal(t, "Range Rover Sport", spot.Vehicle.Model)
}

func TestSplitArgs(t *testing.T) {
	args, err := splitArgs(`park  A1234 "Land Rover"	Defender 2010 A001`)
	require.NoError(t, err)
	assert.Equal(t, []string{"park", "A1234", "Land Rover", "Defender", "2010", "A001"}, args)

	args, err = splitArgs(`find_make ""`)
	require.NoError(t, err)
	assert.Equal(t, []string{"find_make", ""}, args)

	_, err = splitArgs(`park "A1234`)
	assert.Error(t, err)
}

func TestShellFindMakeAndList(t *testing.T) {
	out, _ := runShell(t, strings.Join([]string{
		"add_spot C001",
		"add_spot C002",
		"add_spot C003",
		"park T0001 Toyota Corolla 2015 C001",
		"park T0002 Toyota Yaris 2021 C002",
		"find_make toyota",
		"find_make Volvo",
	}, "\n"))

	assert.Contains(t, out, "SPOT  STATUS")
	c1 := strings.Index(out, "C001  Occupied")
	c2 := strings.Index(out, "C002  Occupied")
	require.NotEqual(t, -1, c1)
	require.NotEqual(t, -1, c2)
	assert.Less(t, c1, c2)
	assert.Contains(t, out, "No cars found with make Volvo")
}

func TestShellResetRequiresConfirmation(t *testing.T) {
	out, icp := runShell(t, "add_spot A001\nreset\n")
	assert.Contains(t, out, "Confirm with: reset yes")
	assert.Equal(t, 1, icp.Stats().Total)

	out, icp = runShell(t, "add_spot A001\npark A1111 Ford Ka 2010 A001\nreset yes\n")
	assert.Contains(t, out, "Car park reset. Removed 1 spots and 1 cars")
	assert.Equal(t, Stats{}, icp.Stats())
}

func TestShellErrorsAndExit(t *testing.T) {
	out, icp := runShell(t, strings.Join([]string{
		"add_spot a12",
		"add_spot A001",
		"add_spot A001",
		"delete_spot Z999",
		"find Z9999",
		"remove Z9999",
		"find_spot Z999",
		"frobnicate",
		"exit",
		"exit yes",
		"add_spot B001",
	}, "\n"))

	assert.Contains(t, out, "Failed to add parking spot A12: invalid spot ID format")
	assert.Contains(t, out, "Failed to add parking spot A001: spot already exists")
	assert.Contains(t, out, "Failed to delete parking spot Z999: spot not found")
	assert.Contains(t, out, "Car with registration number Z9999 not found")
	assert.Contains(t, out, "Not found")
	assert.Contains(t, out, "Unknown command: frobnicate")
	assert.Contains(t, out, "Confirm with: exit yes")
	assert.Contains(t, out, "Program ends!")
	assert.NotContains(t, out, "B001")
	assert.Equal(t, 1, icp.Stats().Total)
}

func TestShellExitWithoutStateNeedsNoConfirmation(t *testing.T) {
	out, _ := runShell(t, "exit\nadd_spot A001\n")
	assert.Contains(t, out, "Program ends!")
	assert.NotContains(t, out, "Confirm with")
	assert.NotContains(t, out, "A001")
}

func TestShellStopsOnCancelledContext(t *testing.T) {
	tel := newTestTelemetry(t)
	icp, err := NewInstrumentedCarPark(NewCarPark(), tel.provider, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	NewInstrumentedShell(icp, tel.provider, strings.NewReader("add_spot A001\n"), &out).Run(ctx)

	assert.Empty(t, out.String())
	assert.Equal(t, 0, icp.Stats().Total)
}
