package carpark

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const shellHelp = `Commands:
  add_spot <SPOT_ID>
  delete_spot <SPOT_ID>
  list
  find_spot <SPOT_ID>
  park <REGISTRATION> <MAKE> <MODEL> <YEAR> <SPOT_ID> [--create]
    (quote multi-word values: park A1234 "Land Rover" "Range Rover" 2018 A001)
  find <REGISTRATION>
  remove <REGISTRATION>
  find_make <MAKE>
  reset yes
  help
  exit [yes]`

type InstrumentedShell struct {
	carPark   *InstrumentedCarPark
	scanner   *bufio.Scanner
	out       io.Writer
	telemetry *TelemetryProvider
}

func NewInstrumentedShell(carPark *InstrumentedCarPark, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *InstrumentedShell {
	return &InstrumentedShell{
		carPark:   carPark,
		scanner:   bufio.NewScanner(in),
		out:       out,
		telemetry: telemetry,
	}
}

// Run processes commands until input ends, exit is entered or ctx is done.
func (s *InstrumentedShell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for ctx.Err() == nil {
		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		exit := s.processCommand(cmdCtx, input)
		cmdSpan.End()
		if exit {
			break
		}
	}

	span.AddEvent("shell_ended")
}

func (s *InstrumentedShell) processCommand(ctx context.Context, input string) bool {
	span := trace.SpanFromContext(ctx)

	parts, err := splitArgs(input)
	if err != nil {
		s.printf("Invalid input: %s\n", err)
		return false
	}
	if len(parts) == 0 {
		return false
	}

	command := strings.ToLower(parts[0])
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "add_spot":
		s.handleAddSpot(ctx, parts)
	case "delete_spot":
		s.handleDeleteSpot(ctx, parts)
	case "list":
		s.handleList(ctx)
	case "find_spot":
		s.handleFindSpot(ctx, parts)
	case "park":
		s.handlePark(ctx, parts)
	case "find":
		s.handleFind(ctx, parts)
	case "remove":
		s.handleRemove(ctx, parts)
	case "find_make":
		s.handleFindMake(ctx, parts)
	case "reset":
		s.handleReset(ctx, parts)
	case "help":
		s.println(shellHelp)
	case "exit", "quit":
		return s.handleExit(parts)
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		s.printf("Unknown command: %s\n", command)
	}
	return false
}

func (s *InstrumentedShell) handleAddSpot(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: add_spot <SPOT_ID>")
		return
	}
	spotID := strings.ToUpper(parts[1])

	if err := s.carPark.AddSpot(ctx, spotID); err != nil {
		s.printf("Failed to add parking spot %s: %s\n", spotID, describe(err))
		return
	}
	s.printf("Parking spot %s added successfully\n", spotID)
}

func (s *InstrumentedShell) handleDeleteSpot(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: delete_spot <SPOT_ID>")
		return
	}
	spotID := strings.ToUpper(parts[1])

	if err := s.carPark.DeleteSpot(ctx, spotID); err != nil {
		s.printf("Failed to delete parking spot %s: %s\n", spotID, describe(err))
		return
	}
	s.printf("Parking spot %s deleted successfully\n", spotID)
}

func (s *InstrumentedShell) handleList(ctx context.Context) {
	spots := s.carPark.ListSpots(ctx)
	if len(spots) == 0 {
		s.println("Car park is empty")
		return
	}

	s.printSpots(spots)
	stats := s.carPark.Stats()
	s.printf("Total: %d, Occupied: %d, Available: %d\n", stats.Total, stats.Occupied, stats.Available)
}

func (s *InstrumentedShell) handleFindSpot(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: find_spot <SPOT_ID>")
		return
	}

	spot, err := s.carPark.FindSpot(ctx, strings.ToUpper(parts[1]))
	if err != nil {
		s.println("Not found")
		return
	}
	s.printSpots([]SpotInfo{spot})
}

func (s *InstrumentedShell) handlePark(ctx context.Context, parts []string) {
	span := trace.SpanFromContext(ctx)

	create := false
	if len(parts) == 7 && parts[6] == "--create" {
		create = true
		parts = parts[:6]
	}
	if len(parts) != 6 {
		s.println("Usage: park <REGISTRATION> <MAKE> <MODEL> <YEAR> <SPOT_ID> [--create]")
		return
	}

	registration := strings.ToUpper(parts[1])
	if !IsValidRegistration(registration) {
		span.AddEvent("invalid_registration")
		s.println("Invalid registration number. Expected an uppercase letter followed by 4 digits")
		return
	}

	year, err := strconv.Atoi(parts[4])
	if err != nil || !IsValidYear(year) {
		span.AddEvent("invalid_year")
		s.printf("Invalid year. Expected a year between %d and %d\n", MinYear, MaxYear)
		return
	}

	spotID := strings.ToUpper(parts[5])
	vehicle := NewVehicle(registration, parts[2], parts[3], year)

	if create {
		created, err := s.carPark.AddSpotAndPark(ctx, vehicle, spotID)
		if err != nil {
			s.printf("Failed to park car: %s\n", describe(err))
			return
		}
		if created {
			s.printf("Parking spot %s added successfully\n", spotID)
		}
	} else if err := s.carPark.ParkCar(ctx, vehicle, spotID); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.printf("Failed to park car: spot %s does not exist (repeat with --create to add it)\n", spotID)
			return
		}
		s.printf("Failed to park car: %s\n", describe(err))
		return
	}

	s.printf("Car %s parked successfully in spot %s\n", registration, spotID)
}

func (s *InstrumentedShell) handleFind(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: find <REGISTRATION>")
		return
	}
	registration := strings.ToUpper(parts[1])

	spot, err := s.carPark.FindByRegistration(ctx, registration)
	if err != nil {
		s.printf("Car with registration number %s not found\n", registration)
		return
	}

	v := spot.Vehicle
	s.printf("Car %s found in spot %s: %s %s (%d), parked for %s\n",
		registration, spot.ID, v.Make, v.Model, v.Year,
		FormatDuration(spot.OccupiedFor(s.carPark.Now())))
}

func (s *InstrumentedShell) handleRemove(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: remove <REGISTRATION>")
		return
	}
	registration := strings.ToUpper(parts[1])

	spotID, _, err := s.carPark.RemoveCarByRegistration(ctx, registration)
	if err != nil {
		s.printf("Car with registration number %s not found\n", registration)
		return
	}
	s.printf("Car %s removed from spot %s\n", registration, spotID)
}

func (s *InstrumentedShell) handleFindMake(ctx context.Context, parts []string) {
	if len(parts) < 2 {
		s.println("Usage: find_make <MAKE>")
		return
	}
	vehicleMake := strings.Join(parts[1:], " ")

	spots := s.carPark.FindByMake(ctx, vehicleMake)
	if len(spots) == 0 {
		s.printf("No cars found with make %s\n", vehicleMake)
		return
	}
	s.printSpots(spots)
}

func (s *InstrumentedShell) handleReset(ctx context.Context, parts []string) {
	if len(parts) != 2 || strings.ToLower(parts[1]) != "yes" {
		s.println("This removes every spot and car. Confirm with: reset yes")
		return
	}

	discarded := s.carPark.Reset(ctx)
	s.printf("Car park reset. Removed %d spots and %d cars\n", discarded.Total, discarded.Occupied)
}

// handleExit asks for confirmation when leaving would discard spots.
func (s *InstrumentedShell) handleExit(parts []string) bool {
	confirmed := len(parts) == 2 && strings.ToLower(parts[1]) == "yes"
	if s.carPark.Stats().Total > 0 && !confirmed {
		s.println("Nothing is saved and every spot will be lost. Confirm with: exit yes")
		return false
	}
	s.println("Program ends!")
	return true
}

func (s *InstrumentedShell) printSpots(spots []SpotInfo) {
	now := s.carPark.Now()
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPOT\tSTATUS\tREGISTRATION\tMAKE\tMODEL\tYEAR\tPARKED FOR")
	for _, spot := range spots {
		if !spot.Occupied {
			fmt.Fprintf(w, "%s\tUnoccupied\t-\t-\t-\t-\t-\n", spot.ID)
			continue
		}
		v := spot.Vehicle
		fmt.Fprintf(w, "%s\tOccupied\t%s\t%s\t%s\t%d\t%s\n",
			spot.ID, v.RegistrationNumber, v.Make, v.Model, v.Year,
			FormatDuration(spot.OccupiedFor(now)))
	}
	_ = w.Flush()
}

func (s *InstrumentedShell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *InstrumentedShell) println(line string) {
	fmt.Fprintln(s.out, line)
}

// splitArgs splits a command line on whitespace. Double quotes group words
// into one argument.
func splitArgs(input string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		inArg   bool
	)
	for _, r := range input {
		switch {
		case r == '"':
			quoted = !quoted
			inArg = true
		case !quoted && (r == ' ' || r == '\t'):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if quoted {
		return nil, errors.New("unterminated quote")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSpotID):
		return "invalid spot ID format, expected an uppercase letter followed by 3 digits"
	case errors.Is(err, ErrInvalidFormat):
		return err.Error()
	case errors.Is(err, ErrDuplicateID):
		return "spot already exists"
	case errors.Is(err, ErrNotFound):
		return "spot not found"
	case errors.Is(err, ErrSpotOccupied):
		return "spot is occupied"
	case errors.Is(err, ErrDuplicateRegistration):
		return "a car with this registration number is already parked"
	default:
		return err.Error()
	}
}
