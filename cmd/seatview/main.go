package main

import (
	"bufio"
	"cinema-seat-booking/config"
	"cinema-seat-booking/internal/client"
	"cinema-seat-booking/internal/seatview"
	"cinema-seat-booking/pkg/logger"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const help = `commands:
  show                 print the seat map
  select <seat>...     toggle seats, e.g. "select A1 A2"
  name <seat> <name>   set the name for a selected seat
  book                 book the selected seats
  quit                 exit`

// terminal prints notifications and the seat map; writes are serialised
// because the feed goroutine and the prompt share stdout.
type terminal struct {
	mu  sync.Mutex
	out io.Writer

	redrawMu sync.Mutex
	redraw   *time.Timer
}

const redrawDelay = 50 * time.Millisecond

// newController builds a controller whose state changes redraw the map. A
// burst of feed events is drawn once.
func newController(api seatview.SeatAPI, term *terminal) *seatview.Controller {
	var ctrl *seatview.Controller
	ctrl = seatview.NewController(api,
		seatview.WithNotifier(term),
		seatview.WithOnChange(func() {
			term.scheduleRedraw(func() { term.render(ctrl.Seats(), ctrl.Booking()) })
		}),
	)
	return ctrl
}

func (t *terminal) scheduleRedraw(draw func()) {
	t.redrawMu.Lock()
	defer t.redrawMu.Unlock()
	if t.redraw != nil {
		t.redraw.Stop()
	}
	t.redraw = time.AfterFunc(redrawDelay, draw)
}

func (t *terminal) Success(title, message string) {
	t.printf("✓ %s: %s\n", title, message)
}

func (t *terminal) Error(title, message string) {
	t.printf("✗ %s: %s\n", title, message)
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *terminal) render(seats []seatview.SeatView, booking bool) {
	var b strings.Builder
	row := ""
	for _, s := range seats {
		if s.RowLabel != row {
			if row != "" {
				b.WriteByte('\n')
			}
			row = s.RowLabel
			fmt.Fprintf(&b, "%-3s", row)
		}
		fmt.Fprintf(&b, " %s%-2d", marker(s), s.SeatNumber)
	}
	b.WriteString("\n\n[ ] free  [*] selected  [x] taken  [!] just booked\n")
	for _, s := range seats {
		if s.Selected {
			name := s.Name
			if name == "" {
				name = "(no name)"
			}
			fmt.Fprintf(&b, "  %s → %s\n", s.Label(), name)
		}
	}
	if booking {
		b.WriteString("booking…\n")
	}
	t.printf("%s", b.String())
}

func marker(s seatview.SeatView) string {
	switch {
	case s.JustBooked:
		return "[!]"
	case s.IsTaken:
		return "[x]"
	case s.Selected:
		return "[*]"
	}
	return "[ ]"
}

func main() {
	cfg := config.LoadClientConfig()
	// keep the prompt readable; warnings and errors still show
	logger.SetLevel("warn")
	defer logger.Sync()
	log := logger.WithComponent("seatview")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := &terminal{out: os.Stdout}
	api := client.NewSeatClient(cfg.APIURL, 10*time.Second)
	ctrl := newController(api, term)
	defer ctrl.Close()

	if err := ctrl.LoadAll(ctx); err != nil {
		log.Error("initial seat load failed", zap.String("api", cfg.APIURL), zap.Error(err))
	}

	go func() {
		_ = client.NewFeedSubscriber(cfg.APIURL, 2*time.Second).Run(ctx, ctrl.OnChangeEvent, func() {
			// catch up on anything missed while disconnected
			_ = ctrl.LoadAll(ctx)
		})
	}()

	term.render(ctrl.Seats(), false)
	fmt.Println(help)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		term.printf("> ")
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !runCommand(ctx, ctrl, term, strings.Fields(line)) {
				return
			}
		}
	}
}

// runCommand executes one prompt line and reports whether to keep going.
func runCommand(ctx context.Context, ctrl *seatview.Controller, term *terminal, args []string) bool {
	if len(args) == 0 {
		return true
	}

	switch strings.ToLower(args[0]) {
	case "quit", "exit", "q":
		return false

	case "show", "ls":
		term.render(ctrl.Seats(), ctrl.Booking())

	case "select", "s":
		for _, label := range args[1:] {
			seat, ok := findSeat(ctrl, label)
			switch {
			case !ok:
				term.printf("unknown seat %s\n", label)
			case seat.IsTaken:
				term.printf("seat %s is taken\n", seat.Label())
			default:
				ctrl.ToggleSelection(seat.ID)
			}
		}
		term.render(ctrl.Seats(), ctrl.Booking())

	case "name", "n":
		if len(args) < 3 {
			term.printf("usage: name <seat> <name>\n")
			return true
		}
		seat, ok := findSeat(ctrl, args[1])
		if !ok || !ctrl.SetName(seat.ID, strings.Join(args[2:], " ")) {
			term.printf("seat %s is not selected\n", args[1])
		}

	case "book", "b":
		// outcome is reported through the notifier
		_, _ = ctrl.SubmitBooking(ctx)
		term.render(ctrl.Seats(), ctrl.Booking())

	case "help", "h", "?":
		term.printf("%s\n", help)

	default:
		term.printf("unknown command %q, type help\n", args[0])
	}
	return true
}

func findSeat(ctrl *seatview.Controller, label string) (seatview.SeatView, bool) {
	label = strings.ToUpper(label)
	for _, s := range ctrl.Seats() {
		if strings.ToUpper(s.Label()) == label {
			return s, true
		}
	}
	return seatview.SeatView{}, false
}
