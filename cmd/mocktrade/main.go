package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mocktrade/internal/app"
	"mocktrade/internal/infra"
)

// orderFlags collects repeated -order values.
type orderFlags []string

func (o *orderFlags) String() string     { return strings.Join(*o, "; ") }
func (o *orderFlags) Set(v string) error { *o = append(*o, v); return nil }

func main() {
	configPath := flag.String("config", infra.DefaultConfigPath, "path to config.yaml")
	var orderInputs orderFlags
	flag.Var(&orderInputs, "order", `order to place before the replay, e.g. "symbol=AAPL,action=BUY,strategy=LIMIT,quantity=10,limit_price=150" (repeatable)`)
	flag.Parse()

	// Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx, *configPath); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	for _, raw := range orderInputs {
		order, err := bootstrap.Submit(ctx, parseOrderInput(raw))
		if err != nil {
			slog.Error("Invalid order", slog.String("input", raw), slog.Any("error", err))
			os.Exit(2)
		}
		slog.Info("Order submitted", slog.String("order", order.String()))
	}

	if err := bootstrap.Replay(ctx); err != nil {
		slog.Error("Replay failed", slog.Any("error", err))
		os.Exit(1)
	}

	printSummary(bootstrap)
}

// parseOrderInput splits "k=v,k=v" into form input.
func parseOrderInput(raw string) map[string]string {
	input := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		input[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return input
}

func printSummary(b *app.Bootstrap) {
	fmt.Printf("\nAccount %s: funds %s\n", b.Account.Name, b.Desk.Funds())

	fmt.Println("\nFills:")
	for _, f := range b.Desk.GetFills() {
		fmt.Printf("  #%-4d %-4s %6d %-6s @ %12s  %s\n",
			f.OrderID, f.Action, f.Quantity, f.Symbol, f.Price, f.At.Format("2006-01-02 15:04:05"))
	}

	fmt.Println("\nPositions:")
	for _, inv := range b.Desk.Investments() {
		fmt.Printf("  %-6s %6d  cost %12s  value %12s  gain %12s  [%s]\n",
			inv.Symbol, inv.Quantity, inv.CostBasis, inv.Value(), inv.Gain(), inv.Status)
	}

	fmt.Println("\nOpen orders:")
	for _, o := range b.Sequencer.OpenOrders() {
		fmt.Printf("  %s (ref %s)\n", o.String(), o.HighestPrice)
	}

	snap := b.Metrics.Snapshot()
	fmt.Printf("\nEvents %d, evaluations %d, fills %d, trailing updates %d, errors %d\n",
		snap.EventsProcessed, snap.Evaluations, snap.OrdersFilled, snap.TrailingUpdates, snap.ErrorsTotal)
}
