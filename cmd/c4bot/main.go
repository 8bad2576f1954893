// Command c4bot connects automated players to a Connect-Four rooms server.
//
// Bots are paired two per room and play the requested number of games
// against each other, which makes c4bot a quick smoke or load test for a
// running server. A single bot (--bots 1) waits in its room for a human
// opponent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/connect4-rooms/bot"
)

func main() {
	godotenv.Load()

	cmd := &cli.Command{
		Name:  "c4bot",
		Usage: "play automated Connect-Four games against a rooms server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   "localhost:12345",
				Usage:   "game server address",
				Sources: cli.EnvVars("C4_BOT_ADDR"),
			},
			&cli.IntFlag{
				Name:  "bots",
				Value: 2,
				Usage: "number of bots, paired two per room",
			},
			&cli.IntFlag{
				Name:  "games",
				Value: 1,
				Usage: "games each bot finishes before leaving",
			},
			&cli.StringFlag{
				Name:  "room",
				Value: "Arena",
				Usage: "room name prefix",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Value: "greedy",
				Usage: "greedy or first",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log every move",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "c4bot: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	strategy, err := parseStrategy(cmd.String("strategy"))
	if err != nil {
		return err
	}
	bots := cmd.Int("bots")
	if bots < 1 {
		return fmt.Errorf("--bots must be at least 1")
	}

	zcfg := zap.NewProductionConfig()
	if cmd.Bool("debug") {
		zcfg = zap.NewDevelopmentConfig()
	}
	logger, err := zcfg.Build()
	if err != nil {
		return err
	}
	log := logger.Sugar().Named("c4bot")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		mu    sync.Mutex
		total bot.Results
		errs  error
	)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < bots; i++ {
		name := "bot-" + uuid.NewString()[:8]
		room := fmt.Sprintf("%s-%d", cmd.String("room"), i/2+1)

		g.Go(func() error {
			b, err := bot.Dial(ctx, cmd.String("addr"), name, room,
				bot.WithGames(cmd.Int("games")),
				bot.WithStrategy(strategy),
				bot.WithLogger(log),
			)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				return nil
			}

			res, err := b.Run(ctx)

			mu.Lock()
			defer mu.Unlock()
			total.Played += res.Played
			total.Won += res.Won
			total.Lost += res.Lost
			total.Drawn += res.Drawn
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			}
			return nil
		})
	}
	g.Wait()

	// Each game is counted once per side.
	log.Infow("finished",
		"games", total.Played/2,
		"decided", total.Won,
		"drawn", total.Drawn/2,
		"failures", len(multierr.Errors(errs)),
	)
	return errs
}

func parseStrategy(name string) (bot.Strategy, error) {
	switch name {
	case "greedy":
		return bot.Greedy{}, nil
	case "first":
		return bot.FirstFree, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
