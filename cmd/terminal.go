package main

import (
	"context"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/okian/motionparty/internal/adapters/terminal"
	service "github.com/okian/motionparty/internal/app"
	"github.com/okian/motionparty/internal/config"
	"github.com/okian/motionparty/pkg/logger"
)

const renderInterval = time.Second / 30

// game is the part of the service the terminal drives.
type game interface {
	View(ctx context.Context) (service.View, error)
	Catalog(ctx context.Context) (service.Catalog, error)
	StartRound(ctx context.Context) error
	Reset(ctx context.Context) error
	Select(ctx context.Context, mode, name string) error
}

// runTerminal draws the game and feeds keyboard and mouse input to it
// until ctx is done or the player quits.
func runTerminal(ctx context.Context, screen tcell.Screen, mouse *terminal.MouseSource, g game) {
	log := logger.Get().Named("terminal")
	renderer := terminal.NewRenderer(screen)

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if mouse.HandleEvent(ev) {
				if _, ok := ev.(*tcell.EventResize); ok {
					screen.Sync()
				}
				continue
			}
			key, ok := ev.(*tcell.EventKey)
			if !ok {
				continue
			}
			if dispatch(ctx, g, terminal.CommandFor(key), log) {
				return
			}
		case <-ticker.C:
			v, err := g.View(ctx)
			if err != nil {
				log.Warn(ctx, "view unavailable", logger.Error(err))
				continue
			}
			renderer.Draw(v)
		}
	}
}

// dispatch applies cmd to g and reports whether the player asked to quit.
// Commands the round cannot accept right now are logged and dropped.
func dispatch(ctx context.Context, g game, cmd terminal.Command, log logger.Logger) bool {
	var err error
	switch cmd {
	case terminal.CmdQuit:
		return true
	case terminal.CmdStart:
		err = g.StartRound(ctx)
	case terminal.CmdReset:
		err = g.Reset(ctx)
	case terminal.CmdPopper:
		err = g.Select(ctx, config.ModePopper, "")
	case terminal.CmdDance:
		err = g.Select(ctx, config.ModeDance, "")
	case terminal.CmdNext:
		err = selectNext(ctx, g)
	case terminal.CmdNone:
	}
	if err != nil {
		log.Debug(ctx, "command ignored", logger.Int("command", int(cmd)), logger.Error(err))
	}
	return false
}

// selectNext moves to the theme or sequence after the current one,
// wrapping around the catalog.
func selectNext(ctx context.Context, g game) error {
	v, err := g.View(ctx)
	if err != nil {
		return err
	}
	cat, err := g.Catalog(ctx)
	if err != nil {
		return err
	}
	names, current := cat.Themes, v.Theme
	if v.Mode == config.ModeDance {
		names, current = cat.Sequences, v.Sequence
	}
	return g.Select(ctx, v.Mode, nextName(names, current))
}

func nextName(names []string, current string) string {
	if len(names) == 0 {
		return ""
	}
	for i, n := range names {
		if strings.EqualFold(n, current) {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
