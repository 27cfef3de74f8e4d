package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gamemaps/viewer/internal/datasource"
)

const commandHelp = `commands:
  maps                              list maps in display order
  types                             list marker categories and subtypes
  markers <map>                     list the markers of a map
  render <map>                      print the render frame of a map
  toggle <map> <subtype>...         flip subtype visibility
  category <map> <category> on|off  show or hide a whole category
  show-all <map>                    show every subtype
  hide-all <map>                    hide every subtype
  complete <map> <marker>...        flip marker completion
  tile <map> <x> <y>                resolve a background tile URL
  url <url>                         select the map named by a URL and print its share link
  mode <static|dynamic> [map]       switch the content source and list maps
  info                              print build and source details`

func usage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <command> [args]\n\n%s\n\nflags:\n", AppName, commandHelp)
	fs.PrintDefaults()
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "maps":
		return a.printJSON(a.session.Maps())
	case "types":
		return a.printJSON(a.session.Categories())
	case "info":
		return a.printJSON(a.session.Info())

	case "markers":
		if err := a.selectMap(ctx, args, 1); err != nil {
			return err
		}
		return a.printJSON(a.session.Markers())

	case "render":
		if err := a.selectMap(ctx, args, 1); err != nil {
			return err
		}
		frame, err := a.session.Render()
		if err != nil {
			return err
		}
		return a.printJSON(frame)

	case "toggle":
		if err := a.selectMap(ctx, args, 2); err != nil {
			return err
		}
		for _, id := range args[1:] {
			fmt.Fprintf(a.out, "%s visible=%t\n", id, a.session.ToggleSubtype(id))
		}
		return a.printJSON(a.session.VisibleSubtypes())

	case "category":
		if err := a.selectMap(ctx, args, 3); err != nil {
			return err
		}
		on, err := parseSwitch(args[2])
		if err != nil {
			return err
		}
		if err := a.session.SetCategory(args[1], on); err != nil {
			return err
		}
		return a.printJSON(a.session.VisibleSubtypes())

	case "show-all", "hide-all":
		if err := a.selectMap(ctx, args, 1); err != nil {
			return err
		}
		if cmd == "show-all" {
			a.session.ShowAll()
		} else {
			a.session.HideAll()
		}
		return a.printJSON(a.session.VisibleSubtypes())

	case "complete":
		if err := a.selectMap(ctx, args, 2); err != nil {
			return err
		}
		for _, id := range args[1:] {
			done, err := a.session.ToggleCompleted(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s completed=%t\n", id, done)
		}
		return a.printJSON(a.session.Completed())

	case "tile":
		if err := a.selectMap(ctx, args, 3); err != nil {
			return err
		}
		x, errX := strconv.Atoi(args[1])
		y, errY := strconv.Atoi(args[2])
		if errX != nil || errY != nil {
			return fmt.Errorf("tile indices must be integers: %q %q", args[1], args[2])
		}
		u, ok := a.session.TileURL(x, y)
		if !ok {
			return fmt.Errorf("tile (%d, %d) is outside map %s", x, y, args[0])
		}
		fmt.Fprintln(a.out, u)
		return nil

	case "url":
		if len(args) < 1 {
			return fmt.Errorf("url: missing argument")
		}
		id, err := a.session.SelectFromURL(ctx, args[0])
		if err != nil {
			return err
		}
		a.session.Wait()
		share, err := a.session.ShareURL(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\n%s\n", id, share)
		return nil

	case "mode":
		if len(args) < 1 {
			return fmt.Errorf("mode: missing argument")
		}
		if len(args) > 1 {
			if err := a.selectMap(ctx, args[1:], 1); err != nil {
				return err
			}
		}
		if err := a.session.SetDataMode(ctx, datasource.ParseMode(args[0])); err != nil {
			return err
		}
		a.session.Wait()
		return a.printJSON(a.session.Maps())

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// selectMap selects args[0] and waits for its markers. want is the minimum argument count.
func (a *app) selectMap(ctx context.Context, args []string, want int) error {
	if len(args) < want {
		return fmt.Errorf("expected %d argument(s), got %d", want, len(args))
	}
	if err := a.session.SelectMap(ctx, args[0]); err != nil {
		return err
	}
	a.session.Wait()
	return nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "show", "true":
		return true, nil
	case "off", "hide", "false":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
