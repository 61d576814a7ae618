// framectl drives a frame's local control api from the command line.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aouyang1/inkframe/api/client"
	"github.com/aouyang1/inkframe/config"
	"github.com/aouyang1/inkframe/store"
)

const usage = `usage: framectl [-url URL] <command> [args]

commands:
  status
  config [interval=N] [rotation=N] [current_image=NAME]
  list
  upload FILE...
  display NAME
  rename OLD NEW
  delete NAME
  history [LIMIT]
`

func main() {
	url := flag.String("url", config.Get("FRAME_URL", "http://localhost:8000"), "frame api base url")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	fc := client.NewFrameClient(*url)
	out, err := run(fc, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "framectl: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "framectl: %v\n", err)
		os.Exit(1)
	}
}

func run(fc *client.FrameClient, cmd string, args []string) (any, error) {
	switch cmd {
	case "status":
		return fc.Status()
	case "config":
		if len(args) == 0 {
			return fc.Config()
		}
		upd, err := parseConfigArgs(args)
		if err != nil {
			return nil, err
		}
		return fc.UpdateConfig(upd)
	case "list":
		return fc.Images()
	case "upload":
		if len(args) == 0 {
			return nil, fmt.Errorf("upload needs at least one file")
		}
		var results []any
		for _, path := range args {
			resp, err := fc.Upload(path)
			if err != nil {
				return results, fmt.Errorf("upload %s: %w", path, err)
			}
			results = append(results, resp)
		}
		return results, nil
	case "display":
		if len(args) != 1 {
			return nil, fmt.Errorf("display needs exactly one image name")
		}
		return fc.Display(args[0])
	case "rename":
		if len(args) != 2 {
			return nil, fmt.Errorf("rename needs OLD and NEW")
		}
		return fc.Rename(args[0], args[1])
	case "delete":
		if len(args) != 1 {
			return nil, fmt.Errorf("delete needs exactly one image name")
		}
		return fc.Delete(args[0])
	case "history":
		limit := 20
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid history limit %q", args[0])
			}
			limit = n
		}
		return fc.History(limit)
	}
	return nil, fmt.Errorf("unknown command %q", cmd)
}

func parseConfigArgs(args []string) (store.ConfigUpdate, error) {
	var upd store.ConfigUpdate
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return upd, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch key {
		case "current_image":
			upd.CurrentImage = &value
		case "interval", "rotation":
			n, err := strconv.Atoi(value)
			if err != nil {
				return upd, fmt.Errorf("%s must be an integer, got %q", key, value)
			}
			if key == "interval" {
				upd.Interval = &n
			} else {
				upd.Rotation = &n
			}
		default:
			return upd, fmt.Errorf("unknown config key %q", key)
		}
	}
	return upd, nil
}
