// Command client connects to a snake game server, streams the world into
// a local model and sends direction commands typed on stdin (w/a/s/d,
// q to quit). A periodic scoreboard is printed from world snapshots.
package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/KhangNguyen2005/SnakeGame/client"
	"github.com/KhangNguyen2005/SnakeGame/logger"
	"github.com/KhangNguyen2005/SnakeGame/protocol"
	"github.com/KhangNguyen2005/SnakeGame/world"
)

var keyToDirection = map[string]protocol.Direction{
	"w": protocol.Up,
	"s": protocol.Down,
	"a": protocol.Left,
	"d": protocol.Right,
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		host    string
		port    int
		name    string
		refresh time.Duration
		verbose bool
	)

	fs := flag.NewFlagSet("snake-client", flag.ContinueOnError)
	fs.StringVarP(&host, "host", "H", "localhost", "Server host")
	fs.IntVarP(&port, "port", "p", 9000, "Server port")
	fs.StringVarP(&name, "name", "n", "anonymous", "Player display name")
	fs.DurationVar(&refresh, "refresh", time.Second, "Scoreboard refresh interval")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewConsole(os.Stderr, "client", level)

	w := world.NewState()
	sess := client.NewSession(client.Config{
		Host:        host,
		Port:        port,
		PlayerName:  name,
		DialTimeout: 10 * time.Second,
	}, nil, log)

	if err := sess.Start(w); err != nil {
		return err
	}

	go readKeys(sess, log)

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		select {
		case err := <-sess.Done():
			return err
		case <-ticker.C:
			printScoreboard(w.Snapshot(), sess)
		}
	}
}

// readKeys turns stdin lines into direction commands. Commands are
// best-effort; a dropped one is not worth reporting beyond debug logs.
func readKeys(sess *client.Session, log logger.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		key := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if key == "q" {
			_ = sess.Close()
			return
		}

		dir, ok := keyToDirection[key]
		if !ok {
			continue
		}

		if err := sess.SendMove(dir); err != nil {
			log.Debug("move rejected", logger.Field{Key: "error", Value: err})
		}
	}
}

func printScoreboard(snap world.Snapshot, sess *client.Session) {
	header := color.New(color.FgCyan, color.Bold)
	mine := color.New(color.FgGreen, color.Bold)

	myID, _ := sess.ClientID()

	sort.Slice(snap.Snakes, func(i, j int) bool {
		return snap.Snakes[i].Score > snap.Snakes[j].Score
	})

	header.Printf("-- world %dx%d, %d snakes, %d power-ups --\n",
		snap.Width, snap.Height, len(snap.Snakes), len(snap.PowerUps))

	for _, sn := range snap.Snakes {
		line := fmt.Sprintf("  %-16s %4d", sn.Name, sn.Score)
		if sn.SnakeId == myID {
			mine.Println(line + "  (you)")
		} else {
			fmt.Println(line)
		}
	}
}
