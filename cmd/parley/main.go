// Command parley runs a terminal chat room client: one live room view
// over a websocket, with optional Redis history caching, a local status
// endpoint, and the notification actions behind slash commands.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/christopherjohns/parley/internal/client"
	"github.com/christopherjohns/parley/internal/config"
	"github.com/christopherjohns/parley/internal/message"
	"github.com/christopherjohns/parley/internal/notify"
	"github.com/christopherjohns/parley/internal/reaction"
	"github.com/christopherjohns/parley/internal/status"
	"github.com/christopherjohns/parley/internal/ui"
)

var (
	flagConfig     string
	flagServerURL  string
	flagRoom       string
	flagUsername   string
	flagStatusAddr string
	flagDebug      bool
)

func main() {
	root := &cobra.Command{
		Use:   "parley",
		Short: "Terminal client for parley chat rooms",
		RunE:  run,
	}
	root.Flags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	root.Flags().StringVar(&flagServerURL, "server-url", "", "chat server origin, e.g. wss://chat.example.com")
	root.Flags().StringVar(&flagRoom, "room", "", "room to join")
	root.Flags().StringVar(&flagUsername, "username", "", "display name")
	root.Flags().StringVar(&flagStatusAddr, "status-addr", "", "serve /healthz and /status on this address")
	root.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// current hands the status endpoint whichever room view is live.
type current struct {
	mu sync.Mutex
	c  *client.Client
}

func (s *current) set(c *client.Client) {
	s.mu.Lock()
	s.c = c
	s.mu.Unlock()
}

func (s *current) get() *client.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c
}

func (s *current) ConnState() string { return s.get().ConnState() }
func (s *current) MessageCount() int { return s.get().MessageCount() }
func (s *current) OnlineCount() int  { return s.get().OnlineCount() }

func run(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if flagDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Flags beat environment beats file; seed the env slots so Load's
	// override order does the merging.
	if flagServerURL != "" {
		os.Setenv("PARLEY_SERVER_URL", flagServerURL)
	}
	if flagRoom != "" {
		os.Setenv("PARLEY_ROOM", flagRoom)
	}
	if flagUsername != "" {
		os.Setenv("PARLEY_USERNAME", flagUsername)
	}
	if flagStatusAddr != "" {
		os.Setenv("PARLEY_STATUS_ADDR", flagStatusAddr)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := ui.NewTerminal(os.Stdout)

	var cache *message.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, history cache disabled")
		} else {
			cache = message.NewCache(rdb, cfg.CacheSize)
			log.Info().Str("addr", cfg.RedisAddr).Msg("history cache enabled")
		}
	}

	registry := client.NewRegistry(func(roomID string) *client.Client {
		roomCfg := cfg
		roomCfg.Room = roomID
		return client.New(client.Options{
			URL:         roomCfg.RoomURL(),
			RoomID:      roomID,
			Username:    cfg.Username,
			HistoryPage: cfg.HistoryPage,
			Cache:       cache,
		}, client.Views{
			Messages:  term,
			Presence:  term,
			Composer:  term,
			Reactions: term,
			Status:    term,
		})
	})
	defer registry.CloseAll()

	cur := &current{}
	cur.set(registry.Enter(ctx, cfg.Room))

	if cfg.StatusAddr != "" {
		srv := status.New(cfg.StatusAddr, cur)
		go func() {
			if err := srv.Run(); err != nil {
				log.Warn().Err(err).Msg("status server stopped")
			}
		}()
		defer func() {
			shCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shCtx)
		}()
		log.Info().Str("addr", cfg.StatusAddr).Msg("status endpoint up")
	}

	var notifier *notify.Client
	if cfg.NotifyURL != "" {
		notifier = notify.NewClient(cfg.NotifyURL, cfg.NotifyToken, term, term)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println("joined", cfg.Room, "- type a message, or /help for commands")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "/quit" {
				return nil
			}
			handleLine(ctx, line, cur, registry, notifier)
		}
	}
}

func handleLine(ctx context.Context, line string, cur *current, registry *client.Registry, notifier *notify.Client) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if !strings.HasPrefix(trimmed, "/") {
		c := cur.get()
		c.Composer().OnInputChanged(trimmed)
		if !c.Composer().Send(trimmed) {
			fmt.Println("not sent: connection is down")
		}
		return
	}

	fields := strings.Fields(trimmed)
	c := cur.get()
	switch fields[0] {
	case "/help":
		fmt.Println(`commands:
  /like <id>        react with a like
  /dislike <id>     react with a dislike
  /reply <id> <author>  reply to a message (/cancel to stop)
  /cancel           cancel the pending reply
  /users            refresh the online list
  /join <room>      switch rooms
  /read <id>        mark a notification read
  /read-all         mark all notifications read
  /delete <id>      delete a notification
  /quit             exit`)
	case "/like", "/dislike":
		if len(fields) < 2 {
			fmt.Println("usage:", fields[0], "<message-id>")
			return
		}
		kind := reaction.KindLike
		if fields[0] == "/dislike" {
			kind = reaction.KindDislike
		}
		if !c.Reactions().React(fields[1], kind) {
			fmt.Println("already reacted to", fields[1])
		}
	case "/reply":
		if len(fields) < 3 {
			fmt.Println("usage: /reply <message-id> <author>")
			return
		}
		c.Composer().SetReplyTarget(fields[1], fields[2])
	case "/cancel":
		c.Composer().ClearReplyTarget()
	case "/users":
		c.OnVisible()
	case "/join":
		if len(fields) < 2 {
			fmt.Println("usage: /join <room>")
			return
		}
		cur.set(registry.Switch(ctx, fields[1]))
		fmt.Println("joined", fields[1])
	case "/read":
		if notifier == nil {
			fmt.Println("notifications not configured")
			return
		}
		if len(fields) < 2 {
			fmt.Println("usage: /read <id>")
			return
		}
		notifier.MarkRead(ctx, fields[1])
	case "/read-all":
		if notifier == nil {
			fmt.Println("notifications not configured")
			return
		}
		notifier.MarkAllRead(ctx)
	case "/delete":
		if notifier == nil {
			fmt.Println("notifications not configured")
			return
		}
		if len(fields) < 2 {
			fmt.Println("usage: /delete <id>")
			return
		}
		notifier.Delete(ctx, fields[1])
	default:
		fmt.Println("unknown command", fields[0], "- try /help")
	}
}
