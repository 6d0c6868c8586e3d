package main

import (
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

const usage = `Usage: admin <command> [args]

Commands:
  chat-id <user_a> <user_b>   print the conversation id of two users
  history <user_a> <user_b>   print the stored messages of a conversation
  count <user_a> <user_b>     print how many messages a conversation holds
  tail                        follow stored messages published on Redis`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "chat-id" {
		a, b := pairArgs()
		fmt.Println(chathub.ConversationID(a, b))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "history":
		a, b := pairArgs()
		s := openStorage(ctx, cfg, false)
		if err := printHistory(ctx, os.Stdout, s, chathub.ConversationID(a, b)); err != nil {
			log.Fatalf("Error reading history: %v", err)
		}
	case "count":
		a, b := pairArgs()
		s := openStorage(ctx, cfg, false)
		n, err := s.CountMessages(ctx, chathub.ConversationID(a, b))
		if err != nil {
			log.Fatalf("Error counting messages: %v", err)
		}
		fmt.Println(n)
	case "tail":
		s := openStorage(ctx, cfg, true)
		if err := tail(ctx, os.Stdout, s); err != nil {
			log.Fatalf("Error following messages: %v", err)
		}
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func pairArgs() (string, string) {
	if len(os.Args) != 4 {
		fmt.Printf("Usage: admin %s <user_a> <user_b>\n", os.Args[1])
		os.Exit(1)
	}
	return os.Args[2], os.Args[3]
}

func openStorage(ctx context.Context, cfg *config.Config, withRedis bool) *storage.Service {
	db, err := storage.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if !withRedis {
		return storage.NewStorageService(db, nil) // No redis needed
	}
	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is not set")
	}
	rdb, err := storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return storage.NewStorageService(db, rdb)
}

func printHistory(ctx context.Context, w io.Writer, s storage.Storage, chatID string) error {
	messages, err := s.FindMessages(ctx, chatID)
	if err != nil {
		return err
	}
	for _, m := range messages {
		fmt.Fprintln(w, formatMessage(m))
	}
	return nil
}

func tail(ctx context.Context, w io.Writer, s *storage.Service) error {
	pubsub := s.SubscribeToAllChats(ctx)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var m models.Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				log.Printf("Error unmarshalling Redis message: %v", err)
				continue
			}
			fmt.Fprintln(w, formatMessage(m))
		}
	}
}

func formatMessage(m models.Message) string {
	return fmt.Sprintf("%s [%s] %s: %s", m.CreatedAt.Format("2006-01-02 15:04:05"), m.ChatID, m.User, m.Text)
}
