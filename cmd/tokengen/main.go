// Package main issues API tokens signed with the server's token key.
//
// There is no account system: a token's subject is the user ID whose data it
// may touch. Run this on the server host, then hand the token to the client
// with `moodtrail login`.
//
// Usage:
//
//	go run ./cmd/tokengen --new
//	go run ./cmd/tokengen --user usr-abc123 --duration 24h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/moodtrail/moodtrail/internal/auth"
	"github.com/moodtrail/moodtrail/internal/id"
)

var (
	userID   = flag.String("user", "", "User ID to issue the token for")
	newUser  = flag.Bool("new", false, "Mint a fresh user ID")
	keyPath  = flag.String("key", "", "Token key path (default: $DATA_PATH/token.key)")
	duration = flag.Duration("duration", 720*time.Hour, "Token lifetime")
)

func main() {
	flag.Parse()

	subject := *userID
	if *newUser {
		subject = id.MustGenerate(id.PrefixUser)
	}
	if subject == "" {
		log.Fatal("one of --user or --new is required")
	}

	path := *keyPath
	if path == "" {
		path = os.Getenv("TOKEN_KEY_PATH")
	}
	if path == "" {
		dataPath := os.Getenv("DATA_PATH")
		if dataPath == "" {
			dataPath = os.ExpandEnv("$HOME/.moodtrail/data")
		}
		path = filepath.Join(dataPath, "token.key")
	}

	key, err := auth.LoadOrGenerateKey(path)
	if err != nil {
		log.Fatalf("Failed to load token key: %v", err)
	}
	tokens, err := auth.NewTokenService(key, *duration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	token, err := tokens.Issue(subject)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "user:    %s\nexpires: %s\n", subject, time.Now().Add(*duration).Format(time.RFC3339))
	fmt.Println(token)
}
