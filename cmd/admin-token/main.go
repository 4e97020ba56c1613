// Command admin-token signs an admin session token with AUTH_SECRET, for use
// when the school identity provider is not reachable (local development,
// emergency access).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"fooddrive/internal/auth"
	"fooddrive/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	subject := flag.String("subject", "", "who the token is issued to (e.g. an email address)")
	ttl := flag.Duration("ttl", cfg.SessionTTL, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "usage: admin-token -subject coordinator@example.org [-ttl 12h]")
		os.Exit(2)
	}
	if err := cfg.ValidateAuth(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	token, expires, err := auth.New(cfg.AuthSecret, cfg.AuthIssuer, *ttl).Issue(*subject)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format("2006-01-02 15:04 MST"))
	fmt.Println(token)
}
