// Command devtoken prints a signed bearer token for local testing.
//
//	go run ./cmd/devtoken -sub emp-1 -roles employer
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"interviewcalendar/config"
	"interviewcalendar/internal/adapters/auth"
)

func main() {
	sub := flag.String("sub", "", "subject (user id)")
	email := flag.String("email", "", "email claim")
	roles := flag.String("roles", "candidate", "comma separated roles: employer, recruiter, candidate, admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if err := run(*sub, *email, *roles, *ttl); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(sub, email, roles string, ttl time.Duration) error {
	if sub == "" {
		return fmt.Errorf("-sub is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	var list []string
	for _, r := range strings.Split(roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			list = append(list, r)
		}
	}
	token, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer, ttl).Issue(sub, email, list)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
