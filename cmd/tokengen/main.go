// Package main provides a CLI tool for minting test session tokens for the
// LGIS API. These tokens use the dev signing key and will NOT work against a
// production deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "github.com/Vumbi2018/lgis-sub001/internal/jwt_token"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	// Default values matching config.go
	defaultIssuer   = "https://lgis.local"
	defaultAudience = "lgis-api"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	sessionCmd := flag.NewFlagSet("session", flag.ExitOnError)

	// Session token flags
	sessionUserID := sessionCmd.String("user-id", "", "User ID. Generated if empty.")
	sessionRole := sessionCmd.String("role", "officer", "Role tier: public, officer, manager or admin")
	sessionGrantID := sessionCmd.String("grant-id", "", "Break-glass grant ID to claim (optional)")
	sessionTTL := sessionCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	sessionKey := sessionCmd.String("signing-key", devSigningKey, "HMAC signing key")
	sessionJSON := sessionCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "session":
		sessionCmd.Parse(os.Args[2:])
		generateSessionToken(*sessionUserID, *sessionRole, *sessionGrantID, *sessionTTL, *sessionKey, *sessionJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate test session tokens for the LGIS API

WARNING: These tokens use the dev signing key and will NOT work in production.
         Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  session   Generate a session token (JWT)

Examples:
  # Officer session with a generated user id
  tokengen session

  # Manager session for a known user
  tokengen session -role manager -user-id "usr_42"

  # Officer session claiming an approved break-glass grant
  tokengen session -grant-id "bg_550e8400-e29b-41d4-a716-446655440000"

  # Custom TTL, JSON output
  tokengen session -ttl 1h -json

Policy administration does not use JWTs: pass the ADMIN_TOKEN value in the
X-Admin-Token header instead.

Use "tokengen <command> -h" for more information about a command.`)
}

func generateSessionToken(userID, role, grantID string, ttl time.Duration, signingKey string, jsonOutput bool) {
	if userID == "" {
		userID = "usr_" + uuid.NewString()
	}

	svc := jwttoken.NewJWTService(signingKey, defaultIssuer, defaultAudience, ttl)

	token, err := svc.GenerateSessionToken(userID, role, grantID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		output := tokenOutput{
			Token:     token,
			Type:      "session_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"user_id":  userID,
				"role":     role,
				"grant_id": grantID,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		}
		printJSON(output)
		return
	}

	fmt.Println("Session Token (JWT)")
	fmt.Println("===================")
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Printf("User ID:    %s\n", userID)
	fmt.Printf("Role:       %s\n", role)
	if grantID != "" {
		fmt.Printf("Grant ID:   %s\n", grantID)
	}
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/access/resolve")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
