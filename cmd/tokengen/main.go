// Command tokengen mints an admin bearer token for the clear and rescue endpoints.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/skainet/concentration-map/internal/config"
	"github.com/skainet/concentration-map/internal/middleware"
)

func main() {
	_ = godotenv.Load(".env")

	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	token, err := middleware.IssueToken(config.Load().JWTSecret, *subject, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
