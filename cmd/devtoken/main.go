// Command devtoken mints a caller token for local testing, signed with the
// server's DONATIONPOOL_JWT_* settings.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "donationpool/internal/jwt_token"
	"donationpool/internal/platform/config"
	"donationpool/pkg/domain"
)

func main() {
	address := flag.String("address", "", "caller address (0x-prefixed, 20 bytes)")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to DONATIONPOOL_JWT_TTL)")
	flag.Parse()

	if err := run(*address, *ttl); err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
}

func run(address string, ttl time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	caller, err := domain.ParseAddress(address)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = cfg.JWT.TTL
	}
	token, err := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience).
		GenerateCallerToken(caller, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
