// Command issue-token signs an access token for local development against a
// running ledger. Production tokens come from the identity service.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wanderly/travel-agency-backend/internal/config"
	"github.com/wanderly/travel-agency-backend/pkg/jwt"
)

func main() {
	actor := flag.String("actor", "", "actor id (random when empty)")
	email := flag.String("email", "dev@example.com", "email claim")
	roles := flag.String("roles", "staff", "comma separated roles: customer, agent, staff, admin")
	agent := flag.String("agent", "", "agent id claim (agents only)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	actorID := uuid.New()
	if *actor != "" {
		if actorID, err = uuid.Parse(*actor); err != nil {
			log.Fatalf("Invalid actor id: %v", err)
		}
	}

	var agentID *uuid.UUID
	if *agent != "" {
		id, err := uuid.Parse(*agent)
		if err != nil {
			log.Fatalf("Invalid agent id: %v", err)
		}
		agentID = &id
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, *ttl).
		GenerateAccessToken(actorID, *email, roleList, agentID)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Printf("actor_id: %s\n", actorID)
	fmt.Printf("Authorization: Bearer %s\n", token)
}
