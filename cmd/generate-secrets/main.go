package main

import (
	"fmt"
	"log"

	"github.com/wanderly/travel-agency-backend/internal/utils"
)

func main() {
	jwtSecret, webhookSecret, err := utils.GenerateServiceSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", jwtSecret)
	fmt.Printf("PAYMENT_WEBHOOK_SECRET=%s\n", webhookSecret)
	fmt.Println()
	fmt.Println("JWT_SECRET must match the identity service's signing key.")
	fmt.Println("Share PAYMENT_WEBHOOK_SECRET with the payment gateway adapter only.")
}
