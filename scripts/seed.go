package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/careconnect/booking-backend/internal/application/services"
	"github.com/careconnect/booking-backend/internal/domain/entities"
	"github.com/careconnect/booking-backend/internal/infrastructure/clients/postgres"
	"github.com/careconnect/booking-backend/pkg/config"
)

// Seeds the notification tables with the default WhatsApp templates and a
// sample patient preference row so a fresh environment can send messages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := pgClient.DB()

	templateNames := map[entities.NotificationType]string{
		entities.NotificationBookingConfirmation: "WhatsApp booking confirmation",
		entities.NotificationCancellation:        "WhatsApp cancellation notice",
		entities.NotificationReminder24h:         "WhatsApp 24 hour reminder",
		entities.NotificationReminder1h:          "WhatsApp 1 hour reminder",
	}

	now := time.Now().UTC()
	for templateType, body := range services.DefaultTemplateBodies {
		_, err := db.ExecContext(ctx, `
			INSERT INTO notification_templates
				(id, name, channel, template_type, body, whatsapp_template_lang, is_active, created_at, updated_at)
			VALUES ($1, $2, 'whatsapp', $3, $4, 'en', true, $5, $5)
			ON CONFLICT (id) DO NOTHING
		`, "tmpl-whatsapp-"+string(templateType), templateNames[templateType], string(templateType), body, now)
		if err != nil {
			log.Fatalf("Failed to seed template %s: %v", templateType, err)
		}
		log.Printf("Seeded template: %s", templateNames[templateType])
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO notification_preferences
			(id, patient_id, phone, whatsapp_enabled, reminder_24h_enabled, reminder_1h_enabled, created_at, updated_at)
		VALUES ($1, 'patient-demo', '+15550100001', true, true, true, $2, $2)
		ON CONFLICT (id) DO NOTHING
	`, uuid.New().String(), now)
	if err != nil {
		log.Fatalf("Failed to seed notification preference: %v", err)
	}

	log.Println("Seed complete")
}
