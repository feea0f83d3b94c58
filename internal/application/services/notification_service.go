package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careconnect/booking-backend/internal/domain/entities"
	"github.com/careconnect/booking-backend/internal/infrastructure/notifications"
)

// DefaultTemplateBodies are the freeform fallback bodies seeded for each
// notification type. Placeholder names must stay within renderTemplate's
// replacement set; the seed script reads these so the two cannot drift.
var DefaultTemplateBodies = map[entities.NotificationType]string{
	entities.NotificationBookingConfirmation: "Hi {{patient_name}}, your {{service_name}} appointment with {{provider_name}} " +
		"is booked for {{scheduled_date}} at {{scheduled_time}}." +
		"{{#if calendar_link}} Add it to your calendar: {{calendar_link}}{{/if}}",
	entities.NotificationCancellation: "Hi {{patient_name}}, your {{service_name}} appointment on {{scheduled_date}} " +
		"at {{scheduled_time}} has been cancelled.",
	entities.NotificationReminder24h: "Hi {{patient_name}}, a reminder that your {{service_name}} appointment with " +
		"{{provider_name}} is tomorrow at {{scheduled_time}}.",
	entities.NotificationReminder1h: "Hi {{patient_name}}, your {{service_name}} appointment at {{provider_address}} " +
		"starts at {{scheduled_time}}. See you soon!",
}

// NotificationService handles sending notifications
type NotificationService struct {
	db             *sqlx.DB
	whatsappSender *notifications.WhatsAppCloudSender
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *sqlx.DB, whatsappSender *notifications.WhatsAppCloudSender) *NotificationService {
	return &NotificationService{
		db:             db,
		whatsappSender: whatsappSender,
	}
}

// NotificationContext contains all data needed for notification rendering
type NotificationContext struct {
	AppointmentID   string
	PatientName     string
	PatientEmail    string
	PatientPhone    string
	ProviderName    string
	ProviderAddress string
	ServiceName     string
	ScheduledDate   string
	ScheduledTime   string
	CalendarLink    *string
	Notes           string
}

func notificationContextFor(appointment *entities.Appointment) *NotificationContext {
	scheduledDate := appointment.Date
	if day, err := time.Parse("2006-01-02", appointment.Date); err == nil {
		scheduledDate = day.Format("Monday, January 2, 2006")
	}
	return &NotificationContext{
		AppointmentID:   appointment.ID,
		PatientName:     appointment.PatientName,
		PatientEmail:    appointment.PatientEmail,
		PatientPhone:    appointment.PatientPhone,
		ProviderName:    appointment.ProviderName,
		ProviderAddress: appointment.ProviderAddress,
		ServiceName:     appointment.ServiceName,
		ScheduledDate:   scheduledDate,
		ScheduledTime:   fmt.Sprintf("%s %s", appointment.Time, appointment.Period),
		CalendarLink:    appointment.CalendarLink,
		Notes:           appointment.Notes,
	}
}

// SendBookingConfirmation sends a booking confirmation notification
func (n *NotificationService) SendBookingConfirmation(ctx context.Context, appointment *entities.Appointment) error {
	prefs, err := n.getNotificationPreferences(ctx, appointment.PatientPhone)
	if err != nil {
		// No stored preferences, fall back to defaults (WhatsApp enabled)
		prefs = &entities.NotificationPreference{
			Phone:           &appointment.PatientPhone,
			Email:           &appointment.PatientEmail,
			WhatsAppEnabled: true,
			EmailEnabled:    true,
		}
	}

	notifCtx := notificationContextFor(appointment)

	if prefs.WhatsAppEnabled && prefs.Phone != nil && *prefs.Phone != "" {
		if err := n.sendWhatsAppNotification(ctx, entities.NotificationBookingConfirmation, notifCtx); err != nil {
			return fmt.Errorf("failed to send WhatsApp confirmation: %w", err)
		}
	}

	return nil
}

// SendCancellationNotice sends a cancellation notice
func (n *NotificationService) SendCancellationNotice(ctx context.Context, appointment *entities.Appointment) error {
	prefs, err := n.getNotificationPreferences(ctx, appointment.PatientPhone)
	if err != nil {
		prefs = &entities.NotificationPreference{
			Phone:           &appointment.PatientPhone,
			WhatsAppEnabled: true,
		}
	}

	notifCtx := notificationContextFor(appointment)

	if prefs.WhatsAppEnabled && prefs.Phone != nil && *prefs.Phone != "" {
		if err := n.sendWhatsAppNotification(ctx, entities.NotificationCancellation, notifCtx); err != nil {
			return fmt.Errorf("failed to send WhatsApp cancellation: %w", err)
		}
	}

	return nil
}

// SendReminder sends a reminder notification
func (n *NotificationService) SendReminder(ctx context.Context, appointment *entities.Appointment, reminderType entities.NotificationType) error {
	prefs, err := n.getNotificationPreferences(ctx, appointment.PatientPhone)
	if err != nil {
		prefs = &entities.NotificationPreference{
			Phone:              &appointment.PatientPhone,
			WhatsAppEnabled:    true,
			Reminder24hEnabled: true,
			Reminder1hEnabled:  true,
		}
	}

	if reminderType == entities.NotificationReminder24h && !prefs.Reminder24hEnabled {
		return nil
	}
	if reminderType == entities.NotificationReminder1h && !prefs.Reminder1hEnabled {
		return nil
	}

	notifCtx := notificationContextFor(appointment)

	if prefs.WhatsAppEnabled && prefs.Phone != nil && *prefs.Phone != "" {
		if err := n.sendWhatsAppNotification(ctx, reminderType, notifCtx); err != nil {
			return fmt.Errorf("failed to send WhatsApp reminder: %w", err)
		}
	}

	return nil
}

// sendWhatsAppNotification sends a WhatsApp notification
func (n *NotificationService) sendWhatsAppNotification(ctx context.Context, notifType entities.NotificationType, notifCtx *NotificationContext) error {
	template, err := n.getTemplate(ctx, entities.ChannelWhatsApp, notifType)
	if err != nil {
		return fmt.Errorf("failed to get template: %w", err)
	}

	body := n.renderTemplate(template.Body, notifCtx)

	notification := &entities.AppointmentNotification{
		ID:               uuid.New().String(),
		AppointmentID:    notifCtx.AppointmentID,
		NotificationType: notifType,
		Channel:          entities.ChannelWhatsApp,
		Recipient:        notifCtx.PatientPhone,
		Status:           entities.NotificationStatusPending,
		RetryCount:       0,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := n.createNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification record: %w", err)
	}

	var messageID string
	var sendErr error

	if template.WhatsAppTemplateName != nil && *template.WhatsAppTemplateName != "" {
		// Use approved template
		parameters := n.extractTemplateParameters(notifCtx)
		messageID, sendErr = n.whatsappSender.SendTemplate(
			notifCtx.PatientPhone,
			*template.WhatsAppTemplateName,
			template.WhatsAppTemplateLang,
			parameters,
		)
	} else {
		// Use freeform text (for testing or if template not approved)
		messageID, sendErr = n.whatsappSender.SendText(notifCtx.PatientPhone, body)
	}

	now := time.Now()
	if sendErr != nil {
		errMsg := sendErr.Error()
		notification.Status = entities.NotificationStatusFailed
		notification.FailedAt = &now
		notification.ErrorMessage = &errMsg
		notification.UpdatedAt = now
	} else {
		notification.Status = entities.NotificationStatusSent
		notification.MessageID = &messageID
		notification.SentAt = &now
		notification.UpdatedAt = now
	}

	if err := n.updateNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	return sendErr
}

// renderTemplate replaces placeholders in template
func (n *NotificationService) renderTemplate(template string, ctx *NotificationContext) string {
	replacements := map[string]string{
		"{{patient_name}}":     ctx.PatientName,
		"{{provider_name}}":    ctx.ProviderName,
		"{{provider_address}}": ctx.ProviderAddress,
		"{{service_name}}":     ctx.ServiceName,
		"{{scheduled_date}}":   ctx.ScheduledDate,
		"{{scheduled_time}}":   ctx.ScheduledTime,
		"{{notes}}":            ctx.Notes,
	}

	// Handle calendar link conditionally
	if ctx.CalendarLink != nil && *ctx.CalendarLink != "" {
		replacements["{{calendar_link}}"] = *ctx.CalendarLink
		template = strings.ReplaceAll(template, "{{#if calendar_link}}", "")
		template = strings.ReplaceAll(template, "{{/if}}", "")
	} else {
		// Remove conditional section
		start := strings.Index(template, "{{#if calendar_link}}")
		if start >= 0 {
			end := strings.Index(template[start:], "{{/if}}")
			if end >= 0 {
				template = template[:start] + template[start+end+7:]
			}
		}
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// extractTemplateParameters extracts parameters for WhatsApp template
func (n *NotificationService) extractTemplateParameters(ctx *NotificationContext) []string {
	params := []string{
		ctx.ScheduledDate,
		ctx.ScheduledTime,
		ctx.ProviderName,
	}

	if ctx.ProviderAddress != "" {
		params = append(params, ctx.ProviderAddress)
	}

	if ctx.CalendarLink != nil && *ctx.CalendarLink != "" {
		params = append(params, *ctx.CalendarLink)
	}

	return params
}

// Database operations
func (n *NotificationService) getNotificationPreferences(ctx context.Context, phone string) (*entities.NotificationPreference, error) {
	var prefs entities.NotificationPreference
	query := `SELECT * FROM notification_preferences WHERE phone = $1 LIMIT 1`
	err := n.db.GetContext(ctx, &prefs, query, phone)
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (n *NotificationService) getTemplate(ctx context.Context, channel entities.NotificationChannel, notifType entities.NotificationType) (*entities.NotificationTemplate, error) {
	var template entities.NotificationTemplate
	query := `SELECT * FROM notification_templates WHERE channel = $1 AND template_type = $2 AND is_active = true LIMIT 1`
	err := n.db.GetContext(ctx, &template, query, string(channel), string(notifType))
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (n *NotificationService) createNotification(ctx context.Context, notification *entities.AppointmentNotification) error {
	metadata, _ := json.Marshal(notification.Metadata)
	query := `
		INSERT INTO appointment_notifications
		(id, appointment_id, notification_type, channel, recipient, status, message_id,
		 sent_at, failed_at, error_message, retry_count, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := n.db.ExecContext(ctx, query,
		notification.ID, notification.AppointmentID, notification.NotificationType, notification.Channel,
		notification.Recipient, notification.Status, notification.MessageID, notification.SentAt,
		notification.FailedAt, notification.ErrorMessage, notification.RetryCount, metadata,
		notification.CreatedAt, notification.UpdatedAt,
	)
	return err
}

func (n *NotificationService) updateNotification(ctx context.Context, notification *entities.AppointmentNotification) error {
	metadata, _ := json.Marshal(notification.Metadata)
	query := `
		UPDATE appointment_notifications
		SET status = $1, message_id = $2, sent_at = $3, failed_at = $4, error_message = $5,
		    retry_count = $6, metadata = $7, updated_at = $8
		WHERE id = $9
	`
	_, err := n.db.ExecContext(ctx, query,
		notification.Status, notification.MessageID, notification.SentAt, notification.FailedAt,
		notification.ErrorMessage, notification.RetryCount, metadata, notification.UpdatedAt, notification.ID,
	)
	return err
}
