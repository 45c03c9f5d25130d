package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chamindu77/SFBS-Backend/internal/calendar"
)

type App struct {
	Env string `envconfig:"ENV" default:"dev"`

	// Network
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":50051"`

	// JWT
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin int    `envconfig:"JWT_EXPIRE_MIN" default:"60"`

	// Redis for the distributed admission lock; empty → in-process lock.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"10s"`

	// RabbitMQ for booking.* events; empty → notifications are only logged.
	RabbitURL       string `envconfig:"RABBIT_URL"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`
	NotifyQueue     string `envconfig:"NOTIFY_QUEUE" default:"booking.notification.q"`

	// SMTP used by the notification worker.
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"no-reply@sfbs.local"`

	// Telegram staff channel.
	TelegramBotToken    string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramStaffChatID int64  `envconfig:"TELEGRAM_STAFF_CHAT_ID"`

	// Receipts and QR codes.
	UploadDir     string `envconfig:"UPLOAD_DIR" default:"uploads"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080/uploads"`

	// Slot catalog
	SlotDayStart string `envconfig:"SLOT_DAY_START" default:"08:00"`
	SlotDayEnd   string `envconfig:"SLOT_DAY_END" default:"18:00"`
	SlotMinutes  int    `envconfig:"SLOT_MINUTES" default:"60"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads an optional .env file and then the process environment.
func Load() (App, error) {
	_ = godotenv.Load(".env")
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, fmt.Errorf("load app config: %w", err)
	}
	return c, nil
}

// Catalog builds the slot catalog described by the SLOT_* settings.
func (a App) Catalog() (calendar.Catalog, error) {
	return calendar.NewCatalog(a.SlotDayStart, a.SlotDayEnd, time.Duration(a.SlotMinutes)*time.Minute)
}

func (a App) JWTTTL() time.Duration {
	return time.Duration(a.JWTExpireMin) * time.Minute
}
