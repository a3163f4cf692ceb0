package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/BTreeMap/WellbeingBot/internal/api"
	"github.com/BTreeMap/WellbeingBot/internal/flow"
	"github.com/BTreeMap/WellbeingBot/internal/genai"
	"github.com/BTreeMap/WellbeingBot/internal/lockfile"
	"github.com/BTreeMap/WellbeingBot/internal/messaging"
	"github.com/BTreeMap/WellbeingBot/internal/store"
	"github.com/BTreeMap/WellbeingBot/internal/twiliowhatsapp"
	"github.com/BTreeMap/WellbeingBot/internal/util"
	"github.com/BTreeMap/WellbeingBot/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for WellbeingBot state data
	DefaultStateDir = "/var/lib/wellbot"
	// DefaultAppDBFileName is the default SQLite database filename
	DefaultAppDBFileName = "wellbot.db"
	// DefaultWhatsAppDBFileName is the default whatsmeow device store filename
	DefaultWhatsAppDBFileName = "whatsmeow.db"
)

// Config holds the resolved configuration.
type Config struct {
	StateDir         string
	DatabaseDSN      string
	WhatsAppDBDSN    string
	Transport        string
	QROutput         string
	NumericCode      bool
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioWebhookURL string
	OpenAIKey        string
	APIAddr          string
	Pomodoro         time.Duration
	ExpectationTTL   time.Duration
	Workers          int
	Debug            bool
}

var logLevel = new(slog.LevelVar)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	config, err := parseCommandLineFlags(flag.CommandLine, os.Args[1:], config)
	if err != nil {
		slog.Error("Failed to parse flags", "error", err)
		os.Exit(2)
	}
	if config.Debug {
		logLevel.Set(slog.LevelDebug)
	}
	if err := validateConfig(config); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	lock, err := lockfile.AcquireLock(config.StateDir)
	if err != nil {
		slog.Error("Failed to lock state directory", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeOpts := buildStoreOptions(config)
	waOpts := buildWhatsAppOptions(config)
	twilioOpts := buildTwilioOptions(config)
	genaiOpts := buildGenAIOptions(config)
	apiOpts := buildAPIOptions(config)

	slog.Info("Bootstrapping WellbeingBot", "transport", config.Transport, "state_dir", config.StateDir, "api_addr", config.APIAddr)
	if err := api.Run(ctx, storeOpts, waOpts, twilioOpts, genaiOpts, apiOpts); err != nil {
		slog.Error("WellbeingBot failed to run", "error", err)
		lock.Release()
		os.Exit(1)
	}
	slog.Info("WellbeingBot exited successfully")
}

// initializeLogger installs a text handler on stdout; the level is raised to debug by --debug.
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	config := Config{
		StateDir:         os.Getenv("WELLBOT_STATE_DIR"),
		DatabaseDSN:      os.Getenv("DATABASE_URL"),
		WhatsAppDBDSN:    os.Getenv("WHATSAPP_DB_DSN"),
		Transport:        os.Getenv("WELLBOT_TRANSPORT"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_FROM_NUMBER"),
		TwilioWebhookURL: os.Getenv("TWILIO_WEBHOOK_URL"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		APIAddr:          os.Getenv("API_ADDR"),
		Pomodoro:         util.ParseDurationEnv("POMODORO_DURATION", flow.DefaultPomodoroDuration),
		ExpectationTTL:   util.ParseDurationEnv("EXPECTATION_TTL", 0),
		Workers:          util.ParseIntEnv("WELLBOT_WORKERS", messaging.DefaultShardCount),
		Debug:            util.ParseBoolEnv("WELLBOT_DEBUG", false),
	}
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}
	if config.Transport == "" {
		config.Transport = api.TransportWhatsApp
	}
	if config.APIAddr == "" {
		config.APIAddr = api.DefaultServerAddress
	}

	slog.Debug("environment variables loaded",
		"WELLBOT_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseDSN != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDBDSN != "",
		"WELLBOT_TRANSPORT", config.Transport,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr)
	return config
}

// parseCommandLineFlags applies flag overrides on top of config and fills the
// DSN defaults that depend on the final state directory.
func parseCommandLineFlags(fs *flag.FlagSet, args []string, config Config) (Config, error) {
	fs.StringVar(&config.StateDir, "state-dir", config.StateDir, "state directory for WellbeingBot data (overrides $WELLBOT_STATE_DIR)")
	fs.StringVar(&config.DatabaseDSN, "db-dsn", config.DatabaseDSN, "postgres DSN or sqlite path (overrides $DATABASE_URL)")
	fs.StringVar(&config.WhatsAppDBDSN, "whatsapp-db-dsn", config.WhatsAppDBDSN, "whatsmeow device store DSN (overrides $WHATSAPP_DB_DSN)")
	fs.StringVar(&config.Transport, "transport", config.Transport, "chat transport: whatsapp or twilio (overrides $WELLBOT_TRANSPORT)")
	fs.StringVar(&config.QROutput, "qr-output", config.QROutput, "path to write login QR code")
	fs.BoolVar(&config.NumericCode, "numeric-code", config.NumericCode, "use numeric login code instead of QR code")
	fs.StringVar(&config.TwilioAccountSID, "twilio-account-sid", config.TwilioAccountSID, "Twilio account SID (overrides $TWILIO_ACCOUNT_SID)")
	fs.StringVar(&config.TwilioAuthToken, "twilio-auth-token", config.TwilioAuthToken, "Twilio auth token (overrides $TWILIO_AUTH_TOKEN)")
	fs.StringVar(&config.TwilioFrom, "twilio-from", config.TwilioFrom, "Twilio WhatsApp sender, whatsapp:+... (overrides $TWILIO_FROM_NUMBER)")
	fs.StringVar(&config.TwilioWebhookURL, "twilio-webhook-url", config.TwilioWebhookURL, "public webhook URL for signature checks (overrides $TWILIO_WEBHOOK_URL)")
	fs.StringVar(&config.OpenAIKey, "openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)")
	fs.StringVar(&config.APIAddr, "api-addr", config.APIAddr, "API server address (overrides $API_ADDR)")
	fs.DurationVar(&config.Pomodoro, "pomodoro", config.Pomodoro, "Pomodoro reminder delay (overrides $POMODORO_DURATION)")
	fs.DurationVar(&config.ExpectationTTL, "expectation-ttl", config.ExpectationTTL, "expiry of pending questions, 0 for none (overrides $EXPECTATION_TTL)")
	fs.IntVar(&config.Workers, "workers", config.Workers, "inbound dispatch shards (overrides $WELLBOT_WORKERS)")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "enable debug logging (overrides $WELLBOT_DEBUG)")

	if err := fs.Parse(args); err != nil {
		return config, err
	}

	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultAppDBFileName)
	}
	if config.WhatsAppDBDSN == "" {
		config.WhatsAppDBDSN = "file:" + filepath.Join(config.StateDir, DefaultWhatsAppDBFileName) + "?_foreign_keys=on"
	}
	slog.Debug("flags parsed", "state_dir", config.StateDir, "transport", config.Transport, "workers", config.Workers)
	return config, nil
}

// validateConfig fails fast on a transport without its credentials.
func validateConfig(config Config) error {
	switch config.Transport {
	case api.TransportWhatsApp:
		return nil
	case api.TransportTwilio:
		if config.TwilioAccountSID == "" || config.TwilioAuthToken == "" || config.TwilioFrom == "" {
			return fmt.Errorf("twilio transport needs TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER")
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q (want %q or %q)", config.Transport, api.TransportWhatsApp, api.TransportTwilio)
	}
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(config Config) []store.Option {
	if store.DetectDSNType(config.DatabaseDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return []store.Option{store.WithPostgresDSN(config.DatabaseDSN)}
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", config.DatabaseDSN)
	return []store.Option{store.WithSQLiteDSN(config.DatabaseDSN)}
}

// buildWhatsAppOptions constructs WhatsApp configuration options
func buildWhatsAppOptions(config Config) []whatsapp.Option {
	var waOpts []whatsapp.Option
	if config.QROutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(config.QROutput))
	}
	if config.NumericCode {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	if config.WhatsAppDBDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(config.WhatsAppDBDSN))
	}
	return waOpts
}

// buildTwilioOptions constructs Twilio configuration options
func buildTwilioOptions(config Config) []twiliowhatsapp.Option {
	var opts []twiliowhatsapp.Option
	if config.TwilioAccountSID != "" {
		opts = append(opts, twiliowhatsapp.WithAccountSID(config.TwilioAccountSID))
	}
	if config.TwilioAuthToken != "" {
		opts = append(opts, twiliowhatsapp.WithAuthToken(config.TwilioAuthToken))
	}
	if config.TwilioFrom != "" {
		opts = append(opts, twiliowhatsapp.WithFromWhats(config.TwilioFrom))
	}
	return opts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(config Config) []genai.Option {
	var genaiOpts []genai.Option
	if config.OpenAIKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(config.OpenAIKey))
	}
	return genaiOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(config Config) []api.Option {
	apiOpts := []api.Option{
		api.WithAddr(config.APIAddr),
		api.WithTransport(config.Transport),
		api.WithPomodoroDuration(config.Pomodoro),
		api.WithExpectationTTL(config.ExpectationTTL),
		api.WithWorkers(config.Workers),
	}
	if config.TwilioWebhookURL != "" {
		apiOpts = append(apiOpts, api.WithTwilioWebhookURL(config.TwilioWebhookURL))
	}
	return apiOpts
}
