package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"confreg/internal/mailer"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type FilesConfig struct {
	CertificateDir  string
	QRCodeDir       string
	CleanupMaxAge   time.Duration
	CleanupInterval time.Duration
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	maxOpen := cfg.GetInt("database.max_open_conns")
	if maxOpen == 0 {
		maxOpen = 10
	}
	maxIdle := cfg.GetInt("database.max_idle_conns")
	if maxIdle == 0 {
		maxIdle = 5
	}

	opts := &dbpg.Options{
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: time.Duration(cfg.GetInt("database.conn_max_lifetime_seconds")) * time.Second,
	}

	log.Info().Int("max_open_conns", maxOpen).Msg("DB pool configured")
	return masterDSN, nil, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	url := cfg.GetString("rabbit.url")
	if url == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url is required")
	}
	exchange := cfg.GetString("rabbit.exchange")
	if exchange == "" {
		exchange = "confreg.notifications"
	}
	queue := cfg.GetString("rabbit.queue")
	if queue == "" {
		queue = "confreg.notifications.mail"
	}
	return RabbitConfig{Url: url, Exchange: exchange, Queue: queue}, nil
}

func BuildMailerConfig(cfg *config.Config, log *zerolog.Logger) mailer.Config {
	mc := mailer.Config{
		From:     cfg.GetString("mailer.from"),
		Password: cfg.GetString("mailer.password"),
		Host:     cfg.GetString("mailer.host"),
		Port:     cfg.GetString("mailer.port"),
		Enabled:  cfg.GetBool("mailer.enabled"),
	}
	if mc.Enabled && (mc.From == "" || mc.Host == "") {
		log.Warn().Msg("mailer enabled but from/host missing, falling back to log-only mode")
		mc.Enabled = false
	}
	return mc
}

func BuildFilesConfig(cfg *config.Config, log *zerolog.Logger) FilesConfig {
	fc := FilesConfig{
		CertificateDir:  cfg.GetString("files.certificate_dir"),
		QRCodeDir:       cfg.GetString("files.qrcode_dir"),
		CleanupMaxAge:   time.Duration(cfg.GetInt("files.cleanup_max_age_days")) * 24 * time.Hour,
		CleanupInterval: time.Duration(cfg.GetInt("files.cleanup_interval_hours")) * time.Hour,
	}
	if fc.CertificateDir == "" {
		fc.CertificateDir = "certificates"
	}
	if fc.QRCodeDir == "" {
		fc.QRCodeDir = "qrcodes"
	}
	if fc.CleanupMaxAge == 0 {
		fc.CleanupMaxAge = 30 * 24 * time.Hour
	}
	if fc.CleanupInterval == 0 {
		fc.CleanupInterval = 24 * time.Hour
	}
	return fc
}
