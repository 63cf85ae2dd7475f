// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her biri tek bir concern'ü temsil eder.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Media    MediaConfig
	RTC      RTCConfig
	Limits   LimitsConfig
	AI       AIConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// Addr, host:port formatında dinleme adresini döner.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/amora.db)
}

// JWTConfig, JWT doğrulama ayarları.
// Token üretimi dış auth servisindedir — burada sadece doğrulama secret'ı.
type JWTConfig struct {
	Secret string // İmza anahtarı — GİZLİ TUTULMALI
}

// MediaConfig, mesaj media'larının URL çözümü.
type MediaConfig struct {
	BaseURL string // media file_path'lerinin önüne eklenen prefix
}

// RTCConfig, arama sinyalleşmesinin istemciye verdiği ICE ayarları.
type RTCConfig struct {
	ICEServers       []string // STUN/TURN URL'leri
	HeartbeatTimeout int      // Saniye — bu süre heartbeat gelmezse arama failed
}

// LimitsConfig, mesaj spam koruması.
type LimitsConfig struct {
	MessagesPerWindow int // Pencere başına mesaj (ör: 5)
	WindowSeconds     int
	CooldownSeconds   int
}

// AIConfig, yanıt önerisi sağlayıcısı. URL boşsa özellik kapalıdır.
type AIConfig struct {
	BaseURL string
	APIKey  string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler; production'da dosya olmaz,
// gerçek env variable'lar kullanılır.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	heartbeatTimeout, err := intEnv("RTC_HEARTBEAT_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	msgPerWindow, err := intEnv("LIMIT_MESSAGES_PER_WINDOW", 5)
	if err != nil {
		return nil, err
	}
	windowSec, err := intEnv("LIMIT_WINDOW_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	cooldownSec, err := intEnv("LIMIT_COOLDOWN_SECONDS", 15)
	if err != nil {
		return nil, err
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/amora.db"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
		},
		Media: MediaConfig{
			BaseURL: getEnv("MEDIA_BASE_URL", ""),
		},
		RTC: RTCConfig{
			ICEServers:       splitEnv("RTC_ICE_SERVERS", "stun:stun.l.google.com:19302"),
			HeartbeatTimeout: heartbeatTimeout,
		},
		Limits: LimitsConfig{
			MessagesPerWindow: msgPerWindow,
			WindowSeconds:     windowSec,
			CooldownSeconds:   cooldownSec,
		},
		AI: AIConfig{
			BaseURL: getEnv("AI_BASE_URL", ""),
			APIKey:  getEnv("AI_API_KEY", ""),
		},
	}
	return cfg, nil
}

// getEnv, environment variable okur; yoksa fallback döner.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// splitEnv, virgülle ayrılmış listeyi parse eder.
func splitEnv(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
