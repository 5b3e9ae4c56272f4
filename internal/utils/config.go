package utils

import (
	"os"
	"time"

	"github.com/vaxwatch/vax-agent/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Auth struct {
		Mobile string `yaml:"mobile"` // Registered mobile number the OTP is texted to
		Secret string `yaml:"secret"` // Shared secret for the generate-OTP call

		OtpTimeout  time.Duration `yaml:"otp_timeout"`  // Max wait for an OTP per attempt
		MaxAttempts int           `yaml:"max_attempts"` // Full authenticate cycles per refresh
	} `yaml:"auth"`

	Booking struct {
		Pincode      string        `yaml:"pincode"`       // Target postal code
		Date         string        `yaml:"date"`          // DD-MM-YYYY, "tomorrow", or empty for the default rule
		AutoBook     bool          `yaml:"auto_book"`     // Submit the schedule call for the top candidate
		PollInterval time.Duration `yaml:"poll_interval"` // Sleep between polls
	} `yaml:"booking"`

	Requirements struct {
		VaccineType      string   `yaml:"vaccine_type"`      // ANY, COVISHIELD, COVAXIN, SPUTNIK
		MinAge           int      `yaml:"min_age"`           // 18 or 45
		DoseSeq          int      `yaml:"dose_seq"`          // 1 or 2
		FeeType          string   `yaml:"fee_type"`          // ANY, Free, Paid
		PreferredCenters []string `yaml:"preferred_centers"` // Ordered name fragments, best match first
	} `yaml:"requirements"`

	API struct {
		BaseURL string        `yaml:"base_url"` // Appointment API base URL
		Timeout time.Duration `yaml:"timeout"`  // Per-request HTTP timeout
	} `yaml:"api"`

	Retry struct {
		MaxAttempts int           `yaml:"max_attempts"` // Attempt bound per authenticated call
		BackoffBase time.Duration `yaml:"backoff_base"` // Backoff unit (4^attempt units between retries)
	} `yaml:"retry"`

	OtpServer struct {
		Port    int    `yaml:"port"`     // Webhook listen port
		AuthKey string `yaml:"auth_key"` // Shared secret the SMS forwarder must present
	} `yaml:"otp_server"`

	OtpMqtt struct {
		Enabled       bool   `yaml:"enabled"`        // Enable the MQTT OTP source
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID (a UUID suffix is appended)
		Topic         string `yaml:"topic"`          // Topic the SMS forwarder publishes to
		QOS           int    `yaml:"qos"`            // MQTT QoS level
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate, empty for plain tcp
	} `yaml:"otp_mqtt"`

	Notifications struct {
		Telegram struct {
			APIToken string `yaml:"api_token"` // Bot token, empty disables notifications
			ChatID   string `yaml:"chat_id"`   // Destination chat
		} `yaml:"telegram"`
	} `yaml:"notifications"`

	Security struct {
		TokenFile   string        `yaml:"token_file"`    // Path to the persisted bearer token
		AESKeyFile  string        `yaml:"aes_key_file"`  // Path to the AES key for the token file
		TokenMaxAge time.Duration `yaml:"token_max_age"` // Freshness window for a persisted token
	} `yaml:"security"`

	Debug bool `yaml:"debug"` // Verbose logs, no quiet-hours gate
}

// LoadConfig loads the YAML configuration from the specified file and applies
// environment overrides for the secrets, so they can stay out of the file.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("VAX_AUTH_MOBILE"); v != "" {
		config.Auth.Mobile = v
	}
	if v := os.Getenv("VAX_AUTH_SECRET"); v != "" {
		config.Auth.Secret = v
	}
	if v := os.Getenv("VAX_OTP_AUTH_KEY"); v != "" {
		config.OtpServer.AuthKey = v
	}
	if v := os.Getenv("VAX_TELEGRAM_TOKEN"); v != "" {
		config.Notifications.Telegram.APIToken = v
	}
	if os.Getenv("DEBUG") != "" {
		config.Debug = true
	}

	return &config, nil
}
