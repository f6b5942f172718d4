package storage

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Drivers selectable through STORE_DRIVER.
const (
	DriverMinio = "minio"
	DriverS3    = "s3"
)

// Config holds object store connection parameters. It is passed by value
// and never changes after startup.
type Config struct {
	Endpoint  string // host name or IP literal, no scheme or port
	Port      int
	UseSSL    bool
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Driver    string // minio or s3
	// ScratchDir is where staged uploads are written. Empty means the OS temp dir.
	ScratchDir string

	// portErr records an unparsable MINIO_PORT for Validate.
	portErr error
}

// FromEnv loads configuration from environment variables.
func FromEnv() Config {
	port, portErr := getEnvInt("MINIO_PORT", 9000)
	return Config{
		Endpoint:   os.Getenv("MINIO_ENDPOINT"),
		Port:       port,
		portErr:    portErr,
		UseSSL:     os.Getenv("MINIO_USE_SSL") == "true",
		AccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		Bucket:     getEnv("MINIO_BUCKET_NAME", "sts-echarts"),
		Region:     getEnv("MINIO_REGION", "us-east-1"),
		Driver:     getEnv("STORE_DRIVER", DriverMinio),
		ScratchDir: os.Getenv("CHART_SCRATCH_DIR"),
	}
}

// Configured reports whether endpoint, access key and secret key are all set.
func (c Config) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Validate checks a configured Config for values the clients would reject
// later with less helpful errors.
func (c Config) Validate() error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if ip := net.ParseIP(c.host()); ip == nil {
		if strings.Contains(c.Endpoint, "://") || strings.ContainsAny(c.Endpoint, "/:[]") {
			return fmt.Errorf("MINIO_ENDPOINT must be a bare host name or IP, got %q", c.Endpoint)
		}
		if _, err := idna.Lookup.ToASCII(c.Endpoint); err != nil {
			return fmt.Errorf("MINIO_ENDPOINT %q: %w", c.Endpoint, err)
		}
	}
	if c.portErr != nil {
		return fmt.Errorf("MINIO_PORT: %w", c.portErr)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("MINIO_PORT %d out of range", c.Port)
	}
	if c.Bucket == "" {
		return fmt.Errorf("MINIO_BUCKET_NAME must not be empty")
	}
	switch c.Driver {
	case DriverMinio, DriverS3:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Driver)
	}
	return nil
}

// Scheme is http or https depending on UseSSL.
func (c Config) Scheme() string {
	if c.UseSSL {
		return "https"
	}
	return "http"
}

// host is Endpoint without the brackets of an IPv6 literal.
func (c Config) host() string {
	return strings.TrimSuffix(strings.TrimPrefix(c.Endpoint, "["), "]")
}

// HostPort is the endpoint with its port, as dialed by the clients. IPv6
// literals are bracketed.
func (c Config) HostPort() string {
	return net.JoinHostPort(c.host(), strconv.Itoa(c.Port))
}

// PublicURL is the address a stored object is served from.
func (c Config) PublicURL(key string) string {
	return fmt.Sprintf("%s://%s/%s/%s", c.Scheme(), c.HostPort(), c.Bucket, key)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}
