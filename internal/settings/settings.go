package settings

import (
	"bufio"
	"fmt"
	"log"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
)

var Settings *AppSettings

func NewSettings() *AppSettings {
	settings := AppSettings{
		Domain:           getEnvOrDefault("TREECI_DOMAIN", "localhost"),
		Port:             getEnvOrDefault("TREECI_PORT", ":8080"),
		SQLiteDatabase:   getEnvOrDefault("TREECI_DB_PATH", "file:.///db.sqlite"),
		ProjectsPath:     getEnvOrDefault("TREECI_PROJECTS_PATH", "projects.yaml"),
		WebhookKey:       os.Getenv("TREECI_WEBHOOK_KEY"),
		QueueRootURL:     getEnvOrDefault("TREECI_QUEUE_URL", "https://queue.taskcluster.net"),
		QueueClientID:    os.Getenv("TREECI_QUEUE_CLIENT_ID"),
		QueueAccessToken: os.Getenv("TREECI_QUEUE_ACCESS_TOKEN"),
		PollInterval:     getEnvDurationOrDefault("TREECI_POLL_INTERVAL", time.Minute),
		QueueSize:        8,
	}
	if !strings.HasPrefix(settings.Port, ":") {
		settings.Port = ":" + settings.Port
	}
	return &settings
}

func getEnvOrDefault(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid duration in %s: %v, using default", key, err)
		return defaultValue
	}
	return d
}

type AppSettings struct {
	Domain           string
	Port             string
	SQLiteDatabase   string
	ProjectsPath     string
	WebhookKey       string
	QueueRootURL     string
	QueueClientID    string
	QueueAccessToken string
	PollInterval     time.Duration
	QueueSize        int64
}

func (as *AppSettings) BaseURL() string {
	if as.Domain == "localhost" {
		return fmt.Sprintf("http://%s%s", as.Domain, as.Port)
	} else {
		return fmt.Sprintf("https://%s", as.Domain)
	}
}

func (as *AppSettings) SQLiteDbString(readonly bool) string {
	params := make(url.Values)
	params.Add("_journal_mode", "WAL")
	params.Add("_busy_timeout", "5000")
	params.Add("_synchronous", "NORMAL")
	params.Add("_cache_size", "-20000")
	params.Add("_foreign_keys", "ON")
	if readonly {
		params.Add("mode", "ro")
	} else {
		params.Add("_txlock", "IMMEDIATE")
		params.Add("mode", "rwc")
	}

	return as.SQLiteDatabase + "?" + params.Encode()
}

func ReadDotenv(path string) {
	re := regexp.MustCompile(`^[^0-9][A-Z0-9_]+=.+$`)
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) > 0 && line[0] != '#' && re.Match(line) {
			split := strings.Split(string(line), "=")
			name := strings.TrimSpace(split[0])
			value := strings.TrimSpace(split[1])
			value = strings.Trim(value, `"`)
			os.Setenv(name, value)
		}
	}
}
