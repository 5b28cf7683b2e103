package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, int64(32<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 5, cfg.Upload.PreviewRows)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "Processed_Student_Data", cfg.Export.BaseName)
	assert.False(t, cfg.Export.CSVBOM)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
  read_timeout: 5s
upload:
  max_bytes: 2048
export:
  base_name: Class_Report
  csv_bom: true
`)
	t.Setenv("SPA_SERVER_PORT", "9100")
	t.Setenv("SPA_SESSION_TTL", "2h")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	// env wins over file
	assert.Equal(t, 9100, cfg.Server.Port)
	// file wins over defaults
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(2048), cfg.Upload.MaxBytes)
	assert.Equal(t, "Class_Report", cfg.Export.BaseName)
	assert.True(t, cfg.Export.CSVBOM)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	// untouched sections keep defaults
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
}

func TestLoadFrom_UploadLimitFromEnv(t *testing.T) {
	t.Setenv("SPA_UPLOAD_MAX_BYTES", "1048576")
	t.Setenv("SPA_SECURITY_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("SPA_SECURITY_RATE_LIMIT_RPS", "2.5")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 2.5, cfg.Security.RateLimit.RPS)
}

func TestLoadFrom_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad port", env: map[string]string{"SPA_SERVER_PORT": "70000"}},
		{name: "unparsable duration", env: map[string]string{"SPA_SESSION_TTL": "soon"}},
		{name: "zero upload limit", env: map[string]string{"SPA_UPLOAD_MAX_BYTES": "0"}},
		{name: "export name with separator", env: map[string]string{"SPA_EXPORT_BASE_NAME": "../out"}},
		{name: "unknown trace exporter", env: map[string]string{"SPA_TELEMETRY_TRACE_EXPORTER": "jaeger"}},
		{name: "malformed yaml", file: "server: [port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}
			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate_NormalizesLogging(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"console", "console"},
		{"BOTH", "both"},
		{"file", "file"},
		{"syslog", "console"},
		{"", "console"},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			cfg := Default()
			cfg.Logging.Output = tt.output
			cfg.Logging.Format = "text"
			cfg.Logging.FilePath = ""

			require.NoError(t, cfg.validate())
			assert.Equal(t, tt.want, cfg.Logging.Output)
			assert.Equal(t, "json", cfg.Logging.Format)
			assert.Equal(t, "logs/studentpulse.log", cfg.Logging.FilePath)
		})
	}
}

func TestConfig_Addr(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9090
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
}
