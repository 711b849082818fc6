package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/delivery-client/internal/constants"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
	"github.com/fivetwenty-io/delivery-client/pkg/cdaclient"
)

// userAgent is set by the root command from the build version.
var userAgent = "cda-cli/dev"

// SetUserAgent sets the User-Agent header the CLI sends.
func SetUserAgent(version string) {
	userAgent = "cda-cli/" + version
}

// createClient builds a session from the bound flags, environment and config file.
func createClient(cmd *cobra.Command) (cda.Client, error) {
	if viper.GetString("space") == "" {
		return nil, constants.ErrNoSpaceConfigured
	}

	token := viper.GetString("token")
	if token == "" {
		prompted, err := promptToken(cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}

		token = prompted
	}

	config := &cda.Config{
		SpaceID:       viper.GetString("space"),
		Environment:   viper.GetString("environment"),
		AccessToken:   token,
		APIEndpoint:   viper.GetString("api"),
		Preview:       viper.GetBool("preview"),
		DefaultLocale: viper.GetString("default-locale"),
		HTTPTimeout:   viper.GetDuration("timeout"),
		UserAgent:     userAgent,
	}

	if viper.GetBool("verbose") {
		config.Logger = newStderrLogger(cmd.ErrOrStderr())
		config.Debug = true
	}

	client, err := cdaclient.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func promptToken(stderr io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", constants.ErrNoTokenConfigured
	}

	_, _ = fmt.Fprint(stderr, "Access token: ")

	tokenBytes, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(stderr)

	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}

	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return "", constants.ErrNoTokenConfigured
	}

	return token, nil
}

// stderrLogger prints log lines as "time LEVEL msg key=value ...".
type stderrLogger struct {
	mu  sync.Mutex
	out io.Writer
}

func newStderrLogger(out io.Writer) *stderrLogger {
	return &stderrLogger{out: out}
}

func (l *stderrLogger) Debug(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *stderrLogger) Info(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *stderrLogger) Warn(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *stderrLogger) Error(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *stderrLogger) log(level, msg string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var line strings.Builder

	line.WriteString(time.Now().Format(time.RFC3339))
	line.WriteString(" ")
	line.WriteString(level)
	line.WriteString(" ")
	line.WriteString(msg)

	for _, key := range keys {
		fmt.Fprintf(&line, " %s=%v", key, fields[key])
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.out, line.String())
}

// warnItemErrors reports collection items that failed to materialize.
func warnItemErrors(cmd *cobra.Command, errs []cda.ItemError) {
	for _, itemErr := range errs {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", itemErr)
	}
}
