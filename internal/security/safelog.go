// Package security masks credentials before they reach logs or terminals.
package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// sensitiveFields contains field names that should be masked in logs.
var sensitiveFields = map[string]bool{
	"api_key":        true,
	"apikey":         true,
	"openai_api_key": true,
	"bot_token":      true,
	"token":          true,
	"secret":         true,
	"password":       true,
	"authorization":  true,
}

// sensitivePatterns match credentials embedded in free text.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{6,12}:[A-Za-z0-9_-]{30,}`),                                            // Telegram bot tokens
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),                                                      // OpenAI keys
	regexp.MustCompile(`(?i)(api[_-]?key|bot[_-]?token|token|password|bearer)([=:\s]+)["']?([^\s"'&]+)`), // key=value pairs
}

// MaskCredential keeps the first and last four characters of long values.
func MaskCredential(value string) string {
	switch {
	case len(value) == 0:
		return ""
	case len(value) <= 4:
		return strings.Repeat("*", len(value))
	case len(value) <= 8:
		return value[:2] + strings.Repeat("*", len(value)-2)
	default:
		return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
	}
}

// ContainsSensitiveData reports whether input contains a credential pattern.
func ContainsSensitiveData(input string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(input) {
			return true
		}
	}
	return false
}

// MaskString masks every credential pattern found in input.
func MaskString(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			sub := pattern.FindStringSubmatch(match)
			if len(sub) == 4 {
				return sub[1] + sub[2] + MaskCredential(sub[3])
			}
			return MaskCredential(match)
		})
	}
	return result
}

// IsSensitiveField reports whether a field name holds a credential.
func IsSensitiveField(field string) bool {
	return sensitiveFields[strings.ToLower(field)]
}

// MaskFields returns a copy of data with credential values masked.
func MaskFields(data map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			if IsSensitiveField(k) {
				result[k] = MaskCredential(val)
			} else {
				result[k] = MaskString(val)
			}
		case map[string]interface{}:
			result[k] = MaskFields(val)
		default:
			if IsSensitiveField(k) {
				result[k] = "***"
			} else {
				result[k] = v
			}
		}
	}
	return result
}

// SafeLogger wraps zerolog.Logger to mask credentials in strings and errors.
type SafeLogger struct {
	logger zerolog.Logger
}

// NewSafeLogger creates a new safe logger.
func NewSafeLogger(logger zerolog.Logger) *SafeLogger {
	return &SafeLogger{logger: logger}
}

// Debug starts a debug event.
func (sl *SafeLogger) Debug() *SafeEvent { return &SafeEvent{event: sl.logger.Debug()} }

// Info starts an info event.
func (sl *SafeLogger) Info() *SafeEvent { return &SafeEvent{event: sl.logger.Info()} }

// Warn starts a warning event.
func (sl *SafeLogger) Warn() *SafeEvent { return &SafeEvent{event: sl.logger.Warn()} }

// Error starts an error event.
func (sl *SafeLogger) Error() *SafeEvent { return &SafeEvent{event: sl.logger.Error()} }

// SafeEvent wraps zerolog.Event to mask sensitive data.
type SafeEvent struct {
	event *zerolog.Event
}

// Str adds a string field, masking if sensitive.
func (se *SafeEvent) Str(key, val string) *SafeEvent {
	if IsSensitiveField(key) {
		se.event = se.event.Str(key, MaskCredential(val))
	} else {
		se.event = se.event.Str(key, MaskString(val))
	}
	return se
}

// Int adds an integer field.
func (se *SafeEvent) Int(key string, val int) *SafeEvent {
	se.event = se.event.Int(key, val)
	return se
}

// Int64 adds an int64 field.
func (se *SafeEvent) Int64(key string, val int64) *SafeEvent {
	se.event = se.event.Int64(key, val)
	return se
}

// Err adds an error field with credentials masked.
func (se *SafeEvent) Err(err error) *SafeEvent {
	if err != nil {
		se.event = se.event.Err(fmt.Errorf("%s", MaskString(err.Error())))
	}
	return se
}

// Msg sends the event with a message.
func (se *SafeEvent) Msg(msg string) {
	se.event.Msg(MaskString(msg))
}

// Msgf sends the event with a formatted message.
func (se *SafeEvent) Msgf(format string, args ...interface{}) {
	se.event.Msg(MaskString(fmt.Sprintf(format, args...)))
}
