package security

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

const botToken = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsawQ"

func TestMaskCredential(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"abc":          "***",
		"abcdefg":      "ab*****",
		"abcdefghijkl": "abcd****ijkl",
	}
	for in, want := range tests {
		if got := MaskCredential(in); got != want {
			t.Errorf("MaskCredential(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskStringHidesTokens(t *testing.T) {
	inputs := []string{
		"Post https://api.telegram.org/bot" + botToken + "/sendMessage: timeout",
		"using key sk-proj1234567890abcdefghijklmnop",
		"api_key=supersecretvalue123",
	}
	secrets := []string{botToken, "sk-proj1234567890abcdefghijklmnop", "supersecretvalue123"}

	for i, in := range inputs {
		out := MaskString(in)
		if strings.Contains(out, secrets[i]) {
			t.Errorf("secret leaked: %q", out)
		}
		if !ContainsSensitiveData(in) {
			t.Errorf("ContainsSensitiveData(%q) = false", in)
		}
	}

	if got := MaskString("price 50000 rsi 30"); got != "price 50000 rsi 30" {
		t.Errorf("plain text changed: %q", got)
	}
}

func TestMaskFields(t *testing.T) {
	out := MaskFields(map[string]interface{}{
		"bot_token": botToken,
		"level":     "info",
		"telegram":  map[string]interface{}{"token": "abcdefghijkl"},
	})
	if out["bot_token"] == botToken {
		t.Error("bot_token not masked")
	}
	if out["level"] != "info" {
		t.Errorf("level = %v", out["level"])
	}
	nested := out["telegram"].(map[string]interface{})
	if nested["token"] != "abcd****ijkl" {
		t.Errorf("nested token = %v", nested["token"])
	}
}

func TestSafeLoggerMasksErrors(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSafeLogger(zerolog.New(&buf))

	sl.Error().Err(errors.New("bot" + botToken + " rejected")).Str("bot_token", botToken).Msg("send failed")

	if strings.Contains(buf.String(), botToken) {
		t.Errorf("log leaked token: %s", buf.String())
	}
}
