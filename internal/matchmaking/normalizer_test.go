package matchmaking

import (
	"database/sql"
	"encoding/json"
	"testing"

	"tradehub/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedNormalizer() (*Normalizer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return NewNormalizer(logger.NewZapAdapter(zap.New(core))), logs
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(logger.NewTestLogger(t))

	tests := []struct {
		name string
		raw  interface{}
		want []string
	}{
		{"nil", nil, []string{}},
		{"json text", `["Coffee ", " TEA"]`, []string{"coffee", "tea"}},
		{"json bytes", []byte(`["Spices"]`), []string{"spices"}},
		{"raw message", json.RawMessage(`["Rice","rice"]`), []string{"rice"}},
		{"native strings", []string{"  Cocoa", "COCOA", ""}, []string{"cocoa"}},
		{"native interfaces", []interface{}{"Tea", 7, nil, " sugar "}, []string{"tea", "sugar"}},
		{"null string", sql.NullString{}, []string{}},
		{"valid null string", sql.NullString{String: `["Nuts"]`, Valid: true}, []string{"nuts"}},
		{"double encoded", `"[\"Coffee\",\"Tea\"]"`, []string{"coffee", "tea"}},
		{"json null", "null", []string{}},
		{"empty text", "   ", []string{}},
		{"empty list", `[]`, []string{}},
		{"unicode lowercase", `["ÇAY"]`, []string{"çay"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_MalformedIsSoftFailure(t *testing.T) {
	n, logs := observedNormalizer()

	cases := []interface{}{
		`["coffee"`,
		`{"coffee": true}`,
		`42`,
		`"just a string"`,
		map[string]int{"x": 1},
	}
	for _, raw := range cases {
		assert.Equal(t, []string{}, n.Normalize(raw))
	}
	assert.Equal(t, len(cases), logs.Len(), "every malformed input is logged once")
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(logger.NewNoOpLogger())
	inputs := []interface{}{
		`["Coffee ", "Tea", "coffee"]`,
		[]string{" Spices", "FLOWERS "},
		nil,
	}
	for _, raw := range inputs {
		once := n.Normalize(raw)
		assert.Equal(t, once, n.Normalize(once))
	}
}
