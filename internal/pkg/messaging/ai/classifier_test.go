package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Classification
	}{
		{
			"plain json",
			`{"intent": "order_status", "confidence": 0.93}`,
			Classification{Intent: "order_status", Confidence: 0.93},
		},
		{
			"fenced json",
			"```json\n{\"intent\": \"complaint\", \"confidence\": 0.8}\n```",
			Classification{Intent: "complaint", Confidence: 0.8},
		},
		{
			"bare fence",
			"```\n{\"intent\": \"greeting\", \"confidence\": 1}\n```",
			Classification{Intent: "greeting", Confidence: 1},
		},
		{"prose instead of json", "The intent is probably a greeting.", Neutral},
		{"empty reply", "", Neutral},
		{"missing intent", `{"confidence": 0.9}`, Neutral},
		{
			"confidence out of range",
			`{"intent": "pricing", "confidence": 7}`,
			Classification{Intent: "pricing", Confidence: Neutral.Confidence},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseClassification(tt.raw))
		})
	}
}
