package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectChatLog(t *testing.T) {
	cases := []struct {
		name        string
		subject     string
		text        string
		attachments []string
		want        bool
	}{
		{
			name:    "stamped chat with maintenance subject",
			subject: "Fwd: Maintenance chat",
			text:    "[3/1, 21:06] Ravi: Valve-B7, leaking (Suresh)\n[3/1, 22:10] Mary: Pump stopped M/s Arti",
			want:    true,
		},
		{
			name:        "chat export attachment alone",
			subject:     "",
			text:        "[3/1, 21:06] Ravi: replaced seal",
			attachments: []string{"WhatsApp Chat with Plant.txt"},
			want:        true,
		},
		{
			name:    "unrelated mail",
			subject: "Lunch plans",
			text:    "Pizza on Friday?",
			want:    false,
		},
		{
			name:    "keywords without chat markers stay below threshold",
			subject: "",
			text:    "the pump was checked and a leak replaced",
			want:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := DetectChatLog(tc.subject, tc.text, tc.attachments, 0.45)
			assert.Equal(t, tc.want, res.IsChatLog, "score=%v", res.Score)
			assert.LessOrEqual(t, res.Score, 1.0)
		})
	}
}

func TestDetectChatLogReason(t *testing.T) {
	assert.Equal(t, "rules_negative", DetectChatLog("", "", nil, 0.45).Reason)
	assert.Equal(t, "rules_positive", DetectChatLog("", "", nil, 0).Reason)
}
