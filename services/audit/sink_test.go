package auditsvc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asprotests/hums-sub000/core"
	emailsvc "github.com/asprotests/hums-sub000/services/email"
	testutil "github.com/asprotests/hums-sub000/tests"
)

var event = core.AuditEvent{
	Action:   core.AuditUnfinalizeClass,
	Entity:   "class",
	EntityID: "class-1",
	ActorID:  "registrar-1",
	Reason:   "grade appeal",
	Before:   map[string]bool{"is_finalized": true},
	At:       time.Date(2026, 12, 20, 10, 0, 0, 0, time.UTC),
}

type failingSink struct{}

func (failingSink) Record(context.Context, core.AuditEvent) error { return errors.New("boom") }

func TestLoggerSink(t *testing.T) {
	logger := testutil.NewLogger()
	require.NoError(t, NewLoggerSink(logger).Record(context.Background(), event))

	infos := logger.Messages("info")
	if assert.Len(t, infos, 1) {
		assert.Contains(t, infos[0], `"action":"grades:unfinalize"`)
		assert.Contains(t, infos[0], `"reason":"grade appeal"`)
	}
}

func TestMailSink(t *testing.T) {
	conf := &core.Config{AppName: "Grades", TestMode: true, RegistrarEmail: "registrar@example.edu"}
	var out bytes.Buffer
	email := emailsvc.NewConsoleService(conf, &out, testutil.NewLogger())

	require.NoError(t, NewMailSink(email, conf).Record(context.Background(), event))

	sent := email.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "registrar@example.edu", sent[0].To[0].Address)
	assert.Equal(t, "grades:unfinalize class-1", sent[0].Subject)
	assert.Contains(t, sent[0].TextContent, "Reason: grade appeal")
	assert.Contains(t, sent[0].TextContent, `"is_finalized": true`)
	assert.NotContains(t, sent[0].TextContent, "After:")
	assert.True(t, strings.Contains(out.String(), "Subject: [Grades] grades:unfinalize class-1"))

	t.Run("no registrar", func(t *testing.T) {
		conf := &core.Config{TestMode: true}
		email := emailsvc.NewConsoleService(conf, nil, testutil.NewLogger())
		require.NoError(t, NewMailSink(email, conf).Record(context.Background(), event))
		assert.Empty(t, email.SentMessages())
	})
}

func TestMultiSink(t *testing.T) {
	rec := &testutil.AuditSink{}

	tests := []struct {
		name    string
		sinks   MultiSink
		wantErr bool
	}{
		{name: "empty", sinks: MultiSink{}},
		{name: "all ok", sinks: MultiSink{rec}},
		{name: "one failing", sinks: MultiSink{failingSink{}, rec}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sinks.Record(context.Background(), event)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
	assert.Len(t, rec.Events(), 2, "a failing sink does not stop the others")
}
