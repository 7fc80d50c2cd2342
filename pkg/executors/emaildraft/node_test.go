package emaildraft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
)

type capturingMailer struct {
	sent []protocol.Mail
}

func (m *capturingMailer) SendMail(_ context.Context, _ string, mail protocol.Mail) error {
	m.sent = append(m.sent, mail)

	return nil
}

type capturingConfirmations struct {
	created []*models.Confirmation
}

func (c *capturingConfirmations) CreatePending(_ context.Context, confirmation *models.Confirmation) error {
	c.created = append(c.created, confirmation)

	return nil
}

func execute(t *testing.T, data map[string]any, caps *protocol.Capabilities, values map[string]any) (*models.ExecutionContext, error) {
	t.Helper()

	execCtx := models.NewExecutionContext("exec-1", "wf-1", "user-1", values)

	return (&Executor{}).Execute(context.Background(), protocol.ExecInput{
		Data:         data,
		NodeID:       "mail-1",
		UserID:       "user-1",
		Context:      execCtx,
		Capabilities: caps,
	})
}

func TestExecute_DefaultCreatesConfirmationInsteadOfSending(t *testing.T) {
	mailer := &capturingMailer{}
	confirmations := &capturingConfirmations{}

	out, err := execute(t, map[string]any{
		"to":      []any{"maria@example.com"},
		"subject": "Re: {{.topic}}",
		"body":    "Hi {{.customer_name}}, following up.",
	}, &protocol.Capabilities{Mailer: mailer, Confirmations: confirmations},
		map[string]any{"topic": "pricing", "customer_name": "Maria"})
	require.NoError(t, err)

	assert.Empty(t, mailer.sent, "nothing is sent without safe_to_retry")
	require.Len(t, confirmations.created, 1)

	created := confirmations.created[0]
	assert.Equal(t, "email", created.Kind)
	assert.Equal(t, models.ConfirmationStatusPending, created.Status)
	assert.Equal(t, "exec-1", created.ExecutionID)
	assert.Equal(t, "Re: pricing", created.Payload["subject"])
	assert.Equal(t, "Hi Maria, following up.", created.Payload["body"])

	id, _ := out.Value("email_confirmation_id")
	assert.Equal(t, created.ID, id)
}

func TestExecute_SafeToRetrySendsDirectly(t *testing.T) {
	mailer := &capturingMailer{}
	confirmations := &capturingConfirmations{}

	out, err := execute(t, map[string]any{
		"to":            []any{"maria@example.com"},
		"subject":       "hello",
		"body":          "world",
		"safe_to_retry": true,
	}, &protocol.Capabilities{Mailer: mailer, Confirmations: confirmations}, nil)
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"maria@example.com"}, mailer.sent[0].To)
	assert.Empty(t, confirmations.created)

	sent, _ := out.Value("email_sent")
	assert.Equal(t, true, sent)
}

func TestExecute_NoRecipients(t *testing.T) {
	_, err := execute(t, map[string]any{"subject": "s", "body": "b"}, &protocol.Capabilities{}, nil)
	assert.Error(t, err)
}

func TestExecute_MissingConfirmationsCapability(t *testing.T) {
	_, err := execute(t, map[string]any{
		"to":      []any{"a@b.c"},
		"subject": "s",
		"body":    "b",
	}, &protocol.Capabilities{}, nil)
	assert.Error(t, err)
}
