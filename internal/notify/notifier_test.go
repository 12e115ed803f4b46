// internal/notify/notifier_test.go
package notify

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"

	"drivecash/internal/common/config"
	"drivecash/internal/common/errors"
	"drivecash/internal/common/logger"
	"drivecash/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func testConfig() config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "noreply@drivecash.com"
	cfg.SMS.Enabled = true
	cfg.SMS.SenderID = "DriveCash"
	return cfg
}

func testLoan() *models.LoanDraft {
	return &models.LoanDraft{
		ID: "loan_1",
		Personal: models.Section{
			"fullName":    "Jane Doe",
			"email":       "jane@example.com",
			"phoneNumber": "+15550100",
		},
	}
}

func TestSubmissionConfirmedSendsBothChannels(t *testing.T) {
	var emailInput *ses.SendEmailInput
	var smsInput *sns.PublishInput

	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			emailInput = params
			return &ses.SendEmailOutput{}, nil
		},
	}
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			smsInput = params
			return &sns.PublishOutput{}, nil
		},
	}

	n := New(testConfig(), mockSES, mockSNS, logger.NewTestLogger(t))
	n.SubmissionConfirmed(context.Background(), testLoan(), "be-123")

	assert.NotNil(t, emailInput)
	assert.Equal(t, "noreply@drivecash.com", *emailInput.Source)
	assert.Equal(t, []string{"jane@example.com"}, emailInput.Destination.ToAddresses)
	assert.Equal(t, "Loan Application Submitted Successfully", *emailInput.Message.Subject.Data)
	assert.Contains(t, *emailInput.Message.Body.Text.Data, "Jane Doe")
	assert.Contains(t, *emailInput.Message.Body.Text.Data, "be-123")

	assert.NotNil(t, smsInput)
	assert.Equal(t, "+15550100", *smsInput.PhoneNumber)
	attr, ok := smsInput.MessageAttributes["AWS.SNS.SMS.SenderID"]
	assert.True(t, ok)
	assert.Equal(t, "DriveCash", *attr.StringValue)
}

func TestSubmissionConfirmedDisabledChannels(t *testing.T) {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = false
	cfg.SMS.Enabled = false

	// Mocks without funcs would panic when called, proving the
	// channels are skipped.
	n := New(cfg, &MockSESService{}, &MockSNSService{}, logger.NewTestLogger(t))
	n.SubmissionConfirmed(context.Background(), testLoan(), "be-123")
}

func TestSubmissionConfirmedMissingContactDetails(t *testing.T) {
	loan := testLoan()
	delete(loan.Personal, "email")
	delete(loan.Personal, "phoneNumber")

	n := New(testConfig(), &MockSESService{}, &MockSNSService{}, logger.NewTestLogger(t))
	n.SubmissionConfirmed(context.Background(), loan, "be-123")
}

func TestSubmissionConfirmedPhoneAlias(t *testing.T) {
	loan := testLoan()
	delete(loan.Personal, "phoneNumber")
	loan.Personal["phone"] = "+15550199"

	var smsInput *sns.PublishInput
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			smsInput = params
			return &sns.PublishOutput{}, nil
		},
	}
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return &ses.SendEmailOutput{}, nil
		},
	}

	n := New(testConfig(), mockSES, mockSNS, logger.NewTestLogger(t))
	n.SubmissionConfirmed(context.Background(), loan, "be-123")

	assert.NotNil(t, smsInput)
	assert.Equal(t, "+15550199", *smsInput.PhoneNumber)
}

func TestSubmissionConfirmedSendFailuresAreSwallowed(t *testing.T) {
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, assert.AnError
		},
	}
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, assert.AnError
		},
	}

	n := New(testConfig(), mockSES, mockSNS, logger.NewTestLogger(t))
	n.SubmissionConfirmed(context.Background(), testLoan(), "be-123")
}

func TestSendFailuresCarryNotificationCode(t *testing.T) {
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, assert.AnError
		},
	}
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, assert.AnError
		},
	}
	n := New(testConfig(), mockSES, mockSNS, logger.NewTestLogger(t))

	err := n.sendEmail(context.Background(), "jane@example.com", "subject", "body")
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, errors.CodeOf(err))

	err = n.sendSMS(context.Background(), "+15550100", "body")
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, errors.CodeOf(err))
}

func TestRenderTemplateRemovesUnresolvedPlaceholders(t *testing.T) {
	out := renderTemplate("Thank you{{applicantName}}! Ref {{applicationId}}.", map[string]interface{}{
		"applicationId": "be-123",
	})
	assert.Equal(t, "Thank you! Ref be-123.", out)
}
