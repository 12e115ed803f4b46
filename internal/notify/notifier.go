// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"drivecash/internal/common/config"
	"drivecash/internal/common/errors"
	"drivecash/internal/common/logger"
	"drivecash/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

var templates = map[string]map[string]string{
	"submission-confirmed": {
		"subject": "Loan Application Submitted Successfully",
		"body":    "Thank you{{applicantName}}! Your loan application {{applicationId}} has been submitted and is now under review.",
	},
}

// Notifier sends the applicant a confirmation over email and SMS,
// each channel gated by configuration.
type Notifier struct {
	config    config.NotificationConfig
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func New(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    cfg,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// SubmissionConfirmed tells the applicant their application went in.
// Contact details come from the personal section; a missing channel or
// a send failure is logged and swallowed, submission already succeeded.
func (n *Notifier) SubmissionConfirmed(ctx context.Context, loan *models.LoanDraft, backendID string) {
	name, _ := loan.Personal["fullName"].(string)
	email, _ := loan.Personal["email"].(string)
	phone, _ := loan.Personal["phoneNumber"].(string)
	if phone == "" {
		phone, _ = loan.Personal["phone"].(string)
	}

	data := map[string]interface{}{
		"applicationId": backendID,
	}
	if name != "" {
		data["applicantName"] = ", " + name
	}

	template := templates["submission-confirmed"]
	subject := renderTemplate(template["subject"], data)
	body := renderTemplate(template["body"], data)

	if n.config.Email.Enabled && email != "" {
		if err := n.sendEmail(ctx, email, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"email": email,
			})
		}
	}

	if n.config.SMS.Enabled && phone != "" {
		if err := n.sendSMS(ctx, phone, body); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": phone,
			})
		}
	}
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.Email.FromEmail),
	})
	if err != nil {
		return errors.NewNotificationSendFailedError("email", err)
	}
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if n.config.SMS.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.config.SMS.SenderID),
			},
		}
	}
	if _, err := n.snsClient.Publish(ctx, input); err != nil {
		return errors.NewNotificationSendFailedError("sms", err)
	}
	return nil
}

// Simplified template rendering with placeholder removal for missing values
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
