// internal/notify/aws.go
package notify

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/models"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// AWSNotifier sends completion emails via SES and SMS via SNS. Either
// channel can be disabled independently.
type AWSNotifier struct {
	ses       sesAPI
	sns       snsAPI
	fromEmail string
	emailOn   bool
	smsOn     bool
	logger    logger.Logger
}

// NewAWSNotifier builds a notifier over SES and SNS in the given region.
func NewAWSNotifier(ctx context.Context, region, fromEmail string, emailOn, smsOn bool, log logger.Logger) (*AWSNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newAWSNotifier(ses.NewFromConfig(cfg), sns.NewFromConfig(cfg), fromEmail, emailOn, smsOn, log), nil
}

func newAWSNotifier(sesClient sesAPI, snsClient snsAPI, fromEmail string, emailOn, smsOn bool, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		ses:       sesClient,
		sns:       snsClient,
		fromEmail: fromEmail,
		emailOn:   emailOn,
		smsOn:     smsOn,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// NotifyCompletion sends the outcome over every enabled channel the
// subject has contact details for. The first channel failure is returned;
// callers treat it as non-fatal.
func (n *AWSNotifier) NotifyCompletion(ctx context.Context, record *models.VerificationRecord, subject models.Subject) error {
	if n.emailOn && subject.Email != "" {
		if err := n.sendEmail(ctx, record, subject); err != nil {
			return err
		}
	}
	if n.smsOn && subject.Phone != "" {
		if err := n.sendSMS(ctx, record, subject); err != nil {
			return err
		}
	}
	return nil
}

func (n *AWSNotifier) sendEmail(ctx context.Context, record *models.VerificationRecord, subject models.Subject) error {
	subjectLine := fmt.Sprintf("Verification %s: %s", record.ID, record.OverallStatus)
	body := completionMessage(record, subject)

	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: &n.fromEmail,
		Destination: &sestypes.Destination{
			ToAddresses: []string{subject.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: &subjectLine},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: &body},
			},
		},
	})
	if err != nil {
		return errors.NewNotificationSendFailedError("email", err)
	}

	n.logger.Info("completion email sent", map[string]interface{}{
		"recordId": record.ID,
	})
	return nil
}

func (n *AWSNotifier) sendSMS(ctx context.Context, record *models.VerificationRecord, subject models.Subject) error {
	message := completionMessage(record, subject)

	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		Message:     &message,
		PhoneNumber: &subject.Phone,
	})
	if err != nil {
		return errors.NewNotificationSendFailedError("sms", err)
	}

	n.logger.Info("completion sms sent", map[string]interface{}{
		"recordId": record.ID,
	})
	return nil
}

func completionMessage(record *models.VerificationRecord, subject models.Subject) string {
	name := subject.DisplayName()
	if name == "" {
		name = "there"
	}
	msg := fmt.Sprintf("Hello %s, your identity verification has completed with status %s.",
		name, record.OverallStatus)
	if record.OverallStatus != models.OverallApproved {
		msg += " Our team will review the pending items and contact you if anything else is needed."
	}
	return msg
}
