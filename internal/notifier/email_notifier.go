package notifier

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rs/zerolog/log"

	"github.com/PixelPath7/vive-sano/configs"
	"github.com/PixelPath7/vive-sano/internal/models"
)

// SESAPI is the part of the SES client the email channel uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type EmailChannel struct {
	sender string
	api    SESAPI
}

func NewEmailChannel(ctx context.Context, cfg config.EmailConfig) (*EmailChannel, error) {
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("sender email address is not configured in environment variables")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	return NewEmailChannelWithAPI(cfg.SenderEmail, ses.NewFromConfig(awsCfg)), nil
}

func NewEmailChannelWithAPI(sender string, api SESAPI) *EmailChannel {
	return &EmailChannel{sender: sender, api: api}
}

func (e *EmailChannel) Name() string { return "email" }

func emailSubject(n models.Notification) string {
	switch n.Type {
	case models.NotificationOrderCreated:
		return fmt.Sprintf("Pedido #%d recibido - ¡Gracias por tu compra!", n.OrderID)
	case models.NotificationStatusChanged:
		return fmt.Sprintf("Tu pedido #%d cambió de estado", n.OrderID)
	case models.NotificationDispatchRequest:
		return fmt.Sprintf("Despacho de tu pedido #%d", n.OrderID)
	}
	return fmt.Sprintf("Novedades de tu pedido #%d", n.OrderID)
}

func (e *EmailChannel) Deliver(ctx context.Context, to models.Client, n models.Notification) error {
	if to.Email == "" {
		return ErrMissingContact
	}

	bodyHTML := fmt.Sprintf(`
        <html>
        <body>
            <p>Hola %s,</p>
            <p>%s</p>
            <p>Pedido: #%d</p>
            <p>Saludos,</p>
            <p>El equipo de Vive Sano</p>
        </body>
        </html>`, html.EscapeString(to.FullName()), html.EscapeString(n.Message), n.OrderID)

	bodyText := fmt.Sprintf(
		"Hola %s,\n\n%s\n\nPedido: #%d\n\nSaludos,\nEl equipo de Vive Sano",
		to.FullName(), n.Message, n.OrderID)

	input := &ses.SendEmailInput{
		Source: aws.String(e.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(emailSubject(n)),
			},
			Body: &types.Body{
				Html: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(bodyHTML),
				},
				Text: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(bodyText),
				},
			},
		},
	}

	if _, err := e.api.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info().Str("to", to.Email).Uint("order_id", n.OrderID).Msg("notification email sent")
	return nil
}
