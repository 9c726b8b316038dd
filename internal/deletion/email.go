package deletion

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/vidfriends/appcore/internal/models"
)

// Draft is an email handed to the user's mail composer.
type Draft struct {
	To      []string
	Subject string
	Body    string
}

var bodyTemplate = template.Must(template.New("deletion").Parse(`Hello,

I would like to request the deletion of my VidFriends account and all associated data.

Username: {{.Username}}
Email: {{.Email}}
Account ID: {{.AccountID}}

I understand that processing this request may take up to 48 hours.

Thank you.
`))

// NewDraft renders the deletion request email for req.
func NewDraft(adminEmail, subject string, req models.DeletionRequest) (Draft, error) {
	var body strings.Builder
	if err := bodyTemplate.Execute(&body, req); err != nil {
		return Draft{}, fmt.Errorf("render deletion email: %w", err)
	}
	return Draft{
		To:      []string{adminEmail},
		Subject: subject,
		Body:    body.String(),
	}, nil
}
