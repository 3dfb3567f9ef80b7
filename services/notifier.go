package services

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"ethics-review-api/models"

	"github.com/cenkalti/backoff/v4"
)

const mailRetryMaxElapsed = 2 * time.Minute

// TransitionEvent describes a committed status change.
type TransitionEvent struct {
	Proposal *models.Proposal
	Action   Action
	From     models.ProposalStatus
	To       models.ProposalStatus
	Actor    Actor
}

// Notifier is told about every committed transition. Implementations must
// not block the caller on slow delivery.
type Notifier interface {
	ProposalTransitioned(ctx context.Context, event TransitionEvent)
}

// MailNotifier e-mails the researcher on every status change and the newly
// responsible identities whenever the assignment set is handed over.
type MailNotifier struct {
	directory Directory
	send      func(to []string, subject, html string) error
	retry     func() backoff.BackOff
}

func NewMailNotifier(directory Directory, send func(to []string, subject, html string) error) *MailNotifier {
	return &MailNotifier{directory: directory, send: send, retry: newMailBackoff}
}

// newMailBackoff returns a fresh policy per message; BackOff values are stateful.
func newMailBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = mailRetryMaxElapsed
	return backoff.WithMaxRetries(bo, 3)
}

func (n *MailNotifier) ProposalTransitioned(ctx context.Context, event TransitionEvent) {
	if event.Proposal == nil || event.From == event.To {
		return
	}
	title := strings.TrimSpace(event.Proposal.Content.Title)
	if title == "" {
		title = event.Proposal.ID
	}

	type delivery struct {
		to      Identity
		subject string
		message string
	}
	deliveries := make([]delivery, 0, 1+len(event.Proposal.AssignedTo))

	if owner, err := n.directory.Lookup(ctx, event.Proposal.ResearcherID); err == nil {
		deliveries = append(deliveries, delivery{
			to:      owner,
			subject: fmt.Sprintf("Proposal \"%s\" is now %s", title, statusLabel(event.To)),
			message: fmt.Sprintf("Your proposal \"%s\" moved from %s to %s.", title, statusLabel(event.From), statusLabel(event.To)),
		})
	} else {
		log.Printf("notify: cannot resolve researcher %s: %v", event.Proposal.ResearcherID, err)
	}

	for _, id := range event.Proposal.AssignedTo {
		assignee, err := n.directory.Lookup(ctx, id)
		if err != nil {
			log.Printf("notify: cannot resolve assignee %s: %v", id, err)
			continue
		}
		deliveries = append(deliveries, delivery{
			to:      assignee,
			subject: fmt.Sprintf("Proposal \"%s\" awaits your action", title),
			message: fmt.Sprintf("The proposal \"%s\" has been assigned to you and is %s.", title, statusLabel(event.To)),
		})
	}

	go func() {
		for _, d := range deliveries {
			if strings.TrimSpace(d.to.Email) == "" {
				continue
			}
			html := buildFormalEmailHTML(d.subject, d.to.Name, d.message)
			err := backoff.Retry(func() error {
				return n.send([]string{d.to.Email}, d.subject, html)
			}, n.retry())
			if err != nil {
				log.Printf("notification email send failed (subject=%q to=%s): %v", d.subject, d.to.Email, err)
			}
		}
	}()
}

func statusLabel(status models.ProposalStatus) string {
	return strings.ReplaceAll(string(status), "_", " ")
}

func buildFormalEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "Colleague"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
