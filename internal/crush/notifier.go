package crush

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/crush-connector/internal/db"
	"github.com/oggyb/crush-connector/internal/mail"
	"github.com/oggyb/crush-connector/internal/repository"
)

// Dispatcher composes and sends match and no-match notices.
type Dispatcher struct {
	sender   mail.Sender
	from     string
	siteName string
	siteURL  string
}

// NewDispatcher creates a dispatcher sending from the given address.
func NewDispatcher(sender mail.Sender, from, siteName, siteURL string) *Dispatcher {
	return &Dispatcher{sender: sender, from: from, siteName: siteName, siteURL: siteURL}
}

// MatchMessage is the single mail addressed to both sides of a match.
func (d *Dispatcher) MatchMessage(a, b *db.Person) mail.Message {
	return mail.Message{
		Subject: "Mutual Crush Found!",
		Body: fmt.Sprintf("Congratulations %s and %s, you both have a crush on each other!\n\n%s\n",
			a.Name, b.Name, d.siteName),
		From: d.from,
		To:   []string{a.Email, b.Email},
	}
}

// NoMatchMessage is the anonymous "someone likes you" notice.
func (d *Dispatcher) NoMatchMessage(target *db.Person) mail.Message {
	name := target.Name
	if target.IsPlaceholder() {
		name = target.Email
	}
	return mail.Message{
		Subject: fmt.Sprintf("Someone on %s has a crush on you", d.siteName),
		Body: fmt.Sprintf(`Dear %s,

Someone has anonymously submitted a crush on you. You can go to %s to find out whether or not this is a mutual crush.

%s is a way to submit anonymous crushes on people. If a crush is mutual then both people who submitted the anonymous crush are informed that the other person feels the same way.

Good luck,
%s
`, name, d.siteURL, d.siteName, d.siteName),
		From: d.from,
		To:   []string{target.Email},
	}
}

// Outbox collects notices raised inside a transaction.
// Flush must run before the transaction commits so that a delivery failure
// rolls the submission back.
type Outbox struct {
	d        *Dispatcher
	notified *repository.NotifiedRepository
	pending  []mail.Message

	matches   int
	noMatches int
}

// Outbox starts an outbox bound to tx.
func (d *Dispatcher) Outbox(tx *gorm.DB) *Outbox {
	return &Outbox{d: d, notified: repository.NewNotifiedRepository(tx)}
}

// NotifyMatch queues one mail to both people. There is no idempotency guard:
// every newly matching token mails again.
func (o *Outbox) NotifyMatch(a, b *db.Person) {
	o.pending = append(o.pending, o.d.MatchMessage(a, b))
	o.matches++
}

// NotifyNoMatch queues the anonymous notice unless target already got one.
// The claim is an atomic insert, so concurrent submitters cannot both win.
func (o *Outbox) NotifyNoMatch(ctx context.Context, target *db.Person) (bool, error) {
	won, err := o.notified.Claim(ctx, target.ID)
	if err != nil {
		return false, fmt.Errorf("claim notice for person %d: %w", target.ID, err)
	}
	if !won {
		return false, nil
	}
	o.pending = append(o.pending, o.d.NoMatchMessage(target))
	o.noMatches++
	return true, nil
}

// Pending returns the queued messages.
func (o *Outbox) Pending() []mail.Message { return o.pending }

// Flush sends every queued message and stops at the first failure.
func (o *Outbox) Flush(ctx context.Context) error {
	for _, msg := range o.pending {
		if err := o.d.sender.Send(ctx, msg); err != nil {
			return &DeliveryError{To: msg.To, Err: err}
		}
	}
	return nil
}
