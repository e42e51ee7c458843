package mailer

import (
	"fmt"
	"log"
	"time"

	"stagelink/src/config"
	"stagelink/src/lib"
)

// Notification dispatch is best-effort by contract: callers run these in a
// goroutine and a failed send never rolls back the state transition that
// triggered it.

func SendTicketConfirmation(to, name, showTitle, accessCode string, showDate *time.Time) {
	if to == "" {
		return
	}
	when := "TBA"
	if showDate != nil {
		when = showDate.Format("Monday, January 2, 2006 3:04 PM")
	}
	body := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
		  <h2>Your ticket is confirmed!</h2>
		  <p>Hi %s,</p>
		  <p>Your reservation for <strong>%s</strong> on %s is confirmed.</p>
		  <p>Your access code: <strong>%s</strong></p>
		  <p>Show this code (or your ticket QR) at the venue entrance.</p>
		  <br/>
		  <p>See you there,<br/>The StageLink Team</p>
		</div>
	`, displayName(name), showTitle, when, accessCode)
	send(to, fmt.Sprintf("Ticket Confirmed: %s", showTitle), body)
}

func SendPaymentRejected(to, name, showTitle string) {
	if to == "" {
		return
	}
	body := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
		  <p>Hi %s,</p>
		  <p>We're sorry, but your payment for <strong>%s</strong> could not be verified and has been rejected.</p>
		  <p>If you believe this is an error, please reply to this email with your proof of payment attached again.</p>
		  <br/>
		  <p>Best,<br/>The StageLink Team</p>
		</div>
	`, displayName(name), showTitle)
	send(to, fmt.Sprintf("Payment Update: %s", showTitle), body)
}

func SendAdminReviewRequest(showTitle, submitter, submitterEmail, proofURL string, feeUnits float64) {
	if submitter == "" {
		submitter = "Guest"
	}
	if submitterEmail == "" {
		submitterEmail = "No email"
	}
	body := fmt.Sprintf(`
		<h2>New Manual Payment Review</h2>
		<p>A new payment of <strong>PHP %.2f</strong> for <strong>%s</strong> has been submitted.</p>
		<p><strong>User:</strong> %s (%s)</p>
		<p><strong>Proof of Payment:</strong> <a href="%s">View Image</a></p>
		<br/>
		<a href="%s/admin" style="background: #000; color: #fff; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Go to Admin Panel</a>
	`, feeUnits, showTitle, submitter, submitterEmail, proofURL, config.AppHost())
	send(config.AdminEmail(), fmt.Sprintf("Review Payment: %s", showTitle), body)
}

func SendShowReminder(to, name, showTitle, venue string, showDate time.Time) {
	if to == "" {
		return
	}
	body := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
		  <p>Hi %s,</p>
		  <p>This is a reminder that <strong>%s</strong> is happening on %s at %s.</p>
		  <p>Don't forget to bring your ticket!</p>
		  <br/>
		  <p>See you there,<br/>The StageLink Team</p>
		</div>
	`, displayName(name), showTitle, showDate.Format("Monday, January 2, 2006 3:04 PM"), venue)
	send(to, fmt.Sprintf("Reminder: %s", showTitle), body)
}

func SendShowStatusUpdate(to, showTitle string, approved bool) {
	if to == "" {
		return
	}
	verdict := "approved and is now live"
	if !approved {
		verdict = "rejected"
	}
	body := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
		  <p>Your show <strong>%s</strong> has been %s.</p>
		</div>
	`, showTitle, verdict)
	send(to, fmt.Sprintf("Show Update: %s", showTitle), body)
}

func send(to, subject, body string) {
	if err := lib.SendMail(&lib.SendMailInput{
		From:     config.MailFrom(),
		FromName: "StageLink",
		To:       []string{to},
		Subject:  subject,
		Body:     body,
		Html:     true,
	}); err != nil {
		log.Printf("[mailer] Could not send %q to [%s]: %s\n", subject, to, err.Error())
	}
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
