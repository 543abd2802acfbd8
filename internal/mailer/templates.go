package mailer

import (
	"fmt"
	"html"
	"strings"
)

// Welcome is sent after a successful sign-up.
func Welcome(to, fullName string) Message {
	greeting := "Welcome to CRWN!"
	if name := strings.TrimSpace(fullName); name != "" {
		greeting = fmt.Sprintf("Welcome to CRWN, %s!", name)
	}
	body := "Your crown journey starts now. Share your looks, find stylists and follow the community."
	return Message{
		Kind:    KindWelcome,
		To:      to,
		ToName:  fullName,
		Subject: "Welcome to CRWN",
		Text:    greeting + "\n\n" + body,
		HTML:    "<strong>" + html.EscapeString(greeting) + "</strong><p>" + body + "</p>",
	}
}

// Feedback forwards a support submission to the support inbox.
func Feedback(supportAddr, fromEmail, kind, message string) Message {
	subject := fmt.Sprintf("[%s] feedback from %s", kind, fromEmail)
	return Message{
		Kind:    KindFeedback,
		To:      supportAddr,
		Subject: subject,
		Text:    message,
		HTML:    "<pre>" + html.EscapeString(message) + "</pre>",
	}
}
