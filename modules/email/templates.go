package email

import (
	"fmt"
)

// verificationBody renders the plain-text and HTML bodies of the
// email-verification message.
func verificationBody(username, link string) (text, html string) {
	text = fmt.Sprintf(
		"Hi %s,\n\n"+
			"Welcome! Please verify your email address by opening the link below:\n\n"+
			"%s\n\n"+
			"The link expires in 24 hours. If you did not create an account, you can ignore this email.\n",
		username, link)

	html = fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Welcome! Please verify your email address by clicking the button below:</p>
<p><a href="%s" style="display:inline-block;padding:10px 20px;background:#2563eb;color:#fff;text-decoration:none;border-radius:6px">Verify email</a></p>
<p>The link expires in 24 hours. If you did not create an account, you can ignore this email.</p>`,
		username, link)
	return text, html
}

// passwordResetBody renders the plain-text and HTML bodies of the
// password-reset message.
func passwordResetBody(username, link string) (text, html string) {
	text = fmt.Sprintf(
		"Hi %s,\n\n"+
			"We received a request to reset your password. Open the link below to choose a new one:\n\n"+
			"%s\n\n"+
			"The link expires in 1 hour. If you did not request a reset, you can ignore this email.\n",
		username, link)

	html = fmt.Sprintf(
		`<p>Hi %s,</p>
<p>We received a request to reset your password. Click the button below to choose a new one:</p>
<p><a href="%s" style="display:inline-block;padding:10px 20px;background:#2563eb;color:#fff;text-decoration:none;border-radius:6px">Reset password</a></p>
<p>The link expires in 1 hour. If you did not request a reset, you can ignore this email.</p>`,
		username, link)
	return text, html
}
