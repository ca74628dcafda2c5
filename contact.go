package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/gin-gonic/gin"
)

type contactMessage struct {
	Name    string `form:"fullName" binding:"required"`
	Email   string `form:"email" binding:"required,email"`
	Message string `form:"message" binding:"required"`
}

var errSMTPNotConfigured = errors.New("SMTP credentials not configured")

// Handle contact form submission with HTMX
func (s *server) handleContact(c *gin.Context) {
	var msg contactMessage
	if err := c.ShouldBind(&msg); err != nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please fill in every field and use a valid email address.",
		})
		return
	}

	if err := s.sendMail(s.cfg.SMTP, msg); err != nil {
		log.Printf("Error sending email: %v", err)
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}

func sendContactEmail(cfg SMTPConfig, msg contactMessage) error {
	if cfg.User == "" || cfg.Pass == "" {
		return errSMTPNotConfigured
	}
	to := cfg.ToEmail
	if to == "" {
		to = cfg.User
	}

	body, err := composeContactEmail(cfg.User, to, msg)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	if err := smtp.SendMail(cfg.Host+":"+cfg.Port, auth, cfg.User, []string{to}, body); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	log.Printf("Contact email sent from %s", msg.Name)
	return nil
}

func composeContactEmail(from, to string, msg contactMessage) ([]byte, error) {
	replyTo, err := mail.ParseAddress(msg.Email)
	if err != nil {
		return nil, fmt.Errorf("reply-to: %w", err)
	}
	// Header values must stay on one line.
	name := strings.NewReplacer("\r", " ", "\n", " ").Replace(msg.Name)

	subject := fmt.Sprintf("Portfolio Contact: %s", name)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, name, replyTo.Address, msg.Message)

	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"Reply-To: " + replyTo.String() + "\r\n" +
		"\r\n" +
		body + "\r\n"), nil
}
