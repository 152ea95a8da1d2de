package utils

import (
	"eduquiz/config"
	"fmt"
	"net/smtp"
	"strings"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: EduQuiz <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

// HTML wrapper shared by all outgoing mails
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A237E; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A237E; line-height: 1.6; }
			.content h2 { color: #1A237E; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.score-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #3949AB; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>EDUQUIZ</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 EduQuiz. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// 1. Welcome / Signup
func SendWelcomeEmail(email, name string) {
	subject := "Welcome to EduQuiz"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Welcome to <strong>EduQuiz</strong>! Your account has been created.</p>
		<p>Browse the published courses, enroll, and take adaptive quizzes that follow your progress.</p>
	`, name)

	go SendEmail([]string{email}, subject, getEmailTemplate("Welcome Onboard!", body))
}

// 2. Quiz Result
func SendQuizResultEmail(email, name string, score float64, passed bool, recommendation string) {
	subject := "Your Quiz Result"

	resultColor := "#DC3545"
	resultLabel := "Not passed"
	if passed {
		resultColor = "#28A745"
		resultLabel = "Passed"
	}

	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your quiz has been graded.</p>
		<div class="score-box">
			<strong>Score:</strong> %.1f%%<br>
			<strong>Result:</strong> <span style="color: %s; font-weight: bold;">%s</span>
		</div>
		<p>%s</p>
	`, name, score, resultColor, resultLabel, recommendation)

	go SendEmail([]string{email}, subject, getEmailTemplate("Quiz Result", body))
}

// 3. Evaluation Result
func SendEvaluationResultEmail(email, name, evaluationTitle string, score float64, passed bool) {
	subject := "Evaluation Result: " + evaluationTitle

	resultLabel := "Not passed"
	if passed {
		resultLabel = "Passed"
	}

	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your evaluation <strong>%s</strong> has been graded.</p>
		<div class="score-box">
			<strong>Score:</strong> %.1f%%<br>
			<strong>Result:</strong> %s
		</div>
	`, name, evaluationTitle, score, resultLabel)

	go SendEmail([]string{email}, subject, getEmailTemplate("Evaluation Result", body))
}
