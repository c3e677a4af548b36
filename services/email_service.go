package services

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"

	"github.com/snkproperties/snkprop_backend/models"
)

// EmailService sends transactional mail over SMTP. All sends are
// best-effort from the caller's point of view; business operations never
// fail because a notification did.
type EmailService struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewEmailService() *EmailService {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return &EmailService{
		host: os.Getenv("SMTP_HOST"),
		port: port,
		user: os.Getenv("SMTP_USERNAME"),
		pass: os.Getenv("SMTP_PASSWORD"),
		from: os.Getenv("SMTP_FROM_EMAIL"),
	}
}

func (s *EmailService) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// SendWelcomeEmail greets a newly registered user or broker.
func (s *EmailService) SendWelcomeEmail(to, name string) error {
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Welcome to SNK Properties</h2>
			<p>Hello %s,</p>
			<p>Your account has been created successfully. You can now browse listings, save favourites and get in touch with brokers directly from the app.</p>
			<p>Thank you,<br>The SNK Properties Team</p>
		</body>
		</html>
	`, name)
	return s.send(to, "Welcome to SNK Properties", body)
}

// SendEmployeeCredentials mails a new employee their codes after an admin
// creates the account.
func (s *EmailService) SendEmployeeCredentials(employee *models.Employee, plainPassword string) error {
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Your SNK Properties Employee Account</h2>
			<p>Hello %s,</p>
			<p>Your employee account is ready.</p>
			<ul>
				<li>Employee code: <b>%s</b></li>
				<li>Referral code: <b>%s</b></li>
				<li>Temporary password: <b>%s</b></li>
			</ul>
			<p>Share your referral code with prospects; every registration made with it is credited to you. Please change your password after first login.</p>
			<p>Thank you,<br>The SNK Properties Team</p>
		</body>
		</html>
	`, employee.EmployeeName, employee.EmployeeCode, employee.ReferralCode, plainPassword)
	return s.send(employee.Email, "Your SNK Properties employee account", body)
}

// SendCommissionPaidEmail notifies an employee that a period was settled.
func (s *EmailService) SendCommissionPaidEmail(employee *models.Employee, period string, amount float64, reference string) error {
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Commission Payment Processed</h2>
			<p>Hello %s,</p>
			<p>Your referral commission for <b>%s</b> has been paid.</p>
			<ul>
				<li>Amount: <b>%.2f</b></li>
				<li>Reference: <b>%s</b></li>
			</ul>
			<p>Thank you,<br>The SNK Properties Team</p>
		</body>
		</html>
	`, employee.EmployeeName, period, amount, reference)
	return s.send(employee.Email, "Commission payment processed", body)
}
