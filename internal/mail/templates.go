package mail

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const subjectPrefix = "PTC Coding Challenge - "

type Message struct {
	To      string
	Subject string
	HTML    string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func greetingName(username string) string {
	if username == "" {
		return username
	}
	return strings.ToUpper(username[:1]) + username[1:]
}

func Welcome(to, username string) (*Message, error) {
	body, err := render("welcome.html", map[string]string{"Name": greetingName(username)})
	if err != nil {
		return nil, err
	}
	return &Message{To: to, Subject: subjectPrefix + "Account Creation Successful", HTML: body}, nil
}

// PasswordReset links to {host}/change-password/{token}.
func PasswordReset(to, username, host, token string) (*Message, error) {
	link := strings.TrimRight(host, "/") + "/change-password/" + token
	body, err := render("reset.html", map[string]string{
		"Name":  greetingName(username),
		"Email": to,
		"Link":  link,
	})
	if err != nil {
		return nil, err
	}
	return &Message{To: to, Subject: subjectPrefix + "Account Password Reset", HTML: body}, nil
}

func PasswordChanged(to, username string) (*Message, error) {
	body, err := render("password_changed.html", map[string]string{"Name": greetingName(username)})
	if err != nil {
		return nil, err
	}
	return &Message{To: to, Subject: subjectPrefix + "Password Change Successful", HTML: body}, nil
}
