// Package tourneyconfig loads the JSON configuration files that describe
// how a tournament is set up: which assignment type it runs, who is
// eligible to submit, where the results server listens, and (optionally)
// where to send crash notifications. Each file except email_config.json has
// a well-known default written to disk the first time it is missing,
// mirroring the teacher's
// read-defaults-then-overlay convention.
package tourneyconfig

import "time"

// AssignmentConfig selects the assignment.Adapter to run and points it at
// the unmodified assignment source.
type AssignmentConfig struct {
	AssignmentType string `json:"assignment_type"`
	SourceAssgDir  string `json:"source_assg_dir"`
}

// DefaultAssignmentConfig is written to disk the first time no
// assignment_config.json is found.
func DefaultAssignmentConfig() AssignmentConfig {
	return AssignmentConfig{
		AssignmentType: "enter_assignment_type_here",
		SourceAssgDir:  "/absolute/path/to/assignment",
	}
}

// ApprovedSubmitter maps a submitter's login (as seen on a commit) to the
// canonical submitter name used throughout tournament state. ExtensionGranted
// mirrors approved_submitters.json's submitters[id].extension_granted: a
// submitter with an extension is still eligible to submit past
// SubmissionDeadline, up to SubmissionExtensionsDeadline.
type ApprovedSubmitter struct {
	Login            string `json:"login"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	ExtensionGranted bool   `json:"extension_granted"`
}

// ApprovedSubmittersConfig is the full list of submitters eligible to
// participate, plus the deadline(s) that gate CheckEligibility's
// submissions-closed test.
type ApprovedSubmittersConfig struct {
	SubmissionDeadline           time.Time           `json:"submission_deadline"`
	SubmissionExtensionsDeadline time.Time           `json:"submission_extensions_deadline"`
	Submitters                   []ApprovedSubmitter `json:"submitters"`
}

// DefaultApprovedSubmittersConfig is written to disk the first time no
// approved_submitters.json is found.
func DefaultApprovedSubmittersConfig() ApprovedSubmittersConfig {
	return ApprovedSubmittersConfig{Submitters: []ApprovedSubmitter{}}
}

// Lookup finds the canonical submitter name for login, if approved.
func (c ApprovedSubmittersConfig) Lookup(login string) (name string, ok bool) {
	for _, s := range c.Submitters {
		if s.Login == login {
			return s.Name, true
		}
	}
	return "", false
}

// SubmissionsClosed reports whether login may no longer submit as of now:
// past SubmissionDeadline with no extension, or past
// SubmissionExtensionsDeadline even with one. An unknown login is treated
// as closed, since CheckEligibility rejects unknown submitters before this
// is ever consulted.
func (c ApprovedSubmittersConfig) SubmissionsClosed(login string, now time.Time) bool {
	for _, s := range c.Submitters {
		if s.Login != login {
			continue
		}
		if s.ExtensionGranted {
			return !c.SubmissionExtensionsDeadline.IsZero() && now.After(c.SubmissionExtensionsDeadline)
		}
		return !c.SubmissionDeadline.IsZero() && now.After(c.SubmissionDeadline)
	}
	return true
}

// ServerConfig configures the results HTTP server's listen address.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DefaultServerConfig is written to disk the first time no
// server_config.json is found.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{Host: "127.0.0.1", Port: 8080}
}

// EmailConfig holds the crash-report email settings read from the optional
// email_config.json. internal/notify provides only a logging notifier,
// which does not use these settings.
type EmailConfig struct {
	Sender                string   `json:"sender"`
	Password              string   `json:"password"`
	SMTPServer            string   `json:"smtp_server"`
	Port                  int      `json:"port"`
	CrashReportRecipients []string `json:"crash_report_recipients"`
}

// DefaultEmailConfig holds the placeholder values IsDefault compares
// against. LoadEmailConfig does not write it to disk when
// email_config.json is missing.
func DefaultEmailConfig() EmailConfig {
	return EmailConfig{
		Sender:                "tourney-noreply@example.edu",
		Password:              "email_password_goes_here",
		SMTPServer:            "smtp.example.edu",
		Port:                  587,
		CrashReportRecipients: []string{"recipient_1@mail.com", "recipient_2@mail.com"},
	}
}

// IsDefault reports whether cfg still holds the placeholder values written
// by DefaultEmailConfig, i.e. it has not actually been configured.
func (cfg EmailConfig) IsDefault() bool {
	d := DefaultEmailConfig()
	return cfg.Sender == d.Sender && cfg.Password == d.Password && cfg.SMTPServer == d.SMTPServer
}
