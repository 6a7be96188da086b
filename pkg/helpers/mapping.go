package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/devconnect/pkg/mailer"
	mailtpl "github.com/oksasatya/devconnect/pkg/mailer/templates"
)

// universalSubjects are the subjects of the universal template by Type.
var universalSubjects = map[string]string{
	mailtpl.Welcome:        "Welcome aboard",
	mailtpl.ForgotPassword: "Reset your password",
}

// dataString returns data[key] as text, "" when it is missing or nil.
func dataString(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func SubjectForUniversal(data map[string]any) string {
	if s, ok := universalSubjects[strings.ToLower(dataString(data, "Type"))]; ok {
		return s
	}
	return "Notification"
}

// EnsureRecipientAndEmail defaults the addressing fields of the data to job.To.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	for _, key := range []string{"Email", "RecipientEmail"} {
		if dataString(job.Data, key) == "" {
			job.Data[key] = job.To
		}
	}
}

// MapLegacyToUniversal rewrites jobs addressed to a type name onto the
// universal template, keeping the name as the Type.
func MapLegacyToUniversal(job *mailer.EmailJob) {
	name := strings.ToLower(job.Template)
	if _, ok := universalSubjects[name]; !ok {
		return
	}
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if dataString(job.Data, "Type") == "" {
		job.Data["Type"] = name
	}
	job.Template = mailtpl.Universal
}
