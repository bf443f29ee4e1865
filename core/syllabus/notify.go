package syllabus

import (
	"net/mail"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	"github.com/trezcool/syllabus/core/user"
)

const pendingApprovalTemplate = "pending_approval"

type pendingApprovalData struct {
	TeacherName   string
	SubtopicTitle string
	TopicTitle    string
	WeekNumber    int
	Month         string
	OwnerName     string
	OwnerKind     string
	OwnerID       string
}

// notifyPendingApproval tells the owner's reviewers that a subtopic awaits their approval.
// Sending is asynchronous; failures are reported by the email service, never returned.
func (svc *service) notifyPendingApproval(p user.Principal, o owner.Owner, d Document, ref Ref) {
	if svc.Mail == nil || len(o.ReviewerEmails) == 0 {
		return
	}
	t, err := d.Topic(ref.WeekNumber, ref.TopicIndex)
	if err != nil {
		return
	}
	st, err := d.Subtopic(ref)
	if err != nil {
		return
	}

	to := make([]mail.Address, 0, len(o.ReviewerEmails))
	for _, email := range o.ReviewerEmails {
		to = append(to, mail.Address{Address: email})
	}
	teacher := p.Name
	if teacher == "" {
		teacher = p.Email
	}

	svc.Mail.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      "Syllabus item pending approval",
		TemplateName: pendingApprovalTemplate,
		TemplateData: pendingApprovalData{
			TeacherName:   teacher,
			SubtopicTitle: st.Title,
			TopicTitle:    t.Title,
			WeekNumber:    ref.WeekNumber,
			Month:         d.Month,
			OwnerName:     o.Name,
			OwnerKind:     d.OwnerKind,
			OwnerID:       d.OwnerID,
		},
	})
}
