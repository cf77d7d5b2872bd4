package view

// Class names shared by the progress renderer and the layouts that feed it.
const (
	ClassActive         = "active"
	ClassCompleted      = "completed"
	ClassIconComplete   = "icon-complete"
	ClassIconIncomplete = "icon-incomplete"
	ClassIndicator      = "progress-step"
)

// IDs names every element the onboarding flow looks up.
type IDs struct {
	Links           string
	UserInfo        string
	UserEmail       string
	InvitationInput string
	InvitationError string
	InvitationSend  string
	EmailInput      string
	CodeInput       string
	FlowError       string
	ProgressBar     string
	ProgressFill    string
	// Panels maps a step name to the id of the panel shown for it.
	Panels map[string]string
}

// DefaultIDs returns the element ids used by [NewLayout].
func DefaultIDs() IDs {
	return IDs{
		Links:           "auth-links",
		UserInfo:        "user-info",
		UserEmail:       "user-email",
		InvitationInput: "invitation-code",
		InvitationError: "invitation-error",
		InvitationSend:  "invitation-submit",
		EmailInput:      "email-input",
		CodeInput:       "code-input",
		FlowError:       "auth-error",
		ProgressBar:     "progress-bar",
		ProgressFill:    "progress-fill",
		Panels: map[string]string{
			"invitation": "step-invitation",
			"email":      "step-email",
			"verify":     "step-verify",
			"success":    "step-success",
		},
	}
}

// Layout options for NewLayout.
type Layout struct {
	IDs        IDs
	Indicators int
	// Omit lists ids that are not created, simulating a page that has not finished loading.
	Omit []string
}

// NewLayout builds a page holding every element in l.IDs in its initial,
// unauthenticated state: links visible, user info hidden, every panel hidden,
// every indicator showing its incomplete icon.
func NewLayout(l Layout) *Page {
	if l.Indicators <= 0 {
		l.Indicators = 3
	}
	omit := make(map[string]struct{}, len(l.Omit))
	for _, id := range l.Omit {
		omit[id] = struct{}{}
	}
	p := NewPage()
	add := func(id string, classes ...string) *Node {
		if _, skip := omit[id]; skip || id == "" {
			return nil
		}
		return p.Add(id, classes...)
	}

	add(l.IDs.Links)
	if n := add(l.IDs.UserInfo); n != nil {
		n.SetHidden(true)
	}
	add(l.IDs.UserEmail)
	add(l.IDs.InvitationInput)
	if n := add(l.IDs.InvitationError); n != nil {
		n.SetHidden(true)
	}
	add(l.IDs.InvitationSend)
	add(l.IDs.EmailInput)
	add(l.IDs.CodeInput)
	if n := add(l.IDs.FlowError); n != nil {
		n.SetHidden(true)
	}
	add(l.IDs.ProgressFill)
	for _, id := range l.IDs.Panels {
		if n := add(id); n != nil {
			n.SetHidden(true)
		}
	}

	if bar := add(l.IDs.ProgressBar); bar != nil {
		for i := 0; i < l.Indicators; i++ {
			complete := p.Add("", ClassIconComplete)
			complete.SetHidden(true)
			incomplete := p.Add("", ClassIconIncomplete)
			indicator := p.Add("", ClassIndicator).Append(complete, incomplete)
			bar.Append(indicator)
		}
	}
	return p
}
