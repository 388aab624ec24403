package domain

// User is the server-identified principal. The client holds a read-through
// cache of it keyed by the current token; a non-empty ID is the single source
// of truth for "is authenticated" everywhere else in the app.
type User struct {
	ID                          string `json:"id"`
	Email                       string `json:"email"`
	FirstName                   string `json:"firstName"`
	LastName                    string `json:"lastName"`
	Gender                      string `json:"gender,omitempty"`
	Age                         int    `json:"age,omitempty"`
	ReferralSource              string `json:"referralSource,omitempty"`
	MedicalQuestionsCompletedAt string `json:"medicalQuestionsCompletedAt,omitempty"`
}

// IsZero reports whether the user is absent.
func (u User) IsZero() bool { return u.ID == "" }
