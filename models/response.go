package models

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RestrictedView is the fixed payload a gated view renders instead of its list
// when the database rejects the read.
type RestrictedView struct {
	Restricted bool   `json:"restricted"`
	Target     string `json:"target"`
	Message    string `json:"message"`
	Hint       string `json:"hint"`
}

const restrictedHint = `If you are the owner, ensure your email is added to the "user_permissions" collection with role "admin".`

func NewRestrictedView(target, message string) RestrictedView {
	return RestrictedView{
		Restricted: true,
		Target:     target,
		Message:    message,
		Hint:       restrictedHint,
	}
}
