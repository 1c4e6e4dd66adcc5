package models

// Session is the resolved identity of a signed-in caller.
type Session struct {
	Identity Identity `json:"identity"`
	Role     Role     `json:"role"`
}

// AppContext is handed to every gated handler in place of global session state.
type AppContext struct {
	Session *Session
	Config  SiteConfig
}

func (a *AppContext) Role() Role {
	if a == nil || a.Session == nil {
		return ""
	}
	return a.Session.Role
}

func (a *AppContext) SignedIn() bool {
	return a != nil && a.Session != nil
}
