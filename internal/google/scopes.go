package google

// DefaultOAuthScopes are the Google OAuth scopes the server requests.
//
// Calendar access covers events, calendarList, colors and freebusy. The
// OpenID Connect scopes identify the authorizing user so multi-account
// setups can be told apart.
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scope (events, calendarList, colors, freebusy)
	"https://www.googleapis.com/auth/calendar",
}
