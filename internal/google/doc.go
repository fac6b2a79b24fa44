// Package google loads the delegated OAuth credentials the server uses to
// call the Calendar API on the user's behalf.
//
// Token acquisition and refresh live outside this server; this package only
// reads what the external authorization flow stored (one token file per
// account) and exposes it through the TokenProvider interface so other token
// backends can be substituted.
package google
