package common

// GetAccountFromArgs extracts the account name from request arguments,
// defaulting to "default".
func GetAccountFromArgs(args map[string]interface{}) string {
	account := "default"
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		account = accountVal
	}
	return account
}
