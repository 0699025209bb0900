package auth

import (
	"fmt"
	"strings"
)

// ShowCredentialGuide displays step-by-step instructions for obtaining the
// developer-portal credentials this tool needs.
func ShowCredentialGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 X API CREDENTIAL GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool needs credentials from the X developer portal to call the API.")
	fmt.Println("Follow these steps to create them:")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Open the developer portal")
	fmt.Println("   - Go to https://developer.twitter.com/en/portal/dashboard")
	fmt.Println("   - Sign in and create a project and an app if you don't have one")
	fmt.Println()

	fmt.Println("🔑 STEP 2: Collect the app keys")
	fmt.Println("   - Open your app's 'Keys and tokens' tab")
	fmt.Println("   - Copy the Bearer Token (app-only access)")
	fmt.Println("   - Copy the OAuth 2.0 Client ID and Client Secret (user access)")
	fmt.Println()

	fmt.Println("⚙️  STEP 3: Configure user authentication")
	fmt.Println("   - In 'User authentication settings', enable OAuth 2.0")
	fmt.Println("   - Type of app: Native App or Web App")
	fmt.Println("   - Callback URL: http://localhost:8080/callback")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • The followers endpoint needs a user token with the follows.read scope;")
	fmt.Println("     the bearer token alone is not enough")
	fmt.Println("   • Follower lookups also require an elevated API access tier")
	fmt.Println("   • Export TWITTER_BEARER_TOKEN / TWITTER_CLIENT_ID / TWITTER_CLIENT_SECRET,")
	fmt.Println("     or run 'xfollowers auth login' to store them securely")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • These keys give access to your developer account's rate limits")
	fmt.Println("   • NEVER commit them or share them with anyone")
	fmt.Println("   • This tool encrypts stored credentials")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickCredentialGuide shows a condensed version for experienced users
func ShowQuickCredentialGuide() {
	fmt.Println("\n🔑 Quick Guide: developer.twitter.com → your app → Keys and tokens")
	fmt.Println("   Need: Bearer Token, OAuth 2.0 Client ID + Secret (callback http://localhost:8080/callback)")
	fmt.Println("   Run 'xfollowers auth login' to store them")
}
