// Package branding holds user-visible product naming.
package branding

// AppName is the product name shown in page titles and navigation chrome.
const AppName = "Campaign Forge"

// ComposePageTitle appends the product name to a page title.
func ComposePageTitle(title string) string {
	if title == "" || title == AppName {
		return AppName
	}
	return title + " | " + AppName
}
