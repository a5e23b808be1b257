// Package routepath stores canonical HTTP paths for web modules.
package routepath

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	Root                         = "/"
	Health                       = "/healthz"
	Metrics                      = "/metrics"
	StaticPrefix                 = "/static/"
	AuthPrefix                   = "/auth/"
	Login                        = "/auth/login"
	Logout                       = "/auth/logout"
	AppPrefix                    = "/app/"
	AppCampaigns                 = "/app/campaigns"
	CampaignsPrefix              = "/app/campaigns/"
	AppCampaignPattern           = CampaignsPrefix + "{campaignID}"
	AppCampaignContentPattern    = CampaignsPrefix + "{campaignID}/content"
	AppCampaignPartyPattern      = CampaignsPrefix + "{campaignID}/party"
	AppCampaignForgePattern      = CampaignsPrefix + "{campaignID}/forge"
	AppCampaignForgeItemsPattern = CampaignsPrefix + "{campaignID}/forge/items"
	StandalonePrefix             = "/standalone/"
	StandalonePartyPattern       = StandalonePrefix + "campaigns/{campaignID}/party"
	StandalonePartyItemsPattern  = StandalonePrefix + "campaigns/{campaignID}/party/items"
)

// Query keys shared by page handlers.
const (
	PageQueryKey = "page"
	NextQueryKey = "next"
)

// AppCampaign returns the campaign overview route.
func AppCampaign(campaignID string) string {
	return CampaignsPrefix + escapeSegment(campaignID)
}

// AppCampaignContent returns the campaign content list route.
func AppCampaignContent(campaignID string) string {
	return AppCampaign(campaignID) + "/content"
}

// AppCampaignParty returns the embedded party tools route.
func AppCampaignParty(campaignID string) string {
	return AppCampaign(campaignID) + "/party"
}

// AppCampaignForge returns the forge page route.
func AppCampaignForge(campaignID string) string {
	return AppCampaign(campaignID) + "/forge"
}

// AppCampaignForgeItems returns the forge content list route.
func AppCampaignForgeItems(campaignID string) string {
	return AppCampaignForge(campaignID) + "/items"
}

// StandaloneParty returns the chrome-less party tools page.
func StandaloneParty(campaignID string) string {
	return StandalonePrefix + "campaigns/" + escapeSegment(campaignID) + "/party"
}

// StandalonePartyItems returns the chrome-less party tools list route.
func StandalonePartyItems(campaignID string) string {
	return StandaloneParty(campaignID) + "/items"
}

// WithPage appends the page query to path. Page 1 is the bare path.
func WithPage(path string, page int) string {
	if page <= 1 {
		return path
	}
	return path + "?" + PageQueryKey + "=" + strconv.Itoa(page)
}

// LoginWithNext returns the login route that returns to next afterwards.
func LoginWithNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || next == Login {
		return Login
	}
	return Login + "?" + url.Values{NextQueryKey: {next}}.Encode()
}

// SafeNext returns next when it is a local absolute path, else fallback.
func SafeNext(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	parsed, err := url.Parse(next)
	if err != nil || parsed.IsAbs() || parsed.Host != "" {
		return fallback
	}
	return next
}

// Page parses a page query value. Missing or invalid values are page 1.
func Page(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}
