package resources

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/louisbranch/campaignforge/internal/platform/requestctx"
	apperrors "github.com/louisbranch/campaignforge/internal/services/web/platform/errors"
)

// Collection names a backend table read through this package.
type Collection string

const (
	CampaignContent Collection = "campaign_content"
	PartyTools      Collection = "party_tools"
	ForgeContent    Collection = "forge_content"
	Campaigns       Collection = "campaigns"
)

// PageSize is the number of rows in one list page.
const PageSize = 20

const (
	maxTitleLength = 200
	maxBodyLength  = 10000
	maxKindLength  = 40
	defaultKind    = "note"
)

// Key identifies one load: the campaign and user it is scoped to plus the
// page. Loaders re-run when any field changes.
type Key struct {
	CampaignID string
	UserID     string
	Page       int
}

func (k Key) page() int {
	if k.Page < 1 {
		return 1
	}
	return k.Page
}

func (k Key) pageLabel() string {
	return strconv.Itoa(k.page())
}

// KeyFor builds a key from the identity installed on ctx.
func KeyFor(ctx context.Context, page int) (Key, error) {
	identity, err := requestctx.RequireIdentity(ctx)
	if err != nil {
		return Key{}, err
	}
	return Key{CampaignID: identity.CampaignID, UserID: identity.UserID, Page: page}, nil
}

// Record is one row of a campaign-scoped collection.
type Record struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// Campaign is one row of the campaigns collection.
type Campaign struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Summary   string    `json:"summary"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordInput is the form payload for a new record.
type RecordInput struct {
	Title string
	Body  string
	Kind  string
}

// CampaignInput is the form payload for a new campaign.
type CampaignInput struct {
	Name    string
	Summary string
}

type recordRow struct {
	CampaignID string `json:"campaign_id"`
	OwnerID    string `json:"owner_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Kind       string `json:"kind"`
}

type campaignRow struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	OwnerID string `json:"owner_id"`
}

func (in RecordInput) normalize() (RecordInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	if in.Title == "" {
		return in, apperrors.EK(apperrors.KindInvalidInput, "web.record.title_required", "title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLength ||
		utf8.RuneCountInString(in.Body) > maxBodyLength ||
		utf8.RuneCountInString(in.Kind) > maxKindLength {
		return in, apperrors.EK(apperrors.KindInvalidInput, "web.record.too_long", "record field is too long")
	}
	if in.Kind == "" {
		in.Kind = defaultKind
	}
	return in, nil
}

func (in CampaignInput) normalize() (CampaignInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Summary = strings.TrimSpace(in.Summary)
	if in.Name == "" {
		return in, apperrors.EK(apperrors.KindInvalidInput, "web.dashboard.name_required", "campaign name is required")
	}
	if utf8.RuneCountInString(in.Name) > maxTitleLength || utf8.RuneCountInString(in.Summary) > maxBodyLength {
		return in, apperrors.EK(apperrors.KindInvalidInput, "web.record.too_long", "campaign field is too long")
	}
	return in, nil
}
