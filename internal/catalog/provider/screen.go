package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/adapters/external/tmdb"
	apperrors "github.com/narwhalmedia/fantasycards/pkg/errors"
)

const (
	maxCast = 12
	maxCrew = 8
)

var crewJobs = map[string]bool{
	"Director":                true,
	"Screenplay":              true,
	"Writer":                  true,
	"Novel":                   true,
	"Original Music Composer": true,
}

// ScreenProvider serves the movie and TV catalogs from TMDB.
type ScreenProvider struct {
	client *tmdb.Client
	region string
}

// NewScreenProvider creates the TMDB backed provider. Watch providers are
// reported for the region part of language (en-US gives US).
func NewScreenProvider(client *tmdb.Client, language string) *ScreenProvider {
	region := "US"
	if _, r, ok := strings.Cut(language, "-"); ok && r != "" {
		region = strings.ToUpper(r)
	}
	return &ScreenProvider{client: client, region: region}
}

func (p *ScreenProvider) Name() string { return "tmdb" }

func (p *ScreenProvider) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindMovie, domain.KindTV}
}

// FetchPage returns one page of the fantasy discover listing.
func (p *ScreenProvider) FetchPage(ctx context.Context, kind domain.Kind, q domain.PageQuery) (*domain.Page, error) {
	mt, err := mediaType(kind)
	if err != nil {
		return nil, err
	}
	res, err := p.client.Discover(ctx, mt, tmdb.DiscoverOptions{Page: q.Page})
	if err != nil {
		return nil, apperrors.AsUpstream(fmt.Sprintf("discover %s", kind), err)
	}
	return &domain.Page{
		Entries:    p.entries(kind, res.Results),
		Page:       res.Page,
		TotalPages: res.TotalPages,
	}, nil
}

// Search runs a title search.
func (p *ScreenProvider) Search(ctx context.Context, kind domain.Kind, query string, page int) ([]domain.Entry, error) {
	mt, err := mediaType(kind)
	if err != nil {
		return nil, err
	}
	res, err := p.client.Search(ctx, mt, query, page)
	if err != nil {
		return nil, apperrors.AsUpstream(fmt.Sprintf("search %s", kind), err)
	}
	return p.entries(kind, res.Results), nil
}

// Similar lists titles related to id.
func (p *ScreenProvider) Similar(ctx context.Context, kind domain.Kind, id string) ([]domain.Entry, error) {
	mt, err := mediaType(kind)
	if err != nil {
		return nil, err
	}
	res, err := p.client.Similar(ctx, mt, id, 1)
	if err != nil {
		return nil, apperrors.AsUpstream(fmt.Sprintf("similar %s %s", kind, id), err)
	}
	return p.entries(kind, res.Results), nil
}

// Detail fetches the full record of one title.
func (p *ScreenProvider) Detail(ctx context.Context, kind domain.Kind, id string) (*domain.Detail, error) {
	var (
		d   *tmdb.Details
		err error
	)
	switch kind {
	case domain.KindMovie:
		d, err = p.client.GetMovie(ctx, id)
	case domain.KindTV:
		d, err = p.client.GetTV(ctx, id)
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("%s is not a screen kind", kind))
	}
	if err != nil {
		return nil, apperrors.AsUpstream(fmt.Sprintf("%s %s", kind, id), err)
	}
	return p.detail(kind, d), nil
}

func (p *ScreenProvider) entries(kind domain.Kind, results []tmdb.Result) []domain.Entry {
	out := make([]domain.Entry, 0, len(results))
	for _, r := range results {
		out = append(out, p.entry(kind, r))
	}
	return out
}

func (p *ScreenProvider) entry(kind domain.Kind, r tmdb.Result) domain.Entry {
	e := domain.Entry{
		Kind:        kind,
		ID:          strconv.Itoa(r.ID),
		Title:       r.DisplayTitle(),
		ReleaseDate: r.Date(),
		Year:        domain.YearFromDate(r.Date()),
		ImageRef:    r.PosterPath,
		ImageURL:    p.client.PosterURL(r.PosterPath, ""),
		Popularity:  r.Popularity,
		Screen: &domain.ScreenInfo{
			GenreIDs:      nonNil(r.GenreIDs),
			Overview:      r.Overview,
			BackdropPath:  r.BackdropPath,
			OriginalTitle: r.Original(),
		},
	}
	// TMDB reports 0 for titles nobody voted on; that is no rating at all.
	if r.VoteAverage != nil && r.VoteCount > 0 {
		avg, count := *r.VoteAverage, r.VoteCount
		e.Rating = &avg
		e.RatingCount = &count
	}
	return e
}

func (p *ScreenProvider) detail(kind domain.Kind, d *tmdb.Details) *domain.Detail {
	entry := p.entry(kind, d.Result)
	if len(entry.Screen.GenreIDs) == 0 {
		for _, g := range d.Genres {
			entry.Screen.GenreIDs = append(entry.Screen.GenreIDs, g.ID)
		}
	}

	out := &domain.Detail{
		Entry:       entry,
		Overview:    d.Overview,
		Tagline:     d.Tagline,
		Homepage:    d.Homepage,
		Status:      d.Status,
		BackdropURL: p.client.BackdropURL(d.BackdropPath),
		Runtime:     d.Runtime,
		Seasons:     d.NumberOfSeasons,
		Episodes:    d.NumberOfEpisodes,
		Similar:     []domain.Entry{},
	}
	if out.Runtime == nil && len(d.EpisodeRunTime) > 0 {
		rt := d.EpisodeRunTime[0]
		out.Runtime = &rt
	}

	for _, g := range d.Genres {
		out.Genres = append(out.Genres, domain.Genre{ID: g.ID, Name: g.Name})
	}
	for i, c := range d.Credits.Cast {
		if i == maxCast {
			break
		}
		out.Cast = append(out.Cast, domain.CastMember{
			Name:       c.Name,
			Character:  c.Character,
			ProfileURL: p.client.PosterURL(c.ProfilePath, "w185"),
		})
	}
	for _, c := range d.CreatedBy {
		out.Crew = append(out.Crew, domain.CrewMember{Name: c.Name, Job: "Creator"})
	}
	for _, c := range d.Credits.Crew {
		if len(out.Crew) == maxCrew {
			break
		}
		if crewJobs[c.Job] {
			out.Crew = append(out.Crew, domain.CrewMember{Name: c.Name, Job: c.Job})
		}
	}
	for _, v := range d.Videos.Results {
		if v.Site == "YouTube" && (v.Type == "Trailer" || v.Type == "Teaser") {
			out.Videos = append(out.Videos, domain.Video{Key: v.Key, Name: v.Name, Site: v.Site, Type: v.Type})
		}
	}
	if offers, ok := d.WatchProviders.Results[p.region]; ok {
		out.WatchProviders = append(out.WatchProviders, p.offers("flatrate", offers.Flatrate)...)
		out.WatchProviders = append(out.WatchProviders, p.offers("rent", offers.Rent)...)
		out.WatchProviders = append(out.WatchProviders, p.offers("buy", offers.Buy)...)
	}
	out.ExternalIDs = externalIDs(d)
	return out
}

func (p *ScreenProvider) offers(kind string, providers []tmdb.Provider) []domain.WatchProvider {
	out := make([]domain.WatchProvider, 0, len(providers))
	for _, pr := range providers {
		out = append(out, domain.WatchProvider{
			Name:    pr.ProviderName,
			LogoURL: p.client.PosterURL(pr.LogoPath, "w92"),
			Offer:   kind,
		})
	}
	return out
}

func externalIDs(d *tmdb.Details) map[string]string {
	ids := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			ids[k] = v
		}
	}
	set("imdb", d.ExternalIDs.IMDbID)
	if ids["imdb"] == "" {
		set("imdb", d.IMDbID)
	}
	set("wikidata", d.ExternalIDs.WikidataID)
	set("facebook", d.ExternalIDs.FacebookID)
	set("instagram", d.ExternalIDs.InstagramID)
	set("twitter", d.ExternalIDs.TwitterID)
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func mediaType(kind domain.Kind) (tmdb.MediaType, error) {
	switch kind {
	case domain.KindMovie:
		return tmdb.Movie, nil
	case domain.KindTV:
		return tmdb.TV, nil
	}
	return "", apperrors.BadRequest(fmt.Sprintf("%s is not a screen kind", kind))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
