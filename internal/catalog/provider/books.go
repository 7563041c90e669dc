package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/adapters/external/openlibrary"
	apperrors "github.com/narwhalmedia/fantasycards/pkg/errors"
)

const maxExcerpts = 3

// BookProvider serves the book catalog and author pages from Open Library.
type BookProvider struct {
	client *openlibrary.Client
}

// NewBookProvider creates the Open Library backed provider.
func NewBookProvider(client *openlibrary.Client) *BookProvider {
	return &BookProvider{client: client}
}

func (p *BookProvider) Name() string { return "openlibrary" }

func (p *BookProvider) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindBook}
}

// FetchPage returns works for one subject. TotalPages is derived from the
// reported hit count.
func (p *BookProvider) FetchPage(ctx context.Context, kind domain.Kind, q domain.PageQuery) (*domain.Page, error) {
	if kind != domain.KindBook {
		return nil, apperrors.BadRequest(fmt.Sprintf("%s is not served by open library", kind))
	}
	topic := q.Topic
	if topic == "" {
		topic = "fantasy"
	}
	res, err := p.client.SearchSubject(ctx, topic, q.Page, q.Limit)
	if err != nil {
		return nil, apperrors.AsUpstream(fmt.Sprintf("subject %s", topic), err)
	}

	page := &domain.Page{Entries: p.entries(res.Docs), Page: max(q.Page, 1)}
	if q.Limit > 0 {
		page.TotalPages = (res.NumFound + q.Limit - 1) / q.Limit
	}
	return page, nil
}

// Search runs a free-text book search.
func (p *BookProvider) Search(ctx context.Context, query string, limit int) ([]domain.Entry, error) {
	res, err := p.client.Search(ctx, query, 1, limit)
	if err != nil {
		return nil, apperrors.AsUpstream("search books", err)
	}
	return p.entries(res.Docs), nil
}

// Work fetches the full record of one work. Author names are not part of
// the work record; only the author keys are filled.
func (p *BookProvider) Work(ctx context.Context, id string) (*domain.Detail, error) {
	w, err := p.client.GetWork(ctx, id)
	if err != nil {
		return nil, apperrors.AsUpstream(fmt.Sprintf("work %s", id), err)
	}

	entry := domain.Entry{
		Kind:        domain.KindBook,
		ID:          openlibrary.WorkID(id),
		Title:       w.Title,
		ReleaseDate: w.FirstPublishDate,
		Year:        domain.YearFromDate(w.FirstPublishDate),
		Book: &domain.BookInfo{
			AuthorKeys: w.AuthorKeys(),
			Subjects:   w.Subjects,
		},
	}
	if len(w.Covers) > 0 && w.Covers[0] > 0 {
		cover := w.Covers[0]
		entry.ImageRef = strconv.Itoa(cover)
		entry.ImageURL = p.client.CoverURL(&cover, "L")
	}

	out := &domain.Detail{
		Entry:         entry,
		Overview:      strings.TrimSpace(string(w.Description)),
		SubjectPeople: w.SubjectPeople,
		Similar:       []domain.Entry{},
	}
	for _, l := range w.Links {
		out.Links = append(out.Links, domain.Link{Title: l.Title, URL: l.URL})
	}
	for _, ex := range w.Excerpts {
		if len(out.Excerpts) == maxExcerpts {
			break
		}
		if text := strings.TrimSpace(string(ex.Excerpt)); text != "" {
			out.Excerpts = append(out.Excerpts, text)
		}
	}
	return out, nil
}

// Ratings returns the reader rating of a work, nil when unrated.
func (p *BookProvider) Ratings(ctx context.Context, id string) (*domain.RatingSummary, error) {
	s, err := p.client.WorkRatings(ctx, id)
	if err != nil {
		return nil, apperrors.AsUpstream(fmt.Sprintf("ratings %s", id), err)
	}
	if s == nil || s.Average == nil {
		return nil, nil
	}
	return &domain.RatingSummary{Average: *s.Average, Count: s.Count}, nil
}

// Author fetches an author record.
func (p *BookProvider) Author(ctx context.Context, id string) (*domain.Author, error) {
	a, err := p.client.GetAuthor(ctx, id)
	if err != nil {
		return nil, apperrors.AsUpstream(fmt.Sprintf("author %s", id), err)
	}

	key := openlibrary.AuthorID(id)
	out := &domain.Author{
		ID:           key,
		Name:         a.Name,
		PersonalName: a.PersonalName,
		Bio:          strings.TrimSpace(string(a.Bio)),
		BirthDate:    a.BirthDate,
		DeathDate:    a.DeathDate,
		TopWork:      a.TopWork,
		TopSubjects:  a.TopSubjects,
		Works:        []domain.Entry{},
	}
	if len(a.Photos) > 0 && a.Photos[0] > 0 {
		out.PhotoURL = p.client.AuthorPhotoURL(key, "M")
	}
	for _, l := range a.Links {
		out.Links = append(out.Links, domain.Link{Title: l.Title, URL: l.URL})
	}
	return out, nil
}

// AuthorWorks lists works credited to an author.
func (p *BookProvider) AuthorWorks(ctx context.Context, id string, limit int) ([]domain.Entry, error) {
	docs, err := p.client.AuthorWorks(ctx, id, limit)
	if err != nil {
		return nil, apperrors.AsUpstream(fmt.Sprintf("author works %s", id), err)
	}
	return p.entries(docs), nil
}

func (p *BookProvider) entries(docs []openlibrary.Doc) []domain.Entry {
	out := make([]domain.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, p.entry(d))
	}
	return out
}

func (p *BookProvider) entry(d openlibrary.Doc) domain.Entry {
	e := domain.Entry{
		Kind:     domain.KindBook,
		ID:       openlibrary.WorkID(d.Key),
		Title:    d.Title,
		Year:     d.FirstPublishYear,
		ImageURL: p.client.CoverURL(d.CoverID, "M"),
		Book: &domain.BookInfo{
			Authors:      d.AuthorName,
			AuthorKeys:   d.AuthorKey,
			Subjects:     d.Subject,
			EditionCount: d.EditionCount,
			PagesMedian:  d.NumberOfPagesMedian,
			EbookAccess:  d.EbookAccess,
		},
	}
	if d.FirstPublishYear != nil {
		e.ReleaseDate = strconv.Itoa(*d.FirstPublishYear)
	}
	if d.CoverID != nil {
		e.ImageRef = strconv.Itoa(*d.CoverID)
	}
	if d.RatingsAverage != nil && d.RatingsCount != nil && *d.RatingsCount > 0 {
		e.Rating = d.RatingsAverage
		e.RatingCount = d.RatingsCount
	}
	return e
}
