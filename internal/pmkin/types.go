// Package pmkin implements the pmkin content operations on top of the
// GraphQL transport: category and document lookups and listings.
package pmkin

import "context"

// Category is a content category.
type Category struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
}

// CategoryListing is a category as returned by ListCategories.
type CategoryListing = Category

// CoverImage is a document's cover image.
type CoverImage struct {
	URL string `json:"url"`
}

// DocumentListing is a document without its body, as returned by the
// listing operations. Nullable string fields decode to "".
type DocumentListing struct {
	// Category is nil for uncategorized documents.
	Category        *Category   `json:"category,omitempty"`
	CoverImage      *CoverImage `json:"coverImage"`
	Excerpt         string      `json:"excerpt"`
	ID              string      `json:"id"`
	IsPublished     bool        `json:"isPublished"`
	MetaDescription string      `json:"metaDescription"`
	MetaTitle       string      `json:"metaTitle"`
	PublishedAt     string      `json:"publishedAt"`
	Slug            string      `json:"slug"`
	Subtitle        string      `json:"subtitle"`
	Title           string      `json:"title"`
}

// Document is a full document including its rendered and source body.
type Document struct {
	DocumentListing
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
}

// CategorySlug returns the slug of the document's category, or "" when it
// has none.
func (d *DocumentListing) CategorySlug() string {
	if d.Category == nil {
		return ""
	}
	return d.Category.Slug
}

// ContentService defines the read operations of the pmkin content API.
//
// Find operations return (nil, nil) when nothing matches the key. List
// operations return an empty slice for an empty collection and an
// *InvalidResponseError when the collection field is missing.
type ContentService interface {
	FindCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]CategoryListing, error)
	FindDocument(ctx context.Context, id string) (*Document, error)
	FindDocumentBySlug(ctx context.Context, slug string) (*Document, error)
	ListDocuments(ctx context.Context) ([]DocumentListing, error)
	ListDocumentsInCategory(ctx context.Context, categoryID string, opts ...ListOption) ([]DocumentListing, error)
}
