package history

import "context"

// Repository port for persisting and querying analysis history
type Repository interface {
	Migrate(ctx context.Context) error
	Save(ctx context.Context, r *Record) error
	ListByUser(ctx context.Context, user string, page, pageSize int) ([]*Record, error)
}

// Page is a page of records returned to API clients.
type Page struct {
	Data     []*Record `json:"data"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// NormalizePage applies the default page and page size and caps the size at 100.
func NormalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
