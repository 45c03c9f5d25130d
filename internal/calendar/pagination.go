package calendar

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`     // номер страницы (с 1)
	PageSize int   `json:"pageSize"` // количество элементов на странице
	HasNext  bool  `json:"hasNext"`
	HasPrev  bool  `json:"hasPrev"`
	Total    int64 `json:"total"`
}

// Normalize clamps page (from 1) and pageSize and returns the matching
// limit/offset for a database query.
func Normalize(page, pageSize int) (normPage, normSize, offset int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize, (page - 1) * pageSize
}

// PageOf wraps one already-fetched page of items with its metadata.
func PageOf[T any](items []T, page, pageSize int, total int64) Page[T] {
	page, pageSize, offset := Normalize(page, pageSize)
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasPrev:  page > 1,
		HasNext:  int64(offset+len(items)) < total,
		Total:    total,
	}
}
