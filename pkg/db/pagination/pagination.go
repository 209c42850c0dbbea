package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=50" binding:"gte=1,lte=500"`
}

type Cursor struct {
	Offset int `json:"offset"`
}

type PageInfo struct {
	NextPageToken     string `json:"next_page_token"`
	PreviousPageToken string `json:"previous_page_token"`
	HasMore           bool   `json:"has_more"`
	Total             int    `json:"total"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, ErrInvalidPageToken
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, ErrInvalidPageToken
	}
	if cursor.Offset < 0 {
		return nil, ErrInvalidPageToken
	}

	return &cursor, nil
}

// Normalize applies the default and upper bound to the page size.
func (p Pagination) Normalize() Pagination {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Page slices an already ordered result set. The page token is an opaque
// offset into data.
func Page[T any](data []T, p Pagination) ([]T, *PageInfo, error) {
	p = p.Normalize()

	offset := 0
	if p.PageToken != "" {
		cursor, err := DecodeCursor(p.PageToken)
		if err != nil {
			return nil, nil, err
		}
		offset = cursor.Offset
	}

	info := &PageInfo{Total: len(data)}
	if offset >= len(data) {
		return []T{}, info, nil
	}

	end := offset + p.PageSize
	if end > len(data) {
		end = len(data)
	}

	if end < len(data) {
		token, err := EncodeCursor(Cursor{Offset: end})
		if err != nil {
			return nil, nil, err
		}
		info.HasMore = true
		info.NextPageToken = token
	}
	if offset > 0 {
		prev := offset - p.PageSize
		if prev < 0 {
			prev = 0
		}
		token, err := EncodeCursor(Cursor{Offset: prev})
		if err != nil {
			return nil, nil, err
		}
		info.PreviousPageToken = token
	}

	return data[offset:end], info, nil
}
