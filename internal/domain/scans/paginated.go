package scans

// ScanListResponse pagination envelope dari backend.
// The dashboard trusts page/total_pages as sent; nothing is recomputed client side.
type ScanListResponse struct {
	Total      int            `json:"total"`
	Scans      []ScanListItem `json:"scans"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// Pager describes the state of the previous/next controls for a page.
type Pager struct {
	Page         int
	TotalPages   int
	Total        int
	PrevDisabled bool
	NextDisabled bool
	Visible      bool
}

// NewPager derives pagination controls from the requested page and the
// response's total_pages.
func NewPager(page int, resp *ScanListResponse) Pager {
	if resp == nil {
		return Pager{Page: page, PrevDisabled: true, NextDisabled: true}
	}
	return Pager{
		Page:         page,
		TotalPages:   resp.TotalPages,
		Total:        resp.Total,
		PrevDisabled: page == 1,
		NextDisabled: page == resp.TotalPages,
		Visible:      resp.TotalPages > 1,
	}
}

func (p Pager) PrevPage() int { return p.Page - 1 }
func (p Pager) NextPage() int { return p.Page + 1 }
