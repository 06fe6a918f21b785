package api

// ListColorsReq selects one page of a colour collection.
type ListColorsReq struct {
	Brand  string `json:"brand" query:"brand"`
	Type   string `json:"type" query:"type"`
	Line   string `json:"line" query:"line"`
	Page   int    `json:"page,omitempty" query:"page"`
	Limit  int    `json:"limit,omitempty" query:"limit"`
	Family string `json:"family,omitempty" query:"family"`
}

func (r ListColorsReq) RequestMethod() (string, string) {
	return "GET", "/paint-colors"
}

type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

type Color struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hex    string `json:"hex"`
	RGB    *RGB   `json:"rgb,omitempty"`
	Code   string `json:"code,omitempty"`
	Family string `json:"family,omitempty"`
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

type ListColorsRsp struct {
	Colors     []Color    `json:"colors"`
	Pagination Pagination `json:"pagination"`
	Brand      string     `json:"brand"`
	Type       string     `json:"type"`
	Line       string     `json:"line"`
	Family     string     `json:"family,omitempty"`
}

type GetColorOptionsReq struct{}

func (r GetColorOptionsReq) RequestMethod() (string, string) {
	return "GET", "/paint-colors/options"
}

type Option struct {
	Value       string `json:"value"`
	DisplayName string `json:"displayName"`
}

type ColorOptionsRsp struct {
	Brands       []Option `json:"brands"`
	Types        []Option `json:"types"`
	Lines        []Option `json:"lines"`
	Families     []string `json:"families"`
	DefaultLimit int      `json:"defaultLimit"`
	MaxLimit     int      `json:"maxLimit"`
}

type GetCacheStatsReq struct{}

func (r GetCacheStatsReq) RequestMethod() (string, string) {
	return "GET", "/paint-colors/stats"
}

type CacheStatsRsp struct {
	Hits         uint64 `json:"hits"`
	Misses       uint64 `json:"misses"`
	Loads        uint64 `json:"loads"`
	LoadFailures uint64 `json:"loadFailures"`
	Evictions    uint64 `json:"evictions"`
	Size         int    `json:"size"`
	Capacity     int    `json:"capacity"`
}
