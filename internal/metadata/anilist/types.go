package anilist

// searchQuery asks for the first ten manga sorted by search relevance.
const searchQuery = `query ($search: String) {
  Page(page: 1, perPage: 10) {
    media(type: MANGA, search: $search, sort: SEARCH_MATCH) {
      id
      title { romaji english native }
      coverImage { extraLarge }
      status
      chapters
      volumes
      description(asHtml: false)
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type searchResponse struct {
	Data *struct {
		Page struct {
			Media []rawMedia `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors graphQLErrors `json:"errors"`
}

type rawMedia struct {
	ID    int64 `json:"id"`
	Title struct {
		Romaji  *string `json:"romaji"`
		English *string `json:"english"`
		Native  *string `json:"native"`
	} `json:"title"`
	CoverImage struct {
		ExtraLarge *string `json:"extraLarge"`
	} `json:"coverImage"`
	Status      *string `json:"status"`
	Chapters    *int    `json:"chapters"`
	Volumes     *int    `json:"volumes"`
	Description *string `json:"description"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
