package sources

import "github.com/ternarybob/ecclesia/internal/models"

// defaultSources lists the crawled sites in sweep order. Detail-page
// predicates are anchored on the board path and the numeric article id so
// paging, category and login links never qualify.
func defaultSources() []models.Source {
	return []models.Source{
		{
			Name:          "seoul-archdiocese-events",
			ListingURL:    "https://aos.catholic.or.kr/pro1024/board/list?bbsid=event",
			LinkPredicate: matchURL(`^https://aos\.catholic\.or\.kr/pro1024/board/view\?.*\bseq=\d+`),
			MaxItems:      20,
			WaitSelector:  ".board_list",
			ContentSelectors: []string{
				".view_cont",
				".bbs_view",
			},
		},
		{
			Name:          "catholic-times-events",
			ListingURL:    "https://www.catholictimes.org/news/articleList.html?sc_section_code=S1N9",
			LinkPredicate: matchURL(`^https://www\.catholictimes\.org/news/articleView\.html\?idxno=\d+$`),
			MaxItems:      15,
			Fetch:         models.FetchHTTP,
			ContentSelectors: []string{
				"#article-view-content-div",
			},
		},
		{
			Name:          "cpbc-events",
			ListingURL:    "https://www.cpbc.co.kr/news/list?category=event",
			LinkPredicate: matchURL(`^https://www\.cpbc\.co\.kr/news/view\?.*\bid=\d+`),
			MaxItems:      15,
			WaitSelector:  ".news-list",
			ContentSelectors: []string{
				".news-view-body",
			},
		},
		{
			Name: "suwon-diocese-calendar",
			Feed: &models.FeedSpec{
				APIURL:    "https://www.casuwon.or.kr/api/calendar/list?year={yyyy}&month={mm}",
				DetailURL: "https://www.casuwon.or.kr/calendar/view?seq={id}",
			},
			ListingURL:  "https://www.casuwon.or.kr/calendar",
			MaxItems:    30,
			MonthsAhead: 2,
			ContentSelectors: []string{
				".calendar-view",
			},
		},
		{
			// Legacy EUC-KR board; events only, so the category is fixed
			Name:            "retreat-house-notices",
			ListingURL:      "http://www.retreat.or.kr/bbs/board.php?bo_table=retreat",
			LinkPredicate:   matchURL(`^http://www\.retreat\.or\.kr/bbs/board\.php\?bo_table=retreat&(amp;)?wr_id=\d+$`),
			MaxItems:        10,
			Fetch:           models.FetchHTTP,
			LinkStrategies:  []string{models.LinkStrategyDOM, models.LinkStrategyRegex},
			SkipClassify:    true,
			DefaultCategory: models.CategoryRetreat,
		},
	}
}
